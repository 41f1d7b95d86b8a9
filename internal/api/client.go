package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 20 * time.Second

// Options configure a Client.
type Options struct {
	Token   string
	Timeout time.Duration
	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	Logger    *slog.Logger
	HTTP      *http.Client
}

// Client talks to the conversation server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient constructs a client for baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    normalized,
		token:      opts.Token,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// NormalizeBaseURL trims the server url and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("server url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("server url must include scheme and host (http://host:port)")
	}
	return strings.TrimRight(value, "/"), nil
}

// BaseURL returns the normalized server url.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return &TransientError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Op: method + " " + path, Err: err}
	}
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, respData)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return &TransientError{Op: method + " " + path, Err: apiErr}
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, respBody); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimRight(base.Path, "/") + path)
	if err != nil {
		return "", err
	}
	endpoint := base.ResolveReference(ref)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}

func parseAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}
	var payload apiErrorPayload
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.detail()
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

type apiErrorPayload struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

// detail flattens FastAPI's detail field, which is either a string or a list
// of validation errors.
func (p apiErrorPayload) detail() string {
	if len(p.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(p.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(p.Detail, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				parts = append(parts, item.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return string(p.Detail)
}

var errNoID = errors.New("thread id is required")

func threadPath(id string, suffix string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", errNoID
	}
	return "/threads/" + url.PathEscape(id) + suffix, nil
}
