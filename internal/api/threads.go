package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/adamavenir/tangent/internal/types"
)

// CreateThread creates a root thread, a branch or a fork depending on req.
func (c *Client) CreateThread(ctx context.Context, req types.ThreadCreate) (types.Thread, error) {
	var thread types.Thread
	if err := c.doJSON(ctx, http.MethodPost, "/threads", nil, req, &thread); err != nil {
		return types.Thread{}, err
	}
	return thread, nil
}

// GetThread fetches a single thread.
func (c *Client) GetThread(ctx context.Context, id string) (types.Thread, error) {
	path, err := threadPath(id, "")
	if err != nil {
		return types.Thread{}, err
	}
	var thread types.Thread
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &thread); err != nil {
		return types.Thread{}, err
	}
	return thread, nil
}

// RootThreads lists threads at depth 0.
func (c *Client) RootThreads(ctx context.Context) ([]types.Thread, error) {
	query := url.Values{}
	query.Set("depth", "0")
	var threads []types.Thread
	if err := c.doJSON(ctx, http.MethodGet, "/threads", query, nil, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// Children lists the direct children of a thread.
func (c *Client) Children(ctx context.Context, id string) ([]types.Thread, error) {
	path, err := threadPath(id, "/children")
	if err != nil {
		return nil, err
	}
	var threads []types.Thread
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// UpdateThread patches thread metadata.
func (c *Client) UpdateThread(ctx context.Context, id string, req types.ThreadUpdate) (types.Thread, error) {
	path, err := threadPath(id, "")
	if err != nil {
		return types.Thread{}, err
	}
	var thread types.Thread
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, req, &thread); err != nil {
		return types.Thread{}, err
	}
	return thread, nil
}

// DeleteThread deletes a thread and, server-side, its descendants.
func (c *Client) DeleteThread(ctx context.Context, id string) error {
	path, err := threadPath(id, "")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListMessages fetches a thread's messages together with its metadata.
func (c *Client) ListMessages(ctx context.Context, id string) (types.ThreadMessages, error) {
	path, err := threadPath(id, "/messages")
	if err != nil {
		return types.ThreadMessages{}, err
	}
	var resp types.ThreadMessages
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return types.ThreadMessages{}, err
	}
	return resp, nil
}

// SendMessage posts a user message. With Background set the server replies
// immediately and produces the assistant turn later.
func (c *Client) SendMessage(ctx context.Context, id string, req types.MessageCreate) (types.Message, error) {
	path, err := threadPath(id, "/messages")
	if err != nil {
		return types.Message{}, err
	}
	var msg types.Message
	if err := c.doJSON(ctx, http.MethodPost, path, nil, req, &msg); err != nil {
		return types.Message{}, err
	}
	return msg, nil
}
