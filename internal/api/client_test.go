package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adamavenir/tangent/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, Options{Token: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"http://localhost:8000/", "http://localhost:8000", false},
		{"  https://chat.example.com/api// ", "https://chat.example.com/api", false},
		{"", "", true},
		{"localhost:8000", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeBaseURL(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q, %v want %q", tc.raw, got, err, tc.want)
		}
	}
}

func TestListMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/threads/t1/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing auth header")
		}
		_, _ = io.WriteString(w, `{"thread_info":{"id":"t1","root_id":"t1","depth":0},"messages":[{"id":"m1","thread_id":"t1","role":"user","content":"Hi","sequence":1}]}`)
	})

	resp, err := client.ListMessages(context.Background(), "t1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if resp.ThreadInfo.ID != "t1" || len(resp.Messages) != 1 || resp.Messages[0].Content != "Hi" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSendMessageBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body types.MessageCreate
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Content != "Hello" || !body.Background {
			t.Errorf("unexpected body: %+v", body)
		}
		_, _ = io.WriteString(w, `{"id":"m1","thread_id":"t1","role":"user","content":"Hello","sequence":1}`)
	})

	msg, err := client.SendMessage(context.Background(), "t1", types.MessageCreate{Content: "Hello", Background: true})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID != "m1" {
		t.Fatalf("message id: got %q", msg.ID)
	}
}

func TestRootThreadsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("depth") != "0" {
			t.Errorf("depth query: got %q", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[{"id":"a","root_id":"a","depth":0},{"id":"b","root_id":"b","depth":0}]`)
	})
	threads, err := client.RootThreads(context.Background())
	if err != nil {
		t.Fatalf("root threads: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("threads: got %d", len(threads))
	}
}

func TestNotFoundDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Thread not found"}`)
	})
	_, err := client.GetThread(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Thread not found" {
		t.Fatalf("detail not parsed: %v", err)
	}
	if IsTransient(err) {
		t.Fatalf("404 should not be transient")
	}
}

func TestValidationDetailList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"msg":"field required"},{"msg":"bad offset"}]}`)
	})
	_, err := client.CreateThread(context.Background(), types.ThreadCreate{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "field required; bad offset" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	err := client.DeleteThread(context.Background(), "t1")
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("status not preserved: %v", err)
	}
}

func TestConnectionFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(url, Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.RootThreads(context.Background()); !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestEmptyIDRejected(t *testing.T) {
	client, err := NewClient("http://localhost:1", Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.DeleteThread(context.Background(), " "); !errors.Is(err, errNoID) {
		t.Fatalf("expected errNoID, got %v", err)
	}
}

func TestUpdateThreadPatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/threads/t1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"id":"t1","root_id":"t1","depth":0,"title":"Renamed"}`)
	})
	title := "Renamed"
	thread, err := client.UpdateThread(context.Background(), "t1", types.ThreadUpdate{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if thread.TitleOr("") != "Renamed" {
		t.Fatalf("title: got %q", thread.TitleOr(""))
	}
}
