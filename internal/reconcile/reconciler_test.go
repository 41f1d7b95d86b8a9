package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/adamavenir/tangent/internal/types"
)

type fakeBackend struct {
	mu        sync.Mutex
	sendErr   error
	sendReply types.Message
	lists     []types.ThreadMessages
	listErr   error
	listCalls int
	sent      []types.MessageCreate
}

func (f *fakeBackend) ListMessages(ctx context.Context, threadID string) (types.ThreadMessages, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return types.ThreadMessages{}, f.listErr
	}
	if len(f.lists) == 0 {
		return types.ThreadMessages{ThreadInfo: types.Thread{ID: threadID}}, nil
	}
	resp := f.lists[0]
	if len(f.lists) > 1 {
		f.lists = f.lists[1:]
	}
	return resp, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, threadID string, req types.MessageCreate) (types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	if f.sendErr != nil {
		return types.Message{}, f.sendErr
	}
	reply := f.sendReply
	if reply.ID == "" {
		reply = types.Message{ID: "m-user", ThreadID: threadID, Role: types.RoleUser, Content: req.Content}
	}
	return reply, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func msg(id string, role types.Role, seq int, content string) types.Message {
	return types.Message{ID: id, ThreadID: "t1", Role: role, Sequence: seq, Content: content}
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", types.TempIDPrefix, n)
	}
}

func waitTicket(t *testing.T, ticket *Ticket) (State, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := ticket.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ticket did not resolve")
	}
	return state, err
}

func TestSendFreshThreadConfirms(t *testing.T) {
	backend := &fakeBackend{
		lists: []types.ThreadMessages{
			{ThreadInfo: types.Thread{ID: "t1"}, Messages: []types.Message{msg("m1", types.RoleUser, 1, "Hello")}},
			{ThreadInfo: types.Thread{ID: "t1"}, Messages: []types.Message{
				msg("m1", types.RoleUser, 1, "Hello"),
				msg("m2", types.RoleAssistant, 2, "Hi there"),
			}},
		},
	}
	var (
		mu      sync.Mutex
		updates []State
	)
	rec := New(backend, Options{
		Interval: time.Millisecond,
		NewID:    counter(),
		OnUpdate: func(u Update) {
			mu.Lock()
			updates = append(updates, u.State)
			mu.Unlock()
		},
	})
	defer rec.Close()
	rec.Set("t1", nil, nil)

	ticket, err := rec.Send(context.Background(), "t1", "Hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	state, err := waitTicket(t, ticket)
	if err != nil || state != StateConfirmed {
		t.Fatalf("ticket: got %v, %v want confirmed", state, err)
	}

	messages, known := rec.Messages("t1")
	if !known || len(messages) != 2 {
		t.Fatalf("messages: got %+v", messages)
	}
	for _, m := range messages {
		if m.IsTemp() || m.IsLoading {
			t.Fatalf("temporary message survived confirmation: %+v", m)
		}
	}
	if err := types.CheckSequence(messages); err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if rec.State("t1") != StateConfirmed {
		t.Fatalf("state: got %v", rec.State("t1"))
	}
	if !backend.sent[0].Background {
		t.Fatalf("send should use background mode")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) < 2 || updates[len(updates)-1] != StateConfirmed {
		t.Fatalf("updates: got %v", updates)
	}
}

func TestSendAppendsOptimisticMessages(t *testing.T) {
	backend := &fakeBackend{}
	rec := New(backend, Options{Interval: time.Hour, NewID: counter()})
	defer rec.Close()
	rec.Set("t1", nil, []types.Message{
		msg("m1", types.RoleUser, 1, "Hi"),
		msg("m2", types.RoleAssistant, 2, "Hello"),
	})

	if _, err := rec.Send(context.Background(), "t1", "Tell me more"); err != nil {
		t.Fatalf("send: %v", err)
	}
	messages, _ := rec.Messages("t1")
	if len(messages) != 4 {
		t.Fatalf("messages: got %d want 4", len(messages))
	}
	user, placeholder := messages[2], messages[3]
	if user.Sequence != 3 || user.Role != types.RoleUser || !user.IsTemp() {
		t.Fatalf("user message: %+v", user)
	}
	if placeholder.Sequence != 4 || !placeholder.IsLoading || placeholder.Role != types.RoleAssistant {
		t.Fatalf("placeholder: %+v", placeholder)
	}
	if rec.State("t1") != StateSent {
		t.Fatalf("state: got %v", rec.State("t1"))
	}
}

func TestSendFailureKeepsUserMessage(t *testing.T) {
	backend := &fakeBackend{sendErr: errors.New("connection refused")}
	rec := New(backend, Options{Interval: time.Millisecond, NewID: counter()})
	defer rec.Close()

	ticket, err := rec.Send(context.Background(), "t1", "Hello")
	var sendErr *SendError
	if !errors.As(err, &sendErr) || sendErr.Content != "Hello" {
		t.Fatalf("expected SendError with content, got %v", err)
	}
	if state, _ := waitTicket(t, ticket); state != StateFailed {
		t.Fatalf("ticket: got %v want failed", state)
	}

	messages, _ := rec.Messages("t1")
	if len(messages) != 1 || messages[0].Role != types.RoleUser || messages[0].Content != "Hello" {
		t.Fatalf("messages after failure: %+v", messages)
	}
	if backend.calls() != 0 {
		t.Fatalf("failed send should not poll")
	}
}

func TestRetryAfterFailureConfirms(t *testing.T) {
	backend := &fakeBackend{sendErr: errors.New("connection refused")}
	rec := New(backend, Options{Interval: time.Millisecond, MaxAttempts: 20, NewID: counter()})
	defer rec.Close()
	seed := []types.Message{
		msg("m1", types.RoleUser, 1, "Hi"),
		msg("m2", types.RoleAssistant, 2, "Hello"),
	}
	rec.Set("t1", nil, seed)

	if _, err := rec.Send(context.Background(), "t1", "Tell me more"); err == nil {
		t.Fatalf("expected first send to fail")
	}

	backend.mu.Lock()
	backend.sendErr = nil
	backend.lists = []types.ThreadMessages{{ThreadInfo: types.Thread{ID: "t1"}, Messages: append(seed,
		msg("m3", types.RoleUser, 3, "Tell me more"),
		msg("m4", types.RoleAssistant, 4, "Sure"),
	)}}
	backend.mu.Unlock()

	ticket, err := rec.Send(context.Background(), "t1", "Tell me more")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	messages, _ := rec.Messages("t1")
	if len(messages) != 4 || messages[2].Sequence != 3 || messages[3].Sequence != 4 {
		t.Fatalf("retry should replace the failed message: %+v", messages)
	}

	if state, err := waitTicket(t, ticket); err != nil || state != StateConfirmed {
		t.Fatalf("retry ticket: got %v, %v want confirmed", state, err)
	}
	if calls := backend.calls(); calls != 1 {
		t.Fatalf("polls: got %d want 1", calls)
	}
	messages, _ = rec.Messages("t1")
	if err := types.CheckSequence(messages); err != nil || len(messages) != 4 {
		t.Fatalf("messages after retry: %v %+v", err, messages)
	}
}

func TestPollTimeoutReloads(t *testing.T) {
	backend := &fakeBackend{
		lists: []types.ThreadMessages{
			{ThreadInfo: types.Thread{ID: "t1"}, Messages: []types.Message{msg("m1", types.RoleUser, 1, "Hello")}},
		},
	}
	rec := New(backend, Options{Interval: time.Millisecond, MaxAttempts: 3, NewID: counter()})
	defer rec.Close()

	ticket, err := rec.Send(context.Background(), "t1", "Hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	state, err := waitTicket(t, ticket)
	if state != StateTimedOut || err != nil {
		t.Fatalf("ticket: got %v, %v want timed out", state, err)
	}
	if got := backend.calls(); got != 4 {
		t.Fatalf("list calls: got %d want 4", got)
	}
	messages, _ := rec.Messages("t1")
	if len(messages) != 1 || messages[0].ID != "m1" {
		t.Fatalf("timeout should replace with server list: %+v", messages)
	}
}

func TestPollErrorsAreRetried(t *testing.T) {
	backend := &fakeBackend{listErr: errors.New("boom")}
	rec := New(backend, Options{Interval: time.Millisecond, MaxAttempts: 2, NewID: counter()})
	defer rec.Close()

	ticket, err := rec.Send(context.Background(), "t1", "Hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	state, err := waitTicket(t, ticket)
	if state != StateTimedOut || err == nil {
		t.Fatalf("ticket: got %v, %v", state, err)
	}
	messages, _ := rec.Messages("t1")
	if len(messages) != 2 || !messages[1].IsLoading {
		t.Fatalf("failed reload should leave the optimistic list: %+v", messages)
	}
}

func TestCancelStopsPolling(t *testing.T) {
	backend := &fakeBackend{}
	rec := New(backend, Options{Interval: time.Hour, NewID: counter()})
	defer rec.Close()

	ticket, err := rec.Send(context.Background(), "t1", "Hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	rec.Cancel("t1")
	if state, _ := waitTicket(t, ticket); state != StateCancelled {
		t.Fatalf("ticket: got %v want cancelled", state)
	}
	if rec.State("t1") != StateCancelled {
		t.Fatalf("state: got %v", rec.State("t1"))
	}
}

func TestNewSendSupersedesPreviousLoop(t *testing.T) {
	backend := &fakeBackend{}
	rec := New(backend, Options{Interval: time.Hour, NewID: counter()})
	defer rec.Close()

	first, err := rec.Send(context.Background(), "t1", "one")
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := rec.Send(context.Background(), "t1", "two"); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if state, _ := waitTicket(t, first); state != StateCancelled {
		t.Fatalf("first ticket: got %v want cancelled", state)
	}

	messages, _ := rec.Messages("t1")
	if len(messages) != 3 {
		t.Fatalf("messages: got %+v", messages)
	}
	loading := 0
	for _, m := range messages {
		if m.IsLoading {
			loading++
		}
	}
	if loading != 1 || messages[1].Content != "two" || messages[1].Sequence != 2 {
		t.Fatalf("stale placeholder not dropped: %+v", messages)
	}
}

func TestReloadCancelsPollingAndReplaces(t *testing.T) {
	backend := &fakeBackend{
		lists: []types.ThreadMessages{
			{ThreadInfo: types.Thread{ID: "t1"}, Messages: []types.Message{msg("m1", types.RoleUser, 1, "Hello")}},
		},
	}
	rec := New(backend, Options{Interval: time.Hour, NewID: counter()})
	defer rec.Close()

	ticket, err := rec.Send(context.Background(), "t1", "Hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := rec.Refresh(context.Background(), "t1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if backend.calls() != 0 {
		t.Fatalf("refresh should defer to the polling task")
	}

	if _, err := rec.Reload(context.Background(), "t1"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if state, _ := waitTicket(t, ticket); state != StateCancelled {
		t.Fatalf("ticket: got %v want cancelled", state)
	}
	messages, _ := rec.Messages("t1")
	if len(messages) != 1 || messages[0].ID != "m1" {
		t.Fatalf("reload: got %+v", messages)
	}
}

func TestSynchronousServerConfirmsImmediately(t *testing.T) {
	backend := &fakeBackend{
		sendReply: msg("m2", types.RoleAssistant, 2, "Hi"),
		lists: []types.ThreadMessages{
			{ThreadInfo: types.Thread{ID: "t1"}, Messages: []types.Message{
				msg("m1", types.RoleUser, 1, "Hello"),
				msg("m2", types.RoleAssistant, 2, "Hi"),
			}},
		},
	}
	rec := New(backend, Options{Interval: time.Hour, NewID: counter()})
	defer rec.Close()

	ticket, err := rec.Send(context.Background(), "t1", "Hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if state, _ := waitTicket(t, ticket); state != StateConfirmed {
		t.Fatalf("ticket: got %v want confirmed", state)
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	rec := New(&fakeBackend{}, Options{})
	defer rec.Close()
	if _, err := rec.Send(context.Background(), "t1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestCloseCancelsEveryLoop(t *testing.T) {
	rec := New(&fakeBackend{}, Options{Interval: time.Hour, NewID: counter()})
	a, _ := rec.Send(context.Background(), "a", "x")
	b, _ := rec.Send(context.Background(), "b", "y")
	rec.Close()
	for _, ticket := range []*Ticket{a, b} {
		select {
		case <-ticket.Done():
		default:
			t.Fatalf("ticket %s still pending after close", ticket.ThreadID)
		}
	}
}

func TestConfirmed(t *testing.T) {
	cases := []struct {
		name     string
		messages []types.Message
		userSeq  int
		want     bool
	}{
		{"no reply", []types.Message{msg("m1", types.RoleUser, 1, "")}, 1, false},
		{"older reply", []types.Message{msg("m2", types.RoleAssistant, 2, "")}, 3, false},
		{"newer reply", []types.Message{msg("m4", types.RoleAssistant, 4, "")}, 3, true},
		{"placeholder", []types.Message{{ID: "temp-1", Role: types.RoleAssistant, Sequence: 4}}, 3, false},
	}
	for _, tc := range cases {
		if got := Confirmed(tc.messages, tc.userSeq); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}
