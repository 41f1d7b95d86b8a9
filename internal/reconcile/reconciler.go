package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/types"
)

const (
	DefaultInterval    = time.Second
	DefaultMaxAttempts = 60
)

// ErrEmptyMessage is returned for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// Backend is the slice of the server API the reconciler needs.
type Backend interface {
	ListMessages(ctx context.Context, threadID string) (types.ThreadMessages, error)
	SendMessage(ctx context.Context, threadID string, req types.MessageCreate) (types.Message, error)
}

// Update describes a change to one thread's local list.
type Update struct {
	ThreadID string
	State    State
	Thread   *types.Thread
	Err      error
}

// Options configure a Reconciler.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	Provider    string
	Model       string
	Logger      *slog.Logger
	// OnUpdate is called outside any lock after every local change.
	OnUpdate func(Update)
	// NewID mints temporary ids; defaults to core.NewTempID.
	NewID func() string
}

// SendError is returned when the server rejected or never received a send.
// Content is the text the user typed, for restoring the input.
type SendError struct {
	ThreadID string
	Content  string
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.ThreadID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

type threadState struct {
	messages []types.Message
	info     *types.Thread
	known    bool
	state    State
	gen      uint64
	cancel   context.CancelFunc
	// failed is the temp id of a user message the server never received.
	failed   string
}

// Reconciler owns the local message list of every open thread and the
// polling task that folds server replies back into it. A thread has at most
// one polling task; results from a superseded task are discarded.
type Reconciler struct {
	backend Backend
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	threads map[string]*threadState
	closed  bool

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New returns a reconciler backed by backend.
func New(backend Backend, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.NewID == nil {
		opts.NewID = core.NewTempID
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base, stop := context.WithCancel(context.Background())
	return &Reconciler{
		backend: backend,
		opts:    opts,
		logger:  logger.With("component", "reconcile"),
		threads: make(map[string]*threadState),
		base:    base,
		stop:    stop,
	}
}

func (r *Reconciler) threadLocked(id string) *threadState {
	th, ok := r.threads[id]
	if !ok {
		th = &threadState{}
		r.threads[id] = th
	}
	return th
}

// cancelLocked stops the thread's polling task and invalidates any result
// still in flight.
func (r *Reconciler) cancelLocked(th *threadState) {
	if th.cancel != nil {
		th.cancel()
		th.cancel = nil
	}
	th.gen++
	if th.state == StateSent {
		th.state = StateCancelled
	}
}

func (r *Reconciler) emit(update Update) {
	if r.opts.OnUpdate != nil {
		r.opts.OnUpdate(update)
	}
}

// Send appends the user message and a loading placeholder, posts the message
// in background mode, and starts polling for the reply. The returned ticket
// resolves when the thread reaches a terminal state.
func (r *Reconciler) Send(ctx context.Context, threadID, content string) (*Ticket, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	r.mu.Lock()
	th := r.threadLocked(threadID)
	r.cancelLocked(th)
	gen := th.gen

	// The retry replaces a failed message, so numbering follows the server's.
	failed := th.failed
	th.failed = ""
	messages := slices.DeleteFunc(slices.Clone(th.messages), func(m types.Message) bool {
		return m.IsLoading || (failed != "" && m.ID == failed)
	})
	seq := len(messages) + 1
	now := types.NewTimestamp(time.Now())
	user := types.Message{
		ID:        r.opts.NewID(),
		ThreadID:  threadID,
		Role:      types.RoleUser,
		Content:   content,
		Sequence:  seq,
		Timestamp: now,
	}
	placeholder := types.Message{
		ID:        r.opts.NewID(),
		ThreadID:  threadID,
		Role:      types.RoleAssistant,
		Sequence:  seq + 1,
		Timestamp: now,
		IsLoading: true,
	}
	th.messages = append(messages, user, placeholder)
	th.known = true
	th.state = StateSent
	r.mu.Unlock()

	ticket := newTicket(threadID)
	r.emit(Update{ThreadID: threadID, State: StateSent})

	req := types.MessageCreate{Content: content, Background: true}
	if r.opts.Provider != "" {
		req.Provider = &r.opts.Provider
	}
	if r.opts.Model != "" {
		req.Model = &r.opts.Model
	}
	sent, err := r.backend.SendMessage(ctx, threadID, req)
	if err != nil {
		r.mu.Lock()
		current := th.gen == gen
		if current {
			th.messages = slices.DeleteFunc(th.messages, func(m types.Message) bool {
				return m.ID == placeholder.ID
			})
			th.state = StateFailed
			th.failed = user.ID
		}
		r.mu.Unlock()
		r.logger.Warn("send failed", "thread_id", threadID, "error", err)
		sendErr := &SendError{ThreadID: threadID, Content: content, Err: err}
		if current {
			ticket.finish(StateFailed, sendErr)
			r.emit(Update{ThreadID: threadID, State: StateFailed, Err: sendErr})
		} else {
			ticket.finish(StateCancelled, nil)
		}
		return ticket, sendErr
	}

	loopCtx, cancel := context.WithCancel(r.base)
	r.mu.Lock()
	if th.gen != gen || r.closed {
		r.mu.Unlock()
		cancel()
		ticket.finish(StateCancelled, nil)
		return ticket, nil
	}
	th.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	// A server that answers synchronously has the reply ready already.
	immediate := sent.Role == types.RoleAssistant
	go r.poll(loopCtx, threadID, gen, seq, immediate, ticket)
	return ticket, nil
}

func (r *Reconciler) poll(ctx context.Context, threadID string, gen uint64, userSeq int, immediate bool, ticket *Ticket) {
	defer r.wg.Done()
	logger := r.logger.With("thread_id", threadID)

	delay := r.opts.Interval
	if immediate {
		delay = 0
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			ticket.finish(StateCancelled, nil)
			return
		case <-timer.C:
		}

		resp, err := r.backend.ListMessages(ctx, threadID)
		if err != nil {
			if ctx.Err() != nil {
				ticket.finish(StateCancelled, nil)
				return
			}
			logger.Debug("poll failed", "attempt", attempt, "error", err)
		} else if Confirmed(resp.Messages, userSeq) {
			if r.apply(threadID, gen, resp, StateConfirmed) {
				ticket.finish(StateConfirmed, nil)
			} else {
				ticket.finish(StateCancelled, nil)
			}
			return
		}
		timer.Reset(r.opts.Interval)
	}

	logger.Info("reply not confirmed, reloading", "attempts", r.opts.MaxAttempts)
	resp, err := r.backend.ListMessages(ctx, threadID)
	if err != nil {
		if ctx.Err() != nil {
			ticket.finish(StateCancelled, nil)
			return
		}
		logger.Warn("reload after poll timeout failed", "error", err)
		r.mu.Lock()
		th := r.threads[threadID]
		current := th != nil && th.gen == gen
		if current {
			th.state = StateTimedOut
			if th.cancel != nil {
				th.cancel()
				th.cancel = nil
			}
		}
		r.mu.Unlock()
		if current {
			r.emit(Update{ThreadID: threadID, State: StateTimedOut, Err: err})
		}
		ticket.finish(StateTimedOut, err)
		return
	}
	if !r.apply(threadID, gen, resp, StateTimedOut) {
		ticket.finish(StateCancelled, nil)
		return
	}
	ticket.finish(StateTimedOut, nil)
}

// apply replaces the thread's list wholesale with server truth, unless a
// newer task or reload has taken over.
func (r *Reconciler) apply(threadID string, gen uint64, resp types.ThreadMessages, state State) bool {
	r.mu.Lock()
	th := r.threads[threadID]
	if th == nil || th.gen != gen {
		r.mu.Unlock()
		return false
	}
	th.messages = slices.Clone(resp.Messages)
	th.failed = ""
	info := resp.ThreadInfo
	th.info = &info
	th.known = true
	th.state = state
	if th.cancel != nil {
		th.cancel()
		th.cancel = nil
	}
	r.mu.Unlock()

	if seqErr := types.CheckSequence(resp.Messages); seqErr != nil {
		r.logger.Warn("server returned unordered messages", "thread_id", threadID, "error", seqErr)
	}
	r.emit(Update{ThreadID: threadID, State: state, Thread: &info})
	return true
}

// Confirmed reports whether the server list holds an assistant reply newer
// than the user message at userSeq.
func Confirmed(messages []types.Message, userSeq int) bool {
	for _, msg := range messages {
		if msg.Role == types.RoleAssistant && !msg.IsTemp() && msg.Sequence > userSeq {
			return true
		}
	}
	return false
}

// Reload cancels any polling for the thread and replaces its list with the
// server's.
func (r *Reconciler) Reload(ctx context.Context, threadID string) (types.ThreadMessages, error) {
	r.mu.Lock()
	th := r.threadLocked(threadID)
	r.cancelLocked(th)
	gen := th.gen
	r.mu.Unlock()

	resp, err := r.backend.ListMessages(ctx, threadID)
	if err != nil {
		return types.ThreadMessages{}, err
	}
	r.apply(threadID, gen, resp, StateIdle)
	return resp, nil
}

// Refresh reloads the thread unless a send is awaiting its reply; the
// polling task will pick up the same changes when it confirms.
func (r *Reconciler) Refresh(ctx context.Context, threadID string) error {
	if r.State(threadID) == StateSent {
		return nil
	}
	_, err := r.Reload(ctx, threadID)
	return err
}

// Set seeds a thread's list, e.g. an empty list for a thread just created.
func (r *Reconciler) Set(threadID string, info *types.Thread, messages []types.Message) {
	r.mu.Lock()
	th := r.threadLocked(threadID)
	r.cancelLocked(th)
	th.messages = slices.Clone(messages)
	th.failed = ""
	th.info = info
	th.known = true
	th.state = StateIdle
	r.mu.Unlock()
	r.emit(Update{ThreadID: threadID, State: StateIdle, Thread: info})
}

// Cancel stops polling for the thread, e.g. when the user navigates away.
func (r *Reconciler) Cancel(threadID string) {
	r.mu.Lock()
	if th, ok := r.threads[threadID]; ok {
		r.cancelLocked(th)
	}
	r.mu.Unlock()
}

// CancelAllExcept stops polling on every thread not in keep.
func (r *Reconciler) CancelAllExcept(keep ...string) {
	r.mu.Lock()
	for id, th := range r.threads {
		if slices.Contains(keep, id) || th.cancel == nil {
			continue
		}
		r.cancelLocked(th)
	}
	r.mu.Unlock()
}

// Forget cancels and drops everything known about the thread.
func (r *Reconciler) Forget(threadID string) {
	r.mu.Lock()
	if th, ok := r.threads[threadID]; ok {
		r.cancelLocked(th)
		delete(r.threads, threadID)
	}
	r.mu.Unlock()
}

// Messages returns a copy of the thread's list and whether it was ever loaded.
func (r *Reconciler) Messages(threadID string) ([]types.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	th, ok := r.threads[threadID]
	if !ok {
		return nil, false
	}
	return slices.Clone(th.messages), th.known
}

// Info returns the thread metadata from the last server response.
func (r *Reconciler) Info(threadID string) (types.Thread, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	th, ok := r.threads[threadID]
	if !ok || th.info == nil {
		return types.Thread{}, false
	}
	return *th.info, true
}

// State returns the reconciliation state of the thread.
func (r *Reconciler) State(threadID string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if th, ok := r.threads[threadID]; ok {
		return th.state
	}
	return StateIdle
}

// Close cancels every polling task and waits for them to exit.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.stop()
	r.wg.Wait()
}
