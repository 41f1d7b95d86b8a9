package reaper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adamavenir/tangent/internal/notify"
	"github.com/adamavenir/tangent/internal/types"
)

// Result says what happened to a candidate.
type Result int

const (
	// Kept means the thread has user content and stays.
	Kept Result = iota
	// Dropped means a pending branch was discarded without touching the server.
	Dropped
	// Deleted means the server deleted the empty thread.
	Deleted
)

func (r Result) String() string {
	switch r {
	case Dropped:
		return "dropped"
	case Deleted:
		return "deleted"
	default:
		return "kept"
	}
}

// Candidate is a thread being left behind.
type Candidate struct {
	// ThreadID is empty for a branch that was never persisted.
	ThreadID       string
	ParentThreadID string
	Pending        bool
	// Known is false when the thread's messages were never loaded; such a
	// thread is never deleted.
	Known    bool
	Messages []types.Message
	// Sending is true while a send to the thread awaits its reply. Only then
	// does an optimistic user message count as content.
	Sending bool
}

// ShouldDelete reports whether the candidate exists and nobody ever wrote in it.
func ShouldDelete(c Candidate) bool {
	exists := c.Pending || c.ThreadID != ""
	if !exists {
		return false
	}
	if c.ThreadID != "" && !c.Known {
		return false
	}
	return !types.HasUserMessage(c.Messages, c.Sending)
}

// Deleter removes a thread on the server.
type Deleter interface {
	DeleteThread(ctx context.Context, threadID string) error
}

// Reaper removes branches the user opened and abandoned without writing.
type Reaper struct {
	deleter Deleter
	bus     *notify.Bus
	logger  *slog.Logger
}

// New returns a reaper. bus may be nil.
func New(deleter Deleter, bus *notify.Bus, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reaper{deleter: deleter, bus: bus, logger: logger.With("component", "reaper")}
}

// Reap deletes the candidate if it is empty.
func (r *Reaper) Reap(ctx context.Context, c Candidate) (Result, error) {
	if !ShouldDelete(c) {
		return Kept, nil
	}
	if c.ThreadID == "" {
		r.logger.Debug("dropped pending branch", "parent_thread_id", c.ParentThreadID)
		return Dropped, nil
	}
	if err := r.Delete(ctx, c.ThreadID, c.ParentThreadID); err != nil {
		return Kept, err
	}
	return Deleted, nil
}

// Delete removes threadID on the server and, only on success, tells
// listeners to refresh the parent's branch counts.
func (r *Reaper) Delete(ctx context.Context, threadID, parentID string) error {
	if err := r.deleter.DeleteThread(ctx, threadID); err != nil {
		r.logger.Warn("delete failed", "thread_id", threadID, "error", err)
		return fmt.Errorf("delete thread %s: %w", threadID, err)
	}
	r.logger.Info("deleted thread", "thread_id", threadID, "parent_thread_id", parentID)
	if r.bus != nil {
		r.bus.Publish(notify.ThreadDeleted, threadID)
		if parentID != "" {
			r.bus.Publish(notify.ThreadUpdated, parentID)
		}
	}
	return nil
}
