package overlay

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/adamavenir/tangent/internal/reaper"
	"github.com/adamavenir/tangent/internal/types"
)

var (
	ErrEmptyStack      = errors.New("no overlay is open")
	ErrNoThread        = errors.New("overlay frame needs a thread id or a pending branch")
	ErrAlreadyResolved = errors.New("top overlay already has a thread")
)

// Frame is one open branch view. ThreadID is empty until the first message
// of a pending branch persists it.
type Frame struct {
	ThreadID    string
	Title       string
	Pending     *types.PendingBranch
	InitialText string
}

// IsPending reports whether the frame's thread does not exist on the server yet.
func (f *Frame) IsPending() bool {
	return f.ThreadID == ""
}

// ParentThreadID returns the thread the frame branched from, if known.
func (f *Frame) ParentThreadID() string {
	if f.Pending != nil {
		return f.Pending.ParentThreadID
	}
	return ""
}

// Reaper decides what happens to a frame that is being closed.
type Reaper interface {
	ReapFrame(ctx context.Context, frame *Frame) (reaper.Result, error)
}

// Stack is the push-down stack of open branch views above the main thread.
type Stack struct {
	mu     sync.Mutex
	frames []*Frame
	reaper Reaper
	logger *slog.Logger
}

// NewStack returns an empty stack. reaper may be nil, in which case frames
// are popped without any cleanup.
func NewStack(r Reaper, logger *slog.Logger) *Stack {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stack{reaper: r, logger: logger.With("component", "overlay")}
}

// Open pushes a frame for an existing thread or a pending branch.
func (s *Stack) Open(threadID, title string, pending *types.PendingBranch) (*Frame, error) {
	if threadID == "" && pending == nil {
		return nil, ErrNoThread
	}
	frame := &Frame{ThreadID: threadID, Title: title, Pending: pending}
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
	return frame, nil
}

// Top returns the active frame or nil.
func (s *Stack) Top() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Depth returns the number of open frames.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Frames returns the frames bottom to top.
func (s *Stack) Frames() []*Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// ResolvePending records the thread created for the top frame's pending
// branch. The frame is updated in place.
func (s *Stack) ResolvePending(threadID, title string) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil, ErrEmptyStack
	}
	top := s.frames[len(s.frames)-1]
	if top.ThreadID != "" {
		return nil, ErrAlreadyResolved
	}
	top.ThreadID = threadID
	if title != "" {
		top.Title = title
	}
	return top, nil
}

// Back leaves the top frame, cleaning it up if it is empty. Leaving the last
// frame closes the overlay.
func (s *Stack) Back(ctx context.Context) error {
	s.mu.Lock()
	depth := len(s.frames)
	if depth == 0 {
		s.mu.Unlock()
		return ErrEmptyStack
	}
	top := s.frames[depth-1]
	s.mu.Unlock()

	if depth == 1 {
		return s.Close(ctx)
	}

	_, err := s.reap(ctx, top)
	s.mu.Lock()
	if n := len(s.frames); n > 0 && s.frames[n-1] == top {
		s.frames = s.frames[:n-1]
	}
	s.mu.Unlock()
	return err
}

// Close cleans up frames from the top down, stopping at the first one that
// is kept, then clears the stack.
func (s *Stack) Close(ctx context.Context) error {
	frames := s.Frames()
	if len(frames) == 0 {
		return nil
	}
	var errs []error
	for i := len(frames) - 1; i >= 0; i-- {
		result, err := s.reap(ctx, frames[i])
		if err != nil {
			errs = append(errs, err)
		}
		if result == reaper.Kept {
			break
		}
	}
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
	return errors.Join(errs...)
}

// Reset drops every frame without cleanup.
func (s *Stack) Reset() {
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
}

func (s *Stack) reap(ctx context.Context, frame *Frame) (reaper.Result, error) {
	if s.reaper == nil {
		return reaper.Kept, nil
	}
	result, err := s.reaper.ReapFrame(ctx, frame)
	if err != nil {
		s.logger.Warn("reap failed", "thread_id", frame.ThreadID, "error", err)
		return result, err
	}
	s.logger.Debug("left frame", "thread_id", frame.ThreadID, "result", result.String())
	return result, nil
}
