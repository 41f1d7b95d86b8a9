package reconcile

import (
	"context"
	"sync"
)

// State is where a thread is in the send/confirm cycle.
type State int

const (
	StateIdle State = iota
	StateSent
	StateConfirmed
	StateTimedOut
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateSent:
		return "sent"
	case StateConfirmed:
		return "confirmed"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Terminal reports whether the state ends a send.
func (s State) Terminal() bool {
	return s != StateIdle && s != StateSent
}

// Ticket tracks one send until it is confirmed, times out, fails or is
// superseded.
type Ticket struct {
	ThreadID string

	done  chan struct{}
	once  sync.Once
	state State
	err   error
}

func newTicket(threadID string) *Ticket {
	return &Ticket{ThreadID: threadID, done: make(chan struct{})}
}

func (t *Ticket) finish(state State, err error) {
	t.once.Do(func() {
		t.state = state
		t.err = err
		close(t.done)
	})
}

// Done is closed once the ticket has a terminal state.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the ticket resolves or ctx ends.
func (t *Ticket) Wait(ctx context.Context) (State, error) {
	select {
	case <-ctx.Done():
		return StateSent, ctx.Err()
	case <-t.done:
		return t.state, t.err
	}
}
