package notify

import (
	"log/slog"
	"sync"
)

// Kind identifies what changed.
type Kind int

const (
	// BranchCreated fires on the parent when a new branch or fork persists.
	BranchCreated Kind = iota + 1
	// ThreadUpdated asks listeners to refresh a thread's metadata and counts.
	ThreadUpdated
	// MessagesChanged fires when a thread's local message list changed.
	MessagesChanged
	// ThreadDeleted fires after a successful delete.
	ThreadDeleted
)

func (k Kind) String() string {
	switch k {
	case BranchCreated:
		return "branch_created"
	case ThreadUpdated:
		return "thread_updated"
	case MessagesChanged:
		return "messages_changed"
	case ThreadDeleted:
		return "thread_deleted"
	default:
		return "unknown"
	}
}

// Event carries only a thread id; listeners re-read state they care about.
type Event struct {
	Kind     Kind
	ThreadID string
}

const defaultBuffer = 64

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	closed  bool
	dropped int
	logger  *slog.Logger
}

// NewBus returns an empty bus. logger may be nil.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		logger: logger.With("component", "notify"),
	}
}

// Subscription receives events until Unsubscribe or bus Close.
type Subscription struct {
	bus    *Bus
	kinds  map[Kind]bool
	events chan Event
	once   sync.Once
}

// Subscribe registers a listener for the given kinds, or every kind when
// none are given.
func (b *Bus) Subscribe(kinds ...Kind) *Subscription {
	sub := &Subscription{
		bus:    b,
		events: make(chan Event, defaultBuffer),
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, kind := range kinds {
			sub.kinds[kind] = true
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.once.Do(func() { close(sub.events) })
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Events returns the channel for delivered events.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Unsubscribe stops delivery and closes the events channel.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s)
	s.bus.mu.Unlock()
	s.once.Do(func() { close(s.events) })
}

// Publish delivers an event to every interested subscriber.
func (b *Bus) Publish(kind Kind, threadID string) {
	event := Event{Kind: kind, ThreadID: threadID}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		if sub.kinds != nil && !sub.kinds[kind] {
			continue
		}
		select {
		case sub.events <- event:
		default:
			b.dropped++
			b.logger.Debug("subscriber buffer full, event dropped",
				"kind", kind.String(), "thread_id", threadID, "dropped", b.dropped)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// was not keeping up.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close unsubscribes everyone.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[*Subscription]struct{})
	b.closed = true
	b.mu.Unlock()
	for sub := range subs {
		sub.once.Do(func() { close(sub.events) })
	}
}
