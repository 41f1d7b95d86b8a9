package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/adamavenir/tangent/internal/notify"
	"github.com/adamavenir/tangent/internal/overlay"
	"github.com/adamavenir/tangent/internal/reaper"
	"github.com/adamavenir/tangent/internal/reconcile"
	"github.com/adamavenir/tangent/internal/tree"
	"github.com/adamavenir/tangent/internal/types"
)

// Backend is the server API the session drives.
type Backend interface {
	CreateThread(ctx context.Context, req types.ThreadCreate) (types.Thread, error)
	GetThread(ctx context.Context, id string) (types.Thread, error)
	RootThreads(ctx context.Context) ([]types.Thread, error)
	Children(ctx context.Context, id string) ([]types.Thread, error)
	UpdateThread(ctx context.Context, id string, req types.ThreadUpdate) (types.Thread, error)
	DeleteThread(ctx context.Context, id string) error
	ListMessages(ctx context.Context, id string) (types.ThreadMessages, error)
	SendMessage(ctx context.Context, id string, req types.MessageCreate) (types.Message, error)
}

// Store keeps drafts and the cached root list between runs.
type Store interface {
	SaveDraft(threadKey, content string) error
	Draft(threadKey string) (string, error)
	ClearDraft(threadKey string) error
	CachedRoots() ([]types.Thread, error)
	CacheRoots(threads []types.Thread) error
	CacheRoot(thread types.Thread) error
	ForgetRoot(id string) error
}

// Options configure a Session.
type Options struct {
	Store        Store
	Bus          *notify.Bus
	Logger       *slog.Logger
	PollInterval time.Duration
	PollAttempts int
	Provider     string
	Model        string
}

// Session is the client-side state of one user: the thread tree, the root
// list, the main view, the overlay stack and every message list.
type Session struct {
	backend Backend
	store   Store
	bus     *notify.Bus
	logger  *slog.Logger

	tree    *tree.Tree
	roots   *tree.RootList
	rec     *reconcile.Reconciler
	reaper  *reaper.Reaper
	overlay *overlay.Stack

	mu      sync.Mutex
	current string
}

// New wires a session over backend.
func New(backend Backend, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bus := opts.Bus
	if bus == nil {
		bus = notify.NewBus(logger)
	}
	s := &Session{
		backend: backend,
		store:   opts.Store,
		bus:     bus,
		logger:  logger.With("component", "session"),
		tree:    tree.New(),
		roots:   tree.NewRootList(),
	}
	s.rec = reconcile.New(backend, reconcile.Options{
		Interval:    opts.PollInterval,
		MaxAttempts: opts.PollAttempts,
		Provider:    opts.Provider,
		Model:       opts.Model,
		Logger:      logger,
		OnUpdate:    s.handleUpdate,
	})
	s.reaper = reaper.New(backend, bus, logger)
	s.overlay = overlay.NewStack(s, logger)
	return s
}

// Bus returns the session's notification bus.
func (s *Session) Bus() *notify.Bus { return s.bus }

// Tree returns the thread arena.
func (s *Session) Tree() *tree.Tree { return s.tree }

// Roots returns the sidebar list.
func (s *Session) Roots() *tree.RootList { return s.roots }

// Overlay returns the branch overlay stack.
func (s *Session) Overlay() *overlay.Stack { return s.overlay }

// CurrentThreadID returns the thread in the main view.
func (s *Session) CurrentThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ActiveThreadID returns the thread input goes to: the top overlay's thread
// (empty while it is pending) or the main thread.
func (s *Session) ActiveThreadID() string {
	if top := s.overlay.Top(); top != nil {
		return top.ThreadID
	}
	return s.CurrentThreadID()
}

// Messages returns the local list of a thread and whether it was loaded.
func (s *Session) Messages(threadID string) ([]types.Message, bool) {
	return s.rec.Messages(threadID)
}

// State returns the reconciliation state of a thread.
func (s *Session) State(threadID string) reconcile.State {
	return s.rec.State(threadID)
}

// Thread returns a known thread, preferring the arena over the last
// message response.
func (s *Session) Thread(threadID string) (types.Thread, bool) {
	if thread, ok := s.tree.Get(threadID); ok {
		return thread, true
	}
	return s.rec.Info(threadID)
}

// Close stops every polling task and closes the bus.
func (s *Session) Close() {
	s.rec.Close()
	s.bus.Close()
}

func (s *Session) handleUpdate(u reconcile.Update) {
	if u.Thread != nil && u.Thread.ID != "" {
		prev, had := s.tree.Get(u.Thread.ID)
		s.tree.Put(*u.Thread)
		if u.Thread.IsRoot() && s.roots.Merge(*u.Thread) {
			s.cacheRoot(*u.Thread)
		}
		if had && titleOf(prev) != titleOf(*u.Thread) {
			s.bus.Publish(notify.ThreadUpdated, u.Thread.ID)
		}
	}
	s.bus.Publish(notify.MessagesChanged, u.ThreadID)
}

// Watch refreshes loaded threads when another part of the client reports a
// change to them, until ctx ends.
func (s *Session) Watch(ctx context.Context) {
	sub := s.bus.Subscribe(notify.BranchCreated, notify.ThreadUpdated)
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if _, known := s.rec.Messages(ev.ThreadID); !known {
				continue
			}
			if err := s.rec.Refresh(ctx, ev.ThreadID); err != nil {
				s.logger.Debug("refresh failed", "thread_id", ev.ThreadID, "error", err)
			}
		}
	}
}

func (s *Session) cacheRoot(thread types.Thread) {
	if s.store == nil {
		return
	}
	if err := s.store.CacheRoot(thread); err != nil {
		s.logger.Warn("cache root failed", "thread_id", thread.ID, "error", err)
	}
}

func titleOf(thread types.Thread) string {
	if thread.Title == nil {
		return ""
	}
	return *thread.Title
}
