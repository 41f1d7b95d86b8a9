package session

import (
	"context"

	"github.com/adamavenir/tangent/internal/api"
	"github.com/adamavenir/tangent/internal/tree"
	"github.com/adamavenir/tangent/internal/types"
)

// LoadCachedRoots fills the root list from the local cache.
func (s *Session) LoadCachedRoots() []types.Thread {
	if s.store == nil {
		return nil
	}
	cached, err := s.store.CachedRoots()
	if err != nil {
		s.logger.Warn("read cached roots failed", "error", err)
		return nil
	}
	if len(s.roots.Threads()) == 0 {
		s.roots.Replace(cached)
	}
	return cached
}

// RefreshRoots reloads the root list from the server.
func (s *Session) RefreshRoots(ctx context.Context) ([]types.Thread, error) {
	threads, err := s.backend.RootThreads(ctx)
	if err != nil {
		return nil, err
	}
	s.roots.Replace(threads)
	s.tree.PutAll(threads)
	if s.store != nil {
		if err := s.store.CacheRoots(s.roots.Threads()); err != nil {
			s.logger.Warn("cache roots failed", "error", err)
		}
	}
	return s.roots.Threads(), nil
}

// OpenThread makes id the main view. Any overlays are closed and polling for
// the previous main thread stops.
func (s *Session) OpenThread(ctx context.Context, id string) (types.ThreadMessages, error) {
	if id == "" {
		return types.ThreadMessages{}, ErrNoThread
	}
	if s.overlay.Depth() > 0 {
		if err := s.CloseOverlay(ctx); err != nil {
			s.logger.Warn("close overlays failed", "error", err)
		}
	}

	s.mu.Lock()
	prev := s.current
	s.current = id
	s.mu.Unlock()
	if prev != "" && prev != id {
		s.rec.Cancel(prev)
	}

	resp, err := s.rec.Reload(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			s.forgetLocal(id)
			s.mu.Lock()
			if s.current == id {
				s.current = ""
			}
			s.mu.Unlock()
		}
		return types.ThreadMessages{}, err
	}
	s.ensureAncestors(ctx, resp.ThreadInfo)
	return resp, nil
}

// Home leaves every view. The next message starts a new thread.
func (s *Session) Home(ctx context.Context) error {
	var err error
	if s.overlay.Depth() > 0 {
		err = s.CloseOverlay(ctx)
	}
	s.mu.Lock()
	prev := s.current
	s.current = ""
	s.mu.Unlock()
	if prev != "" {
		s.rec.Cancel(prev)
	}
	return err
}

// Refresh reloads a thread unless a reply is pending for it.
func (s *Session) Refresh(ctx context.Context, id string) error {
	return s.rec.Refresh(ctx, id)
}

// ensureAncestors fetches unknown parents so breadcrumbs can be drawn.
// Missing ancestors are skipped.
func (s *Session) ensureAncestors(ctx context.Context, thread types.Thread) {
	current := thread
	for steps := 0; steps <= current.Depth && steps < 64; steps++ {
		parentID := current.ParentID()
		if parentID == "" {
			return
		}
		parent, ok := s.tree.Get(parentID)
		if !ok {
			fetched, err := s.backend.GetThread(ctx, parentID)
			if err != nil {
				s.logger.Debug("ancestor unavailable", "thread_id", parentID, "error", err)
				return
			}
			s.tree.Put(fetched)
			parent = fetched
		}
		current = parent
	}
}

// Navigator describes where a thread sits in its tree.
type Navigator struct {
	Thread   types.Thread
	Parent   *types.Thread
	Root     *types.Thread
	Path     []types.Thread
	Children []types.Thread
}

// Navigate loads the parent, root and children of id. Missing pieces are
// left empty.
func (s *Session) Navigate(ctx context.Context, id string) (Navigator, error) {
	thread, ok := s.Thread(id)
	if !ok {
		fetched, err := s.backend.GetThread(ctx, id)
		if err != nil {
			return Navigator{}, err
		}
		s.tree.Put(fetched)
		thread = fetched
	}
	s.ensureAncestors(ctx, thread)

	nav := Navigator{Thread: thread, Path: s.tree.Path(id)}
	if parent, ok := s.tree.Get(thread.ParentID()); ok {
		nav.Parent = &parent
	}
	if !thread.IsRoot() {
		if root, ok := s.tree.RootOf(id); ok {
			nav.Root = &root
		}
	}

	children, err := s.backend.Children(ctx, id)
	switch {
	case err == nil:
		s.tree.PutAll(children)
		nav.Children = children
	case api.IsNotFound(err):
	default:
		s.logger.Debug("children unavailable", "thread_id", id, "error", err)
		nav.Children = s.tree.Children(id)
	}
	return nav, nil
}

// ForkPoint returns the index of the last inherited message in a fork, or
// -1 when it cannot be determined.
func (s *Session) ForkPoint(ctx context.Context, id string) int {
	thread, ok := s.Thread(id)
	if !ok || thread.Kind() != types.ThreadTypeFork {
		return -1
	}
	forkMessages, known := s.rec.Messages(id)
	if !known {
		return -1
	}
	parentMessages, known := s.rec.Messages(thread.ParentID())
	if !known {
		resp, err := s.backend.ListMessages(ctx, thread.ParentID())
		if err != nil {
			s.logger.Debug("fork parent unavailable", "thread_id", thread.ParentID(), "error", err)
			return -1
		}
		parentMessages = resp.Messages
	}
	return tree.ForkPointIndex(thread, forkMessages, parentMessages)
}
