package session

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/notify"
	"github.com/adamavenir/tangent/internal/types"
)

// DeleteThread deletes a thread and its subtree after confirmation. When the
// main view was inside the deleted subtree, next names the root to show
// instead (empty when there is none). Local state only changes after the
// server confirms.
func (s *Session) DeleteThread(ctx context.Context, id string, confirmer Confirmer) (next string, err error) {
	if id == "" {
		return "", ErrNoThread
	}
	thread, known := s.Thread(id)
	label := id
	if known {
		label = core.ThreadTitle(thread)
	}
	if err := confirm(confirmer, fmt.Sprintf("Delete %q and all of its branches?", label)); err != nil {
		return "", err
	}

	current := s.CurrentThreadID()
	affected := current == id || (current != "" && s.tree.IsDescendantOf(current, id))
	if affected {
		next = s.nextRoot(id)
	}

	if err := s.backend.DeleteThread(ctx, id); err != nil {
		s.logger.Warn("delete failed", "thread_id", id, "error", err)
		return "", &ConfirmationError{Action: "delete", ThreadID: id, Err: err}
	}
	s.logger.Info("deleted thread", "thread_id", id)

	parentID := thread.ParentID()
	s.forgetLocal(id)
	if affected {
		s.overlay.Reset()
		s.mu.Lock()
		s.current = ""
		s.mu.Unlock()
	}
	s.bus.Publish(notify.ThreadDeleted, id)
	if parentID != "" {
		s.bus.Publish(notify.ThreadUpdated, parentID)
	}
	return next, nil
}

// DeleteBranch deletes a branch from its indicator in the parent thread.
func (s *Session) DeleteBranch(ctx context.Context, branchID, parentID string, confirmer Confirmer) error {
	label := core.UntitledBranch
	if thread, ok := s.Thread(branchID); ok {
		label = core.ThreadTitle(thread)
	}
	if err := confirm(confirmer, fmt.Sprintf("Delete branch %q?", label)); err != nil {
		return err
	}
	if err := s.reaper.Delete(ctx, branchID, parentID); err != nil {
		return &ConfirmationError{Action: "delete", ThreadID: branchID, Err: err}
	}
	s.forgetLocal(branchID)
	return nil
}

// Rename sets a thread's title once the server accepts it.
func (s *Session) Rename(ctx context.Context, id, title string) (types.Thread, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.Thread{}, ErrEmptyTitle
	}
	if id == "" {
		return types.Thread{}, ErrNoThread
	}
	updated, err := s.backend.UpdateThread(ctx, id, types.ThreadUpdate{Title: &title})
	if err != nil {
		s.logger.Warn("rename failed", "thread_id", id, "error", err)
		return types.Thread{}, &ConfirmationError{Action: "rename", ThreadID: id, Err: err}
	}
	if updated.ID == "" {
		updated, _ = s.Thread(id)
		updated.Title = &title
	}
	s.tree.Put(updated)
	if updated.IsRoot() && s.roots.Merge(updated) {
		s.cacheRoot(updated)
	}
	for _, frame := range s.overlay.Frames() {
		if frame.ThreadID == id {
			frame.Title = title
		}
	}
	s.bus.Publish(notify.ThreadUpdated, id)
	return updated, nil
}

// forgetLocal drops a thread and everything under it from local state.
func (s *Session) forgetLocal(id string) {
	removed := s.tree.Remove(id)
	if !slices.Contains(removed, id) {
		removed = append(removed, id)
	}
	for _, rid := range removed {
		s.rec.Forget(rid)
		if s.roots.Remove(rid) && s.store != nil {
			if err := s.store.ForgetRoot(rid); err != nil {
				s.logger.Warn("forget cached root failed", "thread_id", rid, "error", err)
			}
		}
		s.clearDraft(rid)
	}
}

// nextRoot picks the view shown after id's tree is deleted: the root of id
// when id is a branch, otherwise the first other root in the sidebar.
func (s *Session) nextRoot(id string) string {
	if root, ok := s.tree.RootOf(id); ok && root.ID != id {
		return root.ID
	}
	for _, root := range s.roots.Threads() {
		if root.ID != id {
			return root.ID
		}
	}
	return ""
}
