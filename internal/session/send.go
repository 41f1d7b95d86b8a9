package session

import (
	"context"
	"fmt"

	"github.com/adamavenir/tangent/internal/notify"
	"github.com/adamavenir/tangent/internal/overlay"
	"github.com/adamavenir/tangent/internal/reconcile"
	"github.com/adamavenir/tangent/internal/types"
)

// NewThread creates a root thread, makes it the main view and sends the
// first message into it.
func (s *Session) NewThread(ctx context.Context, content string) (types.Thread, *reconcile.Ticket, error) {
	thread, err := s.backend.CreateThread(ctx, types.ThreadCreate{})
	if err != nil {
		return types.Thread{}, nil, &reconcile.SendError{Content: content, Err: err}
	}
	s.tree.Put(thread)
	if s.roots.Merge(thread) {
		s.cacheRoot(thread)
	}

	if s.overlay.Depth() > 0 {
		s.overlay.Reset()
	}
	s.mu.Lock()
	prev := s.current
	s.current = thread.ID
	s.mu.Unlock()
	if prev != "" {
		s.rec.Cancel(prev)
	}
	s.rec.Set(thread.ID, &thread, nil)

	ticket, err := s.SendTo(ctx, thread.ID, content)
	return thread, ticket, err
}

// Send sends content to the active view. The first message into a pending
// branch creates the branch on the server first.
func (s *Session) Send(ctx context.Context, content string) (*reconcile.Ticket, error) {
	if top := s.overlay.Top(); top != nil {
		if top.IsPending() {
			if err := s.persistPending(ctx, top); err != nil {
				s.saveDraft(DraftKey(top, ""), content)
				return nil, &reconcile.SendError{Content: content, Err: err}
			}
		}
		return s.SendTo(ctx, top.ThreadID, content)
	}
	current := s.CurrentThreadID()
	if current == "" {
		return nil, ErrNoThread
	}
	return s.SendTo(ctx, current, content)
}

// SendTo sends content to a specific thread.
func (s *Session) SendTo(ctx context.Context, threadID, content string) (*reconcile.Ticket, error) {
	ticket, err := s.rec.Send(ctx, threadID, content)
	if err != nil {
		s.saveDraft(threadID, content)
		return ticket, err
	}
	s.clearDraft(threadID)
	return ticket, nil
}

// persistPending creates the thread behind a pending frame and resolves the
// frame in place.
func (s *Session) persistPending(ctx context.Context, frame *overlay.Frame) error {
	pending := frame.Pending
	if pending == nil {
		return fmt.Errorf("frame has neither thread nor pending branch")
	}
	thread, err := s.backend.CreateThread(ctx, pending.Create())
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	pendingKey := DraftKey(frame, "")
	s.tree.Put(thread)
	s.rec.Set(thread.ID, &thread, nil)
	if _, err := s.overlay.ResolvePending(thread.ID, titleOf(thread)); err != nil {
		return err
	}
	s.clearDraft(pendingKey)
	s.logger.Info("branch created", "thread_id", thread.ID, "parent_thread_id", pending.ParentThreadID)
	s.bus.Publish(notify.BranchCreated, pending.ParentThreadID)
	return nil
}

// DraftKey names the draft slot of a frame, or of threadID when frame is nil.
func DraftKey(frame *overlay.Frame, threadID string) string {
	if frame == nil {
		return threadID
	}
	if frame.ThreadID != "" {
		return frame.ThreadID
	}
	if frame.Pending != nil {
		return "pending:" + frame.Pending.ParentThreadID + ":" + frame.Pending.MessageID
	}
	return threadID
}

// ActiveDraftKey returns the draft slot of whatever view has the input.
func (s *Session) ActiveDraftKey() string {
	if top := s.overlay.Top(); top != nil {
		return DraftKey(top, "")
	}
	return s.CurrentThreadID()
}

// Draft returns saved input for key.
func (s *Session) Draft(key string) string {
	if s.store == nil || key == "" {
		return ""
	}
	content, err := s.store.Draft(key)
	if err != nil {
		s.logger.Warn("read draft failed", "key", key, "error", err)
		return ""
	}
	return content
}

// SaveDraft stores input for key.
func (s *Session) SaveDraft(key, content string) {
	s.saveDraft(key, content)
}

func (s *Session) saveDraft(key, content string) {
	if s.store == nil || key == "" {
		return
	}
	if err := s.store.SaveDraft(key, content); err != nil {
		s.logger.Warn("save draft failed", "key", key, "error", err)
	}
}

func (s *Session) clearDraft(key string) {
	if s.store == nil || key == "" {
		return
	}
	if err := s.store.ClearDraft(key); err != nil {
		s.logger.Warn("clear draft failed", "key", key, "error", err)
	}
}
