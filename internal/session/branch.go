package session

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/api"
	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/notify"
	"github.com/adamavenir/tangent/internal/overlay"
	"github.com/adamavenir/tangent/internal/reaper"
	"github.com/adamavenir/tangent/internal/reconcile"
	"github.com/adamavenir/tangent/internal/types"
)

// BranchRequest starts a branch from a message. Start and End select a
// substring in runes; leave both nil for a message-level branch.
type BranchRequest struct {
	ParentThreadID string
	MessageID      string
	Start          *int
	End            *int
	InitialText    string
}

// StartBranch opens a pending branch overlay. Nothing is created on the
// server until the first message is sent.
func (s *Session) StartBranch(req BranchRequest) (*overlay.Frame, error) {
	if req.ParentThreadID == "" {
		return nil, ErrNoThread
	}
	message, err := s.readyMessage(req.ParentThreadID, req.MessageID)
	if err != nil {
		return nil, err
	}

	pending := &types.PendingBranch{
		ParentThreadID: req.ParentThreadID,
		MessageID:      message.ID,
	}
	switch {
	case req.Start != nil && req.End != nil:
		a, err := anchor.New("", *req.Start, *req.End, "", "", utf8.RuneCountInString(message.Content))
		if err != nil {
			return nil, err
		}
		start, end := a.Start, a.End
		text := anchor.Slice(message.Content, start, end)
		pending.StartOffset = &start
		pending.EndOffset = &end
		pending.ContextText = &text
	case req.Start != nil || req.End != nil:
		return nil, fmt.Errorf("branch selection needs both start and end")
	}

	frame, err := s.overlay.Open("", core.NewBranchTitle, pending)
	if err != nil {
		return nil, err
	}
	frame.InitialText = req.InitialText
	if frame.InitialText == "" {
		frame.InitialText = s.Draft(DraftKey(frame, ""))
	}
	s.logger.Debug("branch started", "parent_thread_id", req.ParentThreadID, "message_id", message.ID)
	return frame, nil
}

// OpenBranch pushes an overlay for an existing branch thread.
func (s *Session) OpenBranch(ctx context.Context, threadID string) (*overlay.Frame, error) {
	title := core.UntitledBranch
	if thread, ok := s.Thread(threadID); ok {
		title = core.ThreadTitle(thread)
	}
	frame, err := s.overlay.Open(threadID, title, nil)
	if err != nil {
		return nil, err
	}
	if _, known := s.rec.Messages(threadID); known {
		return frame, nil
	}
	resp, err := s.rec.Reload(ctx, threadID)
	if err != nil {
		if api.IsNotFound(err) {
			s.forgetLocal(threadID)
			if backErr := s.overlay.Back(ctx); backErr != nil {
				s.logger.Debug("pop missing branch", "thread_id", threadID, "error", backErr)
			}
		}
		return nil, err
	}
	if resp.ThreadInfo.ID != "" {
		frame.Title = core.ThreadTitle(resp.ThreadInfo)
	}
	s.ensureAncestors(ctx, resp.ThreadInfo)
	return frame, nil
}

// Click resolves a click on a message segment. A single anchor opens its
// branch; several anchors are returned for the caller to choose from.
func (s *Session) Click(ctx context.Context, seg anchor.Segment) (anchor.Click, error) {
	click := anchor.Resolve(seg)
	if click.Action == anchor.ActionNavigate {
		if _, err := s.OpenBranch(ctx, click.ThreadID); err != nil {
			return click, err
		}
	}
	return click, nil
}

// Back leaves the top overlay.
func (s *Session) Back(ctx context.Context) error {
	top := s.overlay.Top()
	if top == nil {
		return overlay.ErrEmptyStack
	}
	err := s.overlay.Back(ctx)
	s.stopPolling(top)
	return err
}

// CloseOverlay leaves every overlay and returns to the main thread.
func (s *Session) CloseOverlay(ctx context.Context) error {
	frames := s.overlay.Frames()
	err := s.overlay.Close(ctx)
	for _, frame := range frames {
		s.stopPolling(frame)
	}
	return err
}

func (s *Session) stopPolling(frame *overlay.Frame) {
	if frame.ThreadID == "" || frame.ThreadID == s.CurrentThreadID() {
		return
	}
	s.rec.Cancel(frame.ThreadID)
}

// ReapFrame deletes the thread behind a frame that is being closed if the
// user never wrote in it.
func (s *Session) ReapFrame(ctx context.Context, frame *overlay.Frame) (reaper.Result, error) {
	candidate := reaper.Candidate{
		ThreadID:       frame.ThreadID,
		ParentThreadID: frame.ParentThreadID(),
		Pending:        frame.IsPending(),
	}
	if !candidate.Pending {
		candidate.Messages, candidate.Known = s.rec.Messages(frame.ThreadID)
		candidate.Sending = s.rec.State(frame.ThreadID) == reconcile.StateSent
		if candidate.ParentThreadID == "" {
			if thread, ok := s.Thread(frame.ThreadID); ok {
				candidate.ParentThreadID = thread.ParentID()
			}
		}
	}
	result, err := s.reaper.Reap(ctx, candidate)
	if err != nil {
		return result, err
	}
	switch result {
	case reaper.Deleted:
		s.forgetLocal(frame.ThreadID)
	case reaper.Dropped:
		s.clearDraft(DraftKey(frame, ""))
	}
	return result, nil
}

// Fork copies the parent thread up to messageID into a new thread and makes
// it the main view.
func (s *Session) Fork(ctx context.Context, parentID, messageID string) (types.Thread, error) {
	message, err := s.readyMessage(parentID, messageID)
	if err != nil {
		return types.Thread{}, err
	}
	parent := parentID
	from := message.ID
	fork, err := s.backend.CreateThread(ctx, types.ThreadCreate{
		ParentThreadID:      &parent,
		BranchFromMessageID: &from,
		IsFork:              true,
	})
	if err != nil {
		return types.Thread{}, fmt.Errorf("create fork: %w", err)
	}
	s.tree.Put(fork)
	s.logger.Info("fork created", "thread_id", fork.ID, "parent_thread_id", parentID)
	s.bus.Publish(notify.BranchCreated, parentID)
	if _, err := s.OpenThread(ctx, fork.ID); err != nil {
		return fork, err
	}
	return fork, nil
}

// readyMessage finds a server-confirmed message in a loaded thread.
func (s *Session) readyMessage(threadID, messageID string) (types.Message, error) {
	messages, known := s.rec.Messages(threadID)
	if !known {
		return types.Message{}, fmt.Errorf("thread %s is not loaded", threadID)
	}
	i := types.FindMessage(messages, messageID)
	if i < 0 {
		return types.Message{}, fmt.Errorf("message %s not found in thread %s", messageID, threadID)
	}
	message := messages[i]
	if message.IsTemp() || message.IsLoading {
		return types.Message{}, ErrMessageNotReady
	}
	return message, nil
}
