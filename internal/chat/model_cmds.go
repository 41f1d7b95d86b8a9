package chat

import (
	"context"
	"fmt"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/reconcile"
	"github.com/adamavenir/tangent/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) loadRootsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		_, err := m.session.RefreshRoots(ctx)
		return rootsMsg{err: err}
	}
}

func (m *Model) openThreadCmd(id string) tea.Cmd {
	m.saveDraft()
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		_, err := m.session.OpenThread(ctx, id)
		return threadOpenedMsg{threadID: id, err: err}
	}
}

func (m *Model) openBranchCmd(id string) tea.Cmd {
	m.saveDraft()
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		_, err := m.session.OpenBranch(ctx, id)
		return threadOpenedMsg{threadID: id, err: err}
	}
}

func (m *Model) forkPointCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		return forkPointMsg{threadID: id, index: m.session.ForkPoint(ctx, id)}
	}
}

func (m *Model) homeCmd() tea.Cmd {
	m.saveDraft()
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		return actionMsg{err: m.session.Home(ctx)}
	}
}

func (m *Model) backCmd() tea.Cmd {
	m.saveDraft()
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		return actionMsg{err: m.session.Back(ctx)}
	}
}

func (m *Model) closeOverlayCmd() tea.Cmd {
	m.saveDraft()
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		return actionMsg{err: m.session.CloseOverlay(ctx)}
	}
}

// sendCmd sends content to the active view, starting a new thread from the
// home screen.
func (m *Model) sendCmd(content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		if m.session.CurrentThreadID() == "" && m.session.Overlay().Depth() == 0 {
			thread, ticket, err := m.session.NewThread(ctx, content)
			return sentMsg{threadID: thread.ID, content: content, ticket: ticket, err: err}
		}
		ticket, err := m.session.Send(ctx, content)
		threadID := ""
		if ticket != nil {
			threadID = ticket.ThreadID
		}
		return sentMsg{threadID: threadID, content: content, ticket: ticket, err: err}
	}
}

// waitReplyCmd resolves when the reply for a send is confirmed, times out or
// is superseded.
func (m *Model) waitReplyCmd(ticket *reconcile.Ticket) tea.Cmd {
	return func() tea.Msg {
		state, err := ticket.Wait(m.ctx)
		if err == context.Canceled {
			return nil
		}
		return replyMsg{threadID: ticket.ThreadID, state: state, err: err}
	}
}

func (m *Model) renameCmd(id, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		thread, err := m.session.Rename(ctx, id, title)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Renamed to " + core.ThreadTitle(thread) + "."}
	}
}

func (m *Model) deleteThreadCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		next, err := m.session.DeleteThread(ctx, id, session.AlwaysConfirm)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Thread deleted.", next: next}
	}
}

func (m *Model) deleteBranchCmd(branchID, parentID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		if err := m.session.DeleteBranch(ctx, branchID, parentID, session.AlwaysConfirm); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Branch deleted."}
	}
}

func (m *Model) forkCmd(threadID, messageID string) tea.Cmd {
	m.saveDraft()
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		fork, err := m.session.Fork(ctx, threadID, messageID)
		if err != nil {
			return threadOpenedMsg{err: fmt.Errorf("fork: %w", err)}
		}
		return threadOpenedMsg{threadID: fork.ID}
	}
}

func (m *Model) refreshCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.opContext()
		defer cancel()
		if err := m.session.Refresh(ctx, id); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{}
	}
}

// askConfirm opens a y/N prompt; run is only called after a yes.
func (m *Model) askConfirm(prompt string, run func() tea.Cmd) {
	m.confirm = &confirmPrompt{prompt: prompt, run: run}
	m.resize()
}
