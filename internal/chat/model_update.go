package chat

import (
	"errors"

	"github.com/adamavenir/tangent/internal/notify"
	"github.com/adamavenir/tangent/internal/reconcile"
	"github.com/adamavenir/tangent/internal/session"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var errClipboardUnsupported = errors.New("clipboard is not available on this system")

type eventMsg struct {
	event notify.Event
}

type rootsMsg struct {
	err error
}

type threadOpenedMsg struct {
	threadID string
	err      error
}

type forkPointMsg struct {
	threadID string
	index    int
}

type sentMsg struct {
	threadID string
	content  string
	ticket   *reconcile.Ticket
	err      error
}

type replyMsg struct {
	threadID string
	state    reconcile.State
	err      error
}

// actionMsg reports the outcome of a one-shot session action. next, when
// set, is opened afterwards.
type actionMsg struct {
	status string
	err    error
	next   string
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.hasLoading() {
			m.refreshViewport()
		}
		return m, cmd
	case eventMsg:
		return m.handleEventMsg(msg)
	case rootsMsg:
		if msg.err != nil {
			m.status = "Could not load threads: " + msg.err.Error()
		}
		return m, nil
	case threadOpenedMsg:
		return m.handleThreadOpened(msg)
	case forkPointMsg:
		m.forkPoints[msg.threadID] = msg.index
		m.refreshViewport()
		return m, nil
	case sentMsg:
		return m.handleSentMsg(msg)
	case replyMsg:
		return m.handleReplyMsg(msg)
	case actionMsg:
		return m.handleActionMsg(msg)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleEventMsg(msg eventMsg) (tea.Model, tea.Cmd) {
	ev := msg.event
	switch ev.Kind {
	case notify.MessagesChanged:
		if ev.ThreadID == m.displayedThreadID() {
			m.refreshViewport()
		}
	case notify.ThreadDeleted:
		delete(m.forkPoints, ev.ThreadID)
		m.refreshViewport()
	case notify.ThreadUpdated, notify.BranchCreated:
		m.refreshViewport()
	}
	return m, m.waitForEvent()
}

func (m *Model) handleThreadOpened(msg threadOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = errorStyle.Render(msg.err.Error())
		m.refreshViewport()
		return m, nil
	}
	m.status = ""
	m.menu = nil
	m.pendingScroll = true
	m.syncDraft()
	m.refreshViewport()
	if thread, ok := m.session.Thread(msg.threadID); ok && thread.Kind() == types.ThreadTypeFork {
		return m, m.forkPointCmd(msg.threadID)
	}
	return m, nil
}

func (m *Model) handleSentMsg(msg sentMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		var sendErr *reconcile.SendError
		if errors.As(msg.err, &sendErr) && m.input.Value() == "" {
			m.setInput(sendErr.Content)
		}
		m.status = errorStyle.Render("Send failed: " + msg.err.Error())
		m.refreshViewport()
		return m, nil
	}
	m.status = ""
	m.draftKey = m.session.ActiveDraftKey()
	m.pendingScroll = true
	m.refreshViewport()
	if msg.ticket == nil {
		return m, nil
	}
	return m, m.waitReplyCmd(msg.ticket)
}

func (m *Model) handleReplyMsg(msg replyMsg) (tea.Model, tea.Cmd) {
	switch msg.state {
	case reconcile.StateTimedOut:
		m.status = "Reply is taking longer than expected; showing the latest saved messages."
	case reconcile.StateFailed:
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
		}
	case reconcile.StateConfirmed:
		if m.notify && msg.threadID != m.displayedThreadID() {
			m.notifyReply(msg.threadID)
		}
	}
	m.refreshViewport()
	return m, nil
}

func (m *Model) notifyReply(threadID string) {
	thread, ok := m.session.Thread(threadID)
	if !ok {
		return
	}
	messages, _ := m.session.Messages(threadID)
	reply, ok := lastReply(messages)
	if !ok {
		return
	}
	if err := SendNotification(thread, reply); err != nil {
		m.logger.Debug("notification failed", "error", err)
	}
}

func (m *Model) handleActionMsg(msg actionMsg) (tea.Model, tea.Cmd) {
	m.confirm = nil
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, session.ErrDeclined):
			m.status = "Cancelled."
		default:
			m.status = errorStyle.Render(msg.err.Error())
		}
		m.refreshViewport()
		return m, nil
	}
	m.status = msg.status
	m.syncDraft()
	m.refreshViewport()
	if msg.next != "" {
		return m, m.openThreadCmd(msg.next)
	}
	return m, nil
}

func (m *Model) hasLoading() bool {
	messages, _ := m.session.Messages(m.displayedThreadID())
	for _, msg := range messages {
		if msg.IsLoading {
			return true
		}
	}
	return false
}

// displayedThreadID is the thread whose messages are on screen, or empty for
// a pending branch or the home screen.
func (m *Model) displayedThreadID() string {
	if top := m.session.Overlay().Top(); top != nil {
		return top.ThreadID
	}
	return m.session.CurrentThreadID()
}
