package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/session"
	"github.com/adamavenir/tangent/internal/types"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(normalizeNewlines(m.input.Value()))
	if value == "" {
		return m, nil
	}
	if cmd, ok := parseSlashCommand(value); ok {
		m.setInput("")
		return m, m.runCommand(cmd)
	}
	m.setInput("")
	m.status = ""
	return m, m.sendCmd(value)
}

func (m *Model) runCommand(cmd slashCommand) tea.Cmd {
	switch cmd.name {
	case "help", "h":
		m.status = helpText
		m.resize()
		return nil
	case "new":
		if cmd.rest == "" {
			return m.homeCmd()
		}
		if m.session.Overlay().Depth() > 0 || m.session.CurrentThreadID() != "" {
			return tea.Sequence(m.homeCmd(), m.sendCmd(cmd.rest))
		}
		return m.sendCmd(cmd.rest)
	case "branch", "b":
		return m.startBranch(cmd.rest)
	case "quote", "q":
		return m.quote(cmd.rest)
	case "fork":
		return m.fork(cmd.rest)
	case "rename":
		id := m.displayedThreadID()
		if id == "" {
			return m.fail(session.ErrNoThread)
		}
		return m.renameCmd(id, cmd.rest)
	case "delete":
		id := m.session.CurrentThreadID()
		if id == "" {
			return m.fail(session.ErrNoThread)
		}
		title := id
		if thread, ok := m.session.Thread(id); ok {
			title = core.ThreadTitle(thread)
		}
		m.askConfirm("Delete "+title+" and all of its branches? (y/N)", func() tea.Cmd {
			return m.deleteThreadCmd(id)
		})
		return nil
	case "rmbranch":
		return m.removeBranch(cmd.rest)
	case "copy":
		return m.copyMessage(cmd.rest)
	case "parent", "root":
		return m.gotoRelative(cmd.name)
	case "back":
		if m.session.Overlay().Depth() == 0 {
			return nil
		}
		return m.backCmd()
	case "close":
		if m.session.Overlay().Depth() == 0 {
			return nil
		}
		return m.closeOverlayCmd()
	case "refresh":
		if id := m.displayedThreadID(); id != "" {
			return m.refreshCmd(id)
		}
		return m.loadRootsCmd()
	}
	return m.fail(fmt.Errorf("unknown command /%s", cmd.name))
}

func (m *Model) fail(err error) tea.Cmd {
	m.status = errorStyle.Render(err.Error())
	return nil
}

// displayedMessages returns the messages on screen and the thread they
// belong to.
func (m *Model) displayedMessages() (string, []types.Message) {
	id := m.displayedThreadID()
	if id == "" {
		return "", nil
	}
	messages, _ := m.session.Messages(id)
	return id, messages
}

// startBranch handles "/branch <n> [text [@k]]".
func (m *Model) startBranch(rest string) tea.Cmd {
	threadID, messages := m.displayedMessages()
	if threadID == "" {
		return m.fail(session.ErrNoThread)
	}
	n, text, err := messageArg(rest)
	if err != nil {
		return m.fail(err)
	}
	msg, err := messageAt(messages, n)
	if err != nil {
		return m.fail(err)
	}
	req := session.BranchRequest{ParentThreadID: threadID, MessageID: msg.ID}
	if text != "" {
		selected, k := occurrenceSuffix(text)
		start, end, err := anchor.Locate(msg.Content, selected, k-1)
		if err != nil {
			return m.fail(err)
		}
		req.Start, req.End = &start, &end
		req.InitialText = quoteText(selected)
	}
	m.saveDraft()
	if _, err := m.session.StartBranch(req); err != nil {
		return m.fail(err)
	}
	m.status = ""
	m.syncDraft()
	m.pendingScroll = true
	m.refreshViewport()
	return nil
}

// quote handles "/quote <n> [text]": the quote goes into the current input.
func (m *Model) quote(rest string) tea.Cmd {
	_, messages := m.displayedMessages()
	n, text, err := messageArg(rest)
	if err != nil {
		return m.fail(err)
	}
	msg, err := messageAt(messages, n)
	if err != nil {
		return m.fail(err)
	}
	if text == "" {
		text = msg.Content
	} else if !strings.Contains(msg.Content, text) {
		return m.fail(fmt.Errorf("%q: %w", text, anchor.ErrNotFound))
	}
	m.insertInputText(quoteText(text))
	return nil
}

func (m *Model) fork(rest string) tea.Cmd {
	threadID, messages := m.displayedMessages()
	if threadID == "" {
		return m.fail(session.ErrNoThread)
	}
	n, _, err := messageArg(rest)
	if err != nil {
		return m.fail(err)
	}
	msg, err := messageAt(messages, n)
	if err != nil {
		return m.fail(err)
	}
	return m.forkCmd(threadID, msg.ID)
}

func (m *Model) removeBranch(rest string) tea.Cmd {
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 1 || n > len(m.indicators) {
		return m.fail(fmt.Errorf("no branch #%s", strings.TrimSpace(rest)))
	}
	ind := m.indicators[n-1]
	return m.confirmDeleteIndicator(ind)
}

func (m *Model) confirmDeleteIndicator(ind branchIndicator) tea.Cmd {
	kind := "branch"
	if ind.Fork {
		kind = "fork"
	}
	m.askConfirm(fmt.Sprintf("Delete %s %s? (y/N)", kind, ind.Title), func() tea.Cmd {
		return m.deleteBranchCmd(ind.ThreadID, ind.ParentID)
	})
	return nil
}

func (m *Model) copyMessage(rest string) tea.Cmd {
	_, messages := m.displayedMessages()
	var (
		msg types.Message
		err error
	)
	if strings.TrimSpace(rest) == "" {
		var ok bool
		if msg, ok = lastReply(messages); !ok {
			return m.fail(fmt.Errorf("nothing to copy"))
		}
	} else {
		n, _, argErr := messageArg(rest)
		if argErr != nil {
			return m.fail(argErr)
		}
		if msg, err = messageAt(messages, n); err != nil {
			return m.fail(err)
		}
	}
	if err := copyToClipboard(msg.Content); err != nil {
		return m.fail(err)
	}
	m.status = "Copied."
	return nil
}

func (m *Model) gotoRelative(which string) tea.Cmd {
	id := m.displayedThreadID()
	if id == "" {
		return m.fail(session.ErrNoThread)
	}
	thread, ok := m.session.Thread(id)
	if !ok {
		return m.fail(session.ErrNoThread)
	}
	target := thread.ParentID()
	if which == "root" {
		target = thread.RootID
	}
	if target == "" || target == id {
		m.status = "Already at the top."
		return nil
	}
	return m.openThreadCmd(target)
}
