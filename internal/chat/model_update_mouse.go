package chat

import (
	"fmt"
	"strings"

	"github.com/adamavenir/tangent/internal/anchor"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if handled, cmd := m.handleMouseClick(msg); handled {
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleMouseClick(msg tea.MouseMsg) (bool, tea.Cmd) {
	if m.confirm != nil {
		return true, nil
	}

	for i := range m.menu {
		if m.zoneManager.Get(fmt.Sprintf("menu-%d", i)).InBounds(msg) {
			return true, m.chooseMenu(i)
		}
	}

	if m.zoneManager.Get("crumb-back").InBounds(msg) {
		return true, m.backCmd()
	}
	if m.zoneManager.Get("crumb-close").InBounds(msg) {
		return true, m.closeOverlayCmd()
	}
	if m.zoneManager.Get("goto-parent").InBounds(msg) {
		return true, m.gotoRelative("parent")
	}

	for _, root := range m.session.Roots().Threads() {
		if m.zoneManager.Get("root-" + root.ID).InBounds(msg) {
			return true, m.openThreadCmd(root.ID)
		}
	}

	for _, ind := range m.indicators {
		if ind.Fork {
			if m.zoneManager.Get("fork-" + ind.ThreadID).InBounds(msg) {
				return true, m.openThreadCmd(ind.ThreadID)
			}
			continue
		}
		if m.zoneManager.Get("branch-" + ind.ThreadID).InBounds(msg) {
			return true, m.openBranchCmd(ind.ThreadID)
		}
		if m.zoneManager.Get("rmbranch-" + ind.ThreadID).InBounds(msg) {
			return true, m.confirmDeleteIndicator(ind)
		}
	}

	for id, seg := range m.segments {
		if !strings.HasPrefix(id, "seg-") || !m.zoneManager.Get(id).InBounds(msg) {
			continue
		}
		return true, m.clickSegment(seg)
	}
	return false, nil
}

// clickSegment follows a single anchor or offers a menu for overlapping ones.
func (m *Model) clickSegment(seg anchor.Segment) tea.Cmd {
	click := anchor.Resolve(seg)
	switch click.Action {
	case anchor.ActionNavigate:
		m.saveDraft()
		return func() tea.Msg {
			ctx, cancel := m.opContext()
			defer cancel()
			click, err := m.session.Click(ctx, seg)
			return threadOpenedMsg{threadID: click.ThreadID, err: err}
		}
	case anchor.ActionMenu:
		m.menu = click.Choices
		m.resize()
	}
	return nil
}
