package chat

import (
	"strings"

	"github.com/adamavenir/tangent/internal/core"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}
	if m.menu != nil {
		if handled, cmd := m.handleMenuKey(msg); handled {
			return m, cmd
		}
	}
	if m.sidebarFocus {
		if handled, cmd := m.handleSidebarKey(msg); handled {
			return m, cmd
		}
	}

	switch msg.Type {
	case tea.KeyTab:
		m.sidebarFocus = !m.sidebarFocus
		if m.sidebarFocus {
			m.input.Blur()
		} else {
			m.input.Focus()
		}
		return m, nil
	case tea.KeyEsc:
		if m.session.Overlay().Depth() > 0 {
			return m, m.backCmd()
		}
		m.status = ""
		return m, nil
	case tea.KeyCtrlN:
		return m, m.homeCmd()
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyCtrlJ:
		m.insertInputText("\n")
		return m, nil
	case tea.KeyEnter:
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.resize()
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prompt := m.confirm
	m.confirm = nil
	m.resize()
	if msg.Type == tea.KeyRunes && strings.EqualFold(string(msg.Runes), "y") {
		m.status = "Working…"
		return m, prompt.run()
	}
	m.status = "Cancelled."
	return m, nil
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.menu = nil
		m.resize()
		return true, nil
	case tea.KeyRunes:
		if len(msg.Runes) != 1 || msg.Runes[0] < '1' || msg.Runes[0] > '9' {
			return false, nil
		}
		return true, m.chooseMenu(int(msg.Runes[0] - '1'))
	}
	return false, nil
}

func (m *Model) chooseMenu(i int) tea.Cmd {
	if i < 0 || i >= len(m.menu) {
		return nil
	}
	choice := m.menu[i]
	m.menu = nil
	m.resize()
	return m.openBranchCmd(choice.ID)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	roots := m.session.Roots().Threads()
	switch msg.Type {
	case tea.KeyUp:
		if m.rootIndex > 0 {
			m.rootIndex--
		}
		return true, nil
	case tea.KeyDown:
		if m.rootIndex < len(roots)-1 {
			m.rootIndex++
		}
		return true, nil
	case tea.KeyEnter:
		if m.rootIndex < len(roots) {
			m.sidebarFocus = false
			m.input.Focus()
			return true, m.openThreadCmd(roots[m.rootIndex].ID)
		}
		return true, nil
	case tea.KeyRunes:
		if string(msg.Runes) == "d" && m.rootIndex < len(roots) {
			root := roots[m.rootIndex]
			m.askConfirm("Delete "+core.ThreadTitle(root)+" and all of its branches? (y/N)", func() tea.Cmd {
				return m.deleteThreadCmd(root.ID)
			})
			return true, nil
		}
	}
	return false, nil
}
