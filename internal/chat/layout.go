package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) mainWidth() int {
	width := m.width - sidebarWidth - 2
	if width < 20 {
		width = 20
	}
	return width
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	width := m.mainWidth()
	m.input.SetWidth(width)
	m.input.SetHeight(m.inputHeight())

	reserved := 1 + m.inputHeight() + strings.Count(m.status, "\n") + 1
	if menu := m.renderMenu(); menu != "" {
		reserved += lipgloss.Height(menu)
	}
	if m.confirm != nil {
		reserved++
	}
	viewportWidth := width
	if m.session.Overlay().Depth() > 0 {
		// overlay border and padding
		reserved += 2
		viewportWidth -= 4
	}
	height := m.height - reserved
	if height < 3 {
		height = 3
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = height
	m.refreshViewport()
}

// refreshViewport re-renders the thread on screen, keeping the scroll
// position unless the user was already at the bottom.
func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom() || m.pendingScroll
	width := m.viewport.Width
	if width <= 0 {
		width = m.mainWidth()
	}

	var content string
	top := m.session.Overlay().Top()
	switch {
	case top != nil && top.IsPending():
		m.segments = nil
		m.indicators = nil
		content = renderPendingHeader(top, width)
	case m.displayedThreadID() == "":
		m.segments = nil
		m.indicators = nil
		content = dimStyle.Render("Start a new conversation by typing a message.")
	default:
		id := m.displayedThreadID()
		messages, known := m.session.Messages(id)
		if !known {
			content = dimStyle.Render("Loading…")
			break
		}
		content = m.renderMessages(id, messages, width)
	}

	m.viewport.SetContent(content)
	if atBottom {
		m.viewport.GotoBottom()
		m.pendingScroll = false
	}
}
