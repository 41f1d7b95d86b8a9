package chat

import (
	"fmt"
	"strings"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func (m *Model) View() string {
	var lines []string
	lines = append(lines, m.renderHeader())
	lines = append(lines, m.renderMain())
	if menu := m.renderMenu(); menu != "" {
		lines = append(lines, menu)
	}
	if m.confirm != nil {
		lines = append(lines, confirmStyle.Render(m.confirm.prompt))
	}
	lines = append(lines, m.renderInput(), m.statusLine())

	main := lipgloss.JoinVertical(lipgloss.Left, lines...)
	output := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)
	return m.zoneManager.Scan(output)
}

// renderMain draws the viewport, framed when an overlay is open.
func (m *Model) renderMain() string {
	if m.session.Overlay().Depth() == 0 {
		return m.viewport.View()
	}
	return overlayStyle.Render(m.viewport.View())
}

func (m *Model) renderHeader() string {
	frames := m.session.Overlay().Frames()
	mainTitle := "tangent"
	var parentLink string
	if id := m.session.CurrentThreadID(); id != "" {
		if thread, ok := m.session.Thread(id); ok {
			mainTitle = core.ThreadTitle(thread)
			if parentID := thread.ParentID(); parentID != "" && len(frames) == 0 {
				parentTitle := core.UntitledThread
				if parent, ok := m.session.Thread(parentID); ok {
					parentTitle = core.ThreadTitle(parent)
				}
				parentLink = m.zoneManager.Mark("goto-parent", forkStyle.Render(" ⑂ from "+core.Truncate(parentTitle, 24)))
			}
		}
	} else {
		mainTitle = "New thread"
	}

	width := m.mainWidth()
	if len(frames) == 0 {
		return lipgloss.NewStyle().Bold(true).Render(core.Truncate(mainTitle, width)) + parentLink
	}

	crumbs := []string{dimStyle.Render(core.Truncate(mainTitle, 20))}
	for i, frame := range frames {
		title := core.Truncate(frame.Title, 20)
		if i == len(frames)-1 {
			crumbs = append(crumbs, branchStyle.Bold(true).Render(title))
		} else {
			crumbs = append(crumbs, dimStyle.Render(title))
		}
	}
	controls := m.zoneManager.Mark("crumb-back", dimStyle.Render("[← back]")) + " " +
		m.zoneManager.Mark("crumb-close", dimStyle.Render("[× close]"))
	return alignStatusLine(strings.Join(crumbs, breadcrumbSep), controls, width)
}

func (m *Model) renderMenu() string {
	if len(m.menu) == 0 {
		return ""
	}
	rows := []string{dimStyle.Render("Several branches cover this text:")}
	for i, a := range m.menu {
		label := fmt.Sprintf("%d. %s", i+1, core.Truncate(a.Label, 30))
		if a.ContextText != "" {
			label += dimStyle.Render(" “" + core.Truncate(a.ContextText, 24) + "”")
		}
		rows = append(rows, m.zoneManager.Mark(fmt.Sprintf("menu-%d", i), branchStyle.Render(label)))
	}
	return menuStyle.Render(strings.Join(rows, "\n"))
}

func (m *Model) renderInput() string {
	return lipgloss.NewStyle().Background(inputBg).Render(m.input.View())
}

func (m *Model) statusLine() string {
	right := ""
	if m.input.Value() == "" {
		right = "/help"
	}
	left := m.status
	if left == "" {
		if top := m.session.Overlay().Top(); top != nil {
			left = "esc to go back"
		}
	}
	return statusBarStyle.Render(alignStatusLine(left, right, m.mainWidth()))
}

func alignStatusLine(left, right string, width int) string {
	if width <= 0 || right == "" {
		return left
	}
	leftWidth := ansi.StringWidth(left)
	rightWidth := ansi.StringWidth(right)
	if leftWidth+rightWidth+1 > width {
		return left
	}
	return left + strings.Repeat(" ", width-leftWidth-rightWidth) + right
}
