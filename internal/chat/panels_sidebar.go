package chat

import (
	"strings"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderSidebar() string {
	roots := m.session.Roots().Threads()
	current := m.session.CurrentThreadID()
	currentRoot := current
	if root, ok := m.session.Tree().RootOf(current); ok {
		currentRoot = root.ID
	}
	if m.rootIndex >= len(roots) {
		m.rootIndex = max(len(roots)-1, 0)
	}

	rows := []string{lipgloss.NewStyle().Bold(true).Render("Threads")}
	if len(roots) == 0 {
		rows = append(rows, dimStyle.Render("No threads yet"))
	}
	inner := sidebarWidth - 2
	for i, root := range roots {
		title := core.Truncate(core.ThreadTitle(root), inner)
		row := title
		if when := core.RelativeTime(root.CreatedAt.Time); when != "" {
			row += "\n" + dimStyle.Render(core.Truncate(when, inner))
		}
		style := lipgloss.NewStyle().Width(inner)
		switch {
		case m.sidebarFocus && i == m.rootIndex:
			style = selectedRow.Width(inner).Bold(true)
		case root.ID == currentRoot:
			style = style.Foreground(caretColor)
		}
		rows = append(rows, m.zoneManager.Mark("root-"+root.ID, style.Render(row)))
	}

	height := m.height
	if height <= 0 {
		height = len(rows) * 2
	}
	used := 0
	visible := rows[:0]
	for _, row := range rows {
		h := lipgloss.Height(row)
		if used+h > height {
			break
		}
		used += h
		visible = append(visible, row)
	}
	return sidebarStyle.Height(height).Render(strings.Join(visible, "\n"))
}
