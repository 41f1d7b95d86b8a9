package chat

import (
	"fmt"
	"strings"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/overlay"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/charmbracelet/lipgloss"
)

// renderMessages draws a thread's messages, registering a click zone for each
// highlighted run and each branch indicator.
func (m *Model) renderMessages(threadID string, messages []types.Message, width int) string {
	m.segments = make(map[string]anchor.Segment)
	m.indicators = nil

	if len(messages) == 0 {
		return dimStyle.Render("No messages yet.")
	}

	forkPoint, hasFork := m.forkPoints[threadID]
	var blocks []string
	for i, msg := range messages {
		blocks = append(blocks, m.renderMessage(threadID, i+1, msg, width))
		if hasFork && forkPoint == i && i < len(messages)-1 {
			blocks = append(blocks, renderForkDivider(width))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(threadID string, number int, msg types.Message, width int) string {
	header := m.renderByline(number, msg)
	if msg.IsLoading {
		return header + "\n" + m.spinner.View() + dimStyle.Render(" thinking…")
	}

	body := m.renderBody(msg)
	if width > 0 {
		body = lipgloss.NewStyle().Width(width).Render(body)
	}

	parts := []string{header, body}
	if indicators := m.renderIndicators(threadID, msg); indicators != "" {
		parts = append(parts, indicators)
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderByline(number int, msg types.Message) string {
	name := botStyle.Render("assistant")
	if msg.Role == types.RoleUser {
		name = userStyle.Render("you")
	}
	meta := []string{fmt.Sprintf("#%d", number)}
	if msg.Model != nil && *msg.Model != "" {
		meta = append(meta, *msg.Model)
	}
	if when := core.RelativeTime(msg.Timestamp.Time); when != "" && !msg.IsTemp() {
		meta = append(meta, when)
	}
	return name + " " + dimStyle.Render(strings.Join(meta, " · "))
}

// renderBody highlights anchored runs. Messages without anchors get code
// fence highlighting instead, since the two would fight over the same cells.
func (m *Model) renderBody(msg types.Message) string {
	anchors := anchor.FromBranches(msg.Branches, msg.Content)
	if len(anchors) == 0 || msg.IsTemp() {
		return bodyStyle.Render(highlightCodeBlocks(msg.Content))
	}

	var out strings.Builder
	n := 0
	for seg := range anchor.Segments(msg.Content, anchors) {
		if !seg.Highlighted() {
			out.WriteString(bodyStyle.Render(seg.Text))
			continue
		}
		style := anchorStyle
		if len(seg.Anchors) > 1 {
			style = overlapStyle
		}
		id := fmt.Sprintf("seg-%s-%d", msg.ID, n)
		n++
		m.segments[id] = seg
		out.WriteString(m.zoneManager.Mark(id, style.Render(seg.Text)))
	}
	return out.String()
}

func (m *Model) renderIndicators(threadID string, msg types.Message) string {
	if len(msg.Branches) == 0 && len(msg.Forks) == 0 {
		return ""
	}
	var items []string
	for _, branch := range msg.Branches {
		m.indicators = append(m.indicators, branchIndicator{
			ThreadID: branch.ThreadID,
			ParentID: threadID,
			Title:    branchTitle(branch),
		})
		n := len(m.indicators)
		label := fmt.Sprintf("↳ %d %s", n, core.Truncate(branchTitle(branch), 24))
		if branch.Kind() == types.AnchorSubstring && branch.BranchContextText != nil {
			label += dimStyle.Render(" “" + core.Truncate(*branch.BranchContextText, 16) + "”")
		}
		items = append(items,
			m.zoneManager.Mark("branch-"+branch.ThreadID, branchStyle.Render(label))+
				m.zoneManager.Mark("rmbranch-"+branch.ThreadID, dimStyle.Render(" [x]")))
	}
	for _, fork := range msg.Forks {
		title := core.UntitledFork
		if fork.Title != nil && strings.TrimSpace(*fork.Title) != "" {
			title = *fork.Title
		}
		m.indicators = append(m.indicators, branchIndicator{ThreadID: fork.ThreadID, ParentID: threadID, Title: title, Fork: true})
		label := fmt.Sprintf("⑂ %d %s", len(m.indicators), core.Truncate(title, 24))
		items = append(items, m.zoneManager.Mark("fork-"+fork.ThreadID, forkStyle.Render(label)))
	}
	return strings.Join(items, "  ")
}

func branchTitle(branch types.BranchInfo) string {
	if branch.Title != nil && strings.TrimSpace(*branch.Title) != "" {
		return *branch.Title
	}
	return core.UntitledBranch
}

func renderForkDivider(width int) string {
	label := " forked here "
	if width <= len(label)+4 {
		return dividerStyle.Render(label)
	}
	side := (width - len(label)) / 2
	return dividerStyle.Render(strings.Repeat("─", side) + label + strings.Repeat("─", width-side-len(label)))
}

// renderPendingHeader shows what a branch that does not exist yet will
// start from.
func renderPendingHeader(frame *overlay.Frame, width int) string {
	if frame.Pending == nil {
		return ""
	}
	text := "Branching from the whole message."
	if frame.Pending.ContextText != nil {
		text = "Branching from “" + core.Truncate(*frame.Pending.ContextText, max(width-20, 10)) + "”"
	}
	return dimStyle.Render(text + " Send a message to create it.")
}

// messageAt returns the n-th (1-based) message of a list.
func messageAt(messages []types.Message, n int) (types.Message, error) {
	if n < 1 || n > len(messages) {
		return types.Message{}, fmt.Errorf("no message #%d", n)
	}
	return messages[n-1], nil
}

// lastReply returns the newest confirmed assistant message.
func lastReply(messages []types.Message) (types.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role == types.RoleAssistant && !msg.IsLoading && !msg.IsTemp() {
			return msg, true
		}
	}
	return types.Message{}, false
}
