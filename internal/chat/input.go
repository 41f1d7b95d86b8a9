package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"
)

const inputMaxHeight = 6

func newInputModel() textarea.Model {
	input := textarea.New()
	input.CharLimit = 0
	input.ShowLineNumbers = false
	input.MaxHeight = inputMaxHeight
	input.SetHeight(1)
	input.Placeholder = "Message… (/help for commands)"
	input.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "› "
		}
		return "  "
	})
	input.KeyMap.InsertNewline.SetEnabled(false)
	applyInputStyles(&input, textColor, blurText)
	input.Focus()
	return input
}

func applyInputStyles(input *textarea.Model, textColor, blurColor lipgloss.Color) {
	input.FocusedStyle.Base = lipgloss.NewStyle().Foreground(textColor).Background(inputBg)
	input.FocusedStyle.Text = lipgloss.NewStyle().Foreground(textColor).Background(inputBg)
	input.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(caretColor).Background(inputBg)
	input.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(inputBg)
	input.BlurredStyle.Base = lipgloss.NewStyle().Foreground(blurColor).Background(inputBg)
	input.BlurredStyle.Text = lipgloss.NewStyle().Foreground(blurColor).Background(inputBg)
	input.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(caretColor).Background(inputBg)
	input.BlurredStyle.CursorLine = lipgloss.NewStyle().Background(inputBg)
}

func (m *Model) setInput(value string) {
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.resize()
}

func (m *Model) insertInputText(text string) {
	if text == "" {
		return
	}
	m.input.InsertString(text)
	m.resize()
}

func (m *Model) inputHeight() int {
	lines := strings.Count(m.input.Value(), "\n") + 1
	if lines > inputMaxHeight {
		lines = inputMaxHeight
	}
	return lines
}

// syncDraft swaps the input to the draft of whatever view is now active.
func (m *Model) syncDraft() {
	key := m.session.ActiveDraftKey()
	if key == m.draftKey {
		return
	}
	m.saveDraft()
	m.draftKey = key
	value := m.session.Draft(key)
	if top := m.session.Overlay().Top(); top != nil && value == "" {
		value = top.InitialText
	}
	m.setInput(value)
}

func (m *Model) saveDraft() {
	if m.draftKey == "" {
		return
	}
	m.session.SaveDraft(m.draftKey, m.input.Value())
}

func normalizeNewlines(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")
	return value
}

// quoteText formats a selection as a markdown quote followed by a blank line.
func quoteText(text string) string {
	text = strings.TrimSpace(normalizeNewlines(text))
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n") + "\n\n"
}
