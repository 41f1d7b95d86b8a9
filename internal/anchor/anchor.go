package anchor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/adamavenir/tangent/internal/types"
)

var (
	ErrEmptyRange    = errors.New("anchor range is empty")
	ErrReversedRange = errors.New("anchor range is reversed")
	ErrOutOfBounds   = errors.New("anchor range is outside the message")
	ErrNotFound      = errors.New("selection not found in message")
)

// Anchor ties a branch thread to a rune range [Start, End) of a message.
type Anchor struct {
	ID          string
	Start       int
	End         int
	Label       string
	ContextText string
}

// New validates a range against a message of contentLen runes.
func New(id string, start, end int, label, context string, contentLen int) (Anchor, error) {
	if err := check(start, end, contentLen); err != nil {
		return Anchor{}, fmt.Errorf("anchor %s [%d,%d): %w", id, start, end, err)
	}
	return Anchor{ID: id, Start: start, End: end, Label: label, ContextText: context}, nil
}

func check(start, end, contentLen int) error {
	switch {
	case start == end:
		return ErrEmptyRange
	case start > end:
		return ErrReversedRange
	case start < 0 || end > contentLen:
		return ErrOutOfBounds
	}
	return nil
}

// Len returns the number of runes the anchor covers.
func (a Anchor) Len() int {
	return a.End - a.Start
}

// FromBranches builds the highlight anchors for a message. Message-level
// branches and ranges that do not fit the content are skipped.
func FromBranches(branches []types.BranchInfo, content string) []Anchor {
	n := utf8.RuneCountInString(content)
	anchors := make([]Anchor, 0, len(branches))
	for _, branch := range branches {
		start, end, ok := branch.Span()
		if !ok {
			continue
		}
		label := "Branch"
		if branch.Title != nil && strings.TrimSpace(*branch.Title) != "" {
			label = *branch.Title
		}
		context := ""
		if branch.BranchContextText != nil {
			context = *branch.BranchContextText
		}
		a, err := New(branch.ThreadID, start, end, label, context, n)
		if err != nil {
			continue
		}
		anchors = append(anchors, a)
	}
	return anchors
}

// MessageLevel returns the branches that are not anchored to a substring.
func MessageLevel(branches []types.BranchInfo) []types.BranchInfo {
	var out []types.BranchInfo
	for _, branch := range branches {
		if branch.Kind() == types.AnchorMessage {
			out = append(out, branch)
		}
	}
	return out
}

// Locate finds the occurrence-th (0-based) match of selected in content and
// returns its rune offsets.
func Locate(content, selected string, occurrence int) (int, int, error) {
	if selected == "" {
		return 0, 0, ErrEmptyRange
	}
	if occurrence < 0 {
		occurrence = 0
	}
	offset := 0
	rest := content
	for i := 0; ; i++ {
		idx := strings.Index(rest, selected)
		if idx < 0 {
			return 0, 0, fmt.Errorf("%q: %w", selected, ErrNotFound)
		}
		if i == occurrence {
			start := utf8.RuneCountInString(content[:offset+idx])
			return start, start + utf8.RuneCountInString(selected), nil
		}
		skip := idx + len(selected)
		offset += skip
		rest = rest[skip:]
	}
}

// Slice returns the runes of content in [start, end).
func Slice(content string, start, end int) string {
	runes := []rune(content)
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}
