package core

import (
	"strings"
	"time"

	"github.com/adamavenir/tangent/internal/types"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const (
	UntitledThread = "Untitled Thread"
	NewBranchTitle = "New Branch"
	UntitledBranch = "Branch"
	UntitledFork   = "Fork"
)

// ThreadTitle returns the display title with the fallback for its kind.
func ThreadTitle(thread types.Thread) string {
	switch thread.Kind() {
	case types.ThreadTypeBranch:
		return thread.TitleOr(UntitledBranch)
	case types.ThreadTypeFork:
		return thread.TitleOr(UntitledFork)
	default:
		return thread.TitleOr(UntitledThread)
	}
}

// Truncate shortens s to at most width terminal cells, adding an ellipsis.
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// RelativeTime formats t like "3 minutes ago".
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}
