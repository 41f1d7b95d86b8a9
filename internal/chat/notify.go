package chat

import (
	"strings"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/gen2brain/beeep"
)

// SendNotification raises a desktop notification for a reply that landed in
// a thread the user is not looking at.
func SendNotification(thread types.Thread, reply types.Message) error {
	return beeep.Notify("tangent · "+core.ThreadTitle(thread), truncateNotification(reply.Content, 100), "")
}

func truncateNotification(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
