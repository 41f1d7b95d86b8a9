package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/reconcile"
	"github.com/adamavenir/tangent/internal/session"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const shortIDLength = 8

var errNotInteractive = errors.New("confirmation needed: rerun with --force or from a terminal")

var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// resolveThreadID accepts a full id or a unique prefix of a known thread.
func resolveThreadID(ctx context.Context, s *session.Session, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("thread id is required")
	}
	if _, ok := s.Thread(input); ok {
		return input, nil
	}
	roots := s.LoadCachedRoots()
	if len(roots) == 0 {
		if fresh, err := s.RefreshRoots(ctx); err == nil {
			roots = fresh
		}
	}
	var matches []string
	for _, root := range roots {
		if root.ID == input {
			return input, nil
		}
		if strings.HasPrefix(root.ID, input) {
			matches = append(matches, root.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		// Branches are not cached; let the server decide.
		return input, nil
	default:
		return "", fmt.Errorf("thread prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveMessage finds a message by "#n" position, bare position, id or id
// prefix.
func resolveMessage(messages []types.Message, ref string) (types.Message, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return types.Message{}, fmt.Errorf("message reference is required")
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		if n < 1 || n > len(messages) {
			return types.Message{}, fmt.Errorf("message #%d does not exist (thread has %d)", n, len(messages))
		}
		return messages[n-1], nil
	}
	if i := types.FindMessage(messages, ref); i >= 0 {
		return messages[i], nil
	}
	var found []types.Message
	for _, msg := range messages {
		if strings.HasPrefix(msg.ID, ref) {
			found = append(found, msg)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return types.Message{}, fmt.Errorf("message not found: %s", ref)
	default:
		return types.Message{}, fmt.Errorf("message prefix %q is ambiguous", ref)
	}
}

// waitReply blocks until the ticket resolves and returns the assistant
// reply that confirmed it.
func waitReply(ctx context.Context, s *session.Session, ticket *reconcile.Ticket) (types.Message, error) {
	state, err := ticket.Wait(ctx)
	if err != nil {
		return types.Message{}, err
	}
	switch state {
	case reconcile.StateConfirmed:
	case reconcile.StateTimedOut:
		return types.Message{}, fmt.Errorf("no reply yet; check again with: tangent show %s", ticket.ThreadID)
	default:
		return types.Message{}, fmt.Errorf("send %s", state)
	}
	messages, _ := s.Messages(ticket.ThreadID)
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleAssistant && !messages[i].IsLoading {
			return messages[i], nil
		}
	}
	return types.Message{}, fmt.Errorf("thread %s has no reply", ticket.ThreadID)
}

// confirmer asks on the terminal, or refuses when stdin is not a terminal.
func confirmer(cmd *cobra.Command, force bool) session.Confirmer {
	if force {
		return session.AlwaysConfirm
	}
	return func(prompt string) (bool, error) {
		if !stdinIsTerminal() {
			return false, errNotInteractive
		}
		return promptYesNo(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
	}
}

func promptYesNo(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(in)
	text, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(text))
	return answer == "y" || answer == "yes", nil
}

// markAnchors renders content with highlighted runs in brackets followed
// by the numbers of the branches covering them.
func markAnchors(content string, anchors []anchor.Anchor) string {
	if len(anchors) == 0 {
		return content
	}
	number := make(map[string]int, len(anchors))
	for i, a := range anchors {
		number[a.ID] = i + 1
	}
	var b strings.Builder
	for seg := range anchor.Segments(content, anchors) {
		if !seg.Highlighted() {
			b.WriteString(seg.Text)
			continue
		}
		refs := make([]string, 0, len(seg.Anchors))
		for _, a := range seg.Anchors {
			refs = append(refs, strconv.Itoa(number[a.ID]))
		}
		fmt.Fprintf(&b, "[%s]^%s", seg.Text, strings.Join(refs, ","))
	}
	return b.String()
}

func threadLine(thread types.Thread) string {
	line := fmt.Sprintf("%s  %s", core.ShortID(thread.ID, shortIDLength), core.ThreadTitle(thread))
	if when := core.RelativeTime(thread.CreatedAt.Time); when != "" {
		line += "  (" + when + ")"
	}
	return line
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
