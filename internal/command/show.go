package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <thread>",
		Short: "Print a thread with its highlighted branch anchors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			id, err := resolveThreadID(cmd.Context(), ctx.Session, args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			resp, err := ctx.Session.OpenThread(cmd.Context(), id)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(resp)
			}
			printThread(cmd.OutOrStdout(), resp, ctx.Session.ForkPoint(cmd.Context(), id))
			return nil
		},
	}

	return cmd
}

func printThread(out io.Writer, resp types.ThreadMessages, forkPoint int) {
	thread := resp.ThreadInfo
	fmt.Fprintf(out, "%s  %s [%s]\n", thread.ID, core.ThreadTitle(thread), thread.Kind())
	if parent := thread.ParentID(); parent != "" {
		fmt.Fprintf(out, "parent: %s\n", parent)
	}
	if thread.BranchContextText != nil && *thread.BranchContextText != "" {
		fmt.Fprintf(out, "context: %q\n", *thread.BranchContextText)
	}

	for i, msg := range resp.Messages {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "#%d %s", i+1, msg.Role)
		if msg.Model != nil && *msg.Model != "" {
			fmt.Fprintf(out, " (%s)", *msg.Model)
		}
		fmt.Fprintln(out, ":")

		anchors := anchor.FromBranches(msg.Branches, msg.Content)
		for _, line := range strings.Split(markAnchors(msg.Content, anchors), "\n") {
			fmt.Fprintf(out, "  %s\n", line)
		}
		printBranches(out, msg, anchors)

		if i == forkPoint {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  ── forked here ──")
		}
	}
}

// printBranches lists the substring branches in anchor order, then the
// whole-message branches and the forks.
func printBranches(out io.Writer, msg types.Message, anchors []anchor.Anchor) {
	for i, a := range anchors {
		fmt.Fprintf(out, "  ↳ %d %s  %s\n", i+1, a.Label, core.ShortID(a.ID, shortIDLength))
	}
	for _, branch := range anchor.MessageLevel(msg.Branches) {
		title := core.UntitledBranch
		if branch.Title != nil && strings.TrimSpace(*branch.Title) != "" {
			title = *branch.Title
		}
		fmt.Fprintf(out, "  ↳ %s  %s\n", title, core.ShortID(branch.ThreadID, shortIDLength))
	}
	for _, fork := range msg.Forks {
		title := core.UntitledFork
		if fork.Title != nil && strings.TrimSpace(*fork.Title) != "" {
			title = *fork.Title
		}
		fmt.Fprintf(out, "  ⑂ %s  %s\n", title, core.ShortID(fork.ThreadID, shortIDLength))
	}
}
