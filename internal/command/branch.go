package command

import (
	"encoding/json"
	"fmt"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/session"
	"github.com/spf13/cobra"
)

// NewBranchCmd creates the branch command.
func NewBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch <thread> <message> <text...>",
		Short: "Branch off a message (or a highlighted part of it) and send the first message",
		Long: "Branch off a message and send the first message into the new branch.\n\n" +
			"<message> is #n (1-based position) or a message id. Use --text to anchor the\n" +
			"branch to a quote from that message, or --start/--end for rune offsets.",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			parentID, err := resolveThreadID(cmd.Context(), ctx.Session, args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			resp, err := ctx.Session.OpenThread(cmd.Context(), parentID)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			msg, err := resolveMessage(resp.Messages, args[1])
			if err != nil {
				return writeCommandError(cmd, err)
			}

			req := session.BranchRequest{ParentThreadID: parentID, MessageID: msg.ID}
			start, end, err := selectionFlags(cmd, msg.Content)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			req.Start, req.End = start, end

			if _, err := ctx.Session.StartBranch(req); err != nil {
				return writeCommandError(cmd, err)
			}
			ticket, err := ctx.Session.Send(cmd.Context(), joinArgs(args[2:]))
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if !ctx.JSONMode {
				fmt.Fprintf(cmd.ErrOrStderr(), "Created branch %s from %s #%d\n", ticket.ThreadID, parentID, msg.Sequence)
			}
			return finishSend(cmd, ctx, ticket.ThreadID, ticket)
		},
	}

	cmd.Flags().String("text", "", "anchor the branch to this quote from the message")
	cmd.Flags().Int("occurrence", 1, "which occurrence of --text to use")
	cmd.Flags().Int("start", 0, "anchor start (rune offset)")
	cmd.Flags().Int("end", 0, "anchor end (rune offset, exclusive)")
	cmd.Flags().Bool("no-wait", false, "return once the message is accepted")

	return cmd
}

// selectionFlags turns --text/--occurrence or --start/--end into offsets.
// Both nil means a message-level branch.
func selectionFlags(cmd *cobra.Command, content string) (*int, *int, error) {
	flags := cmd.Flags()
	text, _ := flags.GetString("text")
	hasRange := flags.Changed("start") || flags.Changed("end")

	switch {
	case text != "" && hasRange:
		return nil, nil, fmt.Errorf("use either --text or --start/--end, not both")
	case text != "":
		occurrence, _ := flags.GetInt("occurrence")
		if occurrence < 1 {
			return nil, nil, fmt.Errorf("--occurrence must be 1 or more")
		}
		start, end, err := anchor.Locate(content, text, occurrence-1)
		if err != nil {
			return nil, nil, err
		}
		return &start, &end, nil
	case hasRange:
		if !flags.Changed("start") || !flags.Changed("end") {
			return nil, nil, fmt.Errorf("--start and --end must be given together")
		}
		start, _ := flags.GetInt("start")
		end, _ := flags.GetInt("end")
		return &start, &end, nil
	default:
		return nil, nil, nil
	}
}

// NewForkCmd creates the fork command.
func NewForkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fork <thread> <message>",
		Short: "Copy a thread up to a message into a new independent thread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			parentID, err := resolveThreadID(cmd.Context(), ctx.Session, args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			resp, err := ctx.Session.OpenThread(cmd.Context(), parentID)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			msg, err := resolveMessage(resp.Messages, args[1])
			if err != nil {
				return writeCommandError(cmd, err)
			}

			fork, err := ctx.Session.Fork(cmd.Context(), parentID, msg.ID)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(fork)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forked %s at #%d -> %s\n", parentID, msg.Sequence, fork.ID)
			return nil
		},
	}

	return cmd
}
