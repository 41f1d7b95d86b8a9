package command

import (
	"encoding/json"
	"fmt"

	"github.com/adamavenir/tangent/internal/reconcile"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/spf13/cobra"
)

// NewNewCmd creates the new command.
func NewNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <message...>",
		Short: "Start a new thread with a first message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			thread, ticket, err := ctx.Session.NewThread(cmd.Context(), joinArgs(args))
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return finishSend(cmd, ctx, thread.ID, ticket)
		},
	}

	cmd.Flags().Bool("no-wait", false, "return once the message is accepted")

	return cmd
}

// NewSendCmd creates the send command.
func NewSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <thread> <message...>",
		Short: "Send a message to a thread and print the reply",
		Args:  cobra.MinimumNArgs(2),
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
			if _, err := ctx.Session.OpenThread(cmd.Context(), id); err != nil {
				return writeCommandError(cmd, err)
			}
			ticket, err := ctx.Session.SendTo(cmd.Context(), id, joinArgs(args[1:]))
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return finishSend(cmd, ctx, id, ticket)
		},
	}

	cmd.Flags().Bool("no-wait", false, "return once the message is accepted")

	return cmd
}

// finishSend waits for the reply unless --no-wait was given and prints it.
func finishSend(cmd *cobra.Command, ctx *CommandContext, threadID string, ticket *reconcile.Ticket) error {
	out := cmd.OutOrStdout()
	noWait, _ := cmd.Flags().GetBool("no-wait")
	if noWait || ticket == nil {
		if ctx.JSONMode {
			return json.NewEncoder(out).Encode(map[string]any{"thread_id": threadID, "state": "sent"})
		}
		fmt.Fprintf(out, "Sent to %s\n", threadID)
		return nil
	}

	reply, err := waitReply(cmd.Context(), ctx.Session, ticket)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	if ctx.JSONMode {
		return json.NewEncoder(out).Encode(struct {
			ThreadID string        `json:"thread_id"`
			Reply    types.Message `json:"reply"`
		}{threadID, reply})
	}
	fmt.Fprintf(out, "[%s]\n%s\n", threadID, reply.Content)
	return nil
}
