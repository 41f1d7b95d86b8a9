package command

import (
	"fmt"

	"github.com/adamavenir/tangent/internal/chat"
	"github.com/adamavenir/tangent/internal/db"
	"github.com/spf13/cobra"
)

// lastThreadKey remembers the thread the previous chat session ended on.
const lastThreadKey = "last_thread"

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [thread]",
		Short: "Interactive chat mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return writeCommandError(cmd, fmt.Errorf("--json not supported for interactive chat"))
			}

			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			threadID := ""
			if len(args) > 0 {
				threadID, err = resolveThreadID(cmd.Context(), ctx.Session, args[0])
				if err != nil {
					return writeCommandError(cmd, err)
				}
			} else if resume, _ := cmd.Flags().GetBool("resume"); resume {
				threadID, err = db.GetConfig(ctx.DB, lastThreadKey)
				if err != nil {
					return writeCommandError(cmd, err)
				}
			}

			err = chat.Run(chat.Options{
				Session:  ctx.Session,
				ThreadID: threadID,
				Notify:   ctx.Config.NotifyEnabled(),
				Logger:   ctx.Logger,
			})
			if last := ctx.Session.CurrentThreadID(); last != "" {
				if err := db.SetConfig(ctx.DB, lastThreadKey, last); err != nil {
					ctx.Logger.Warn("save last thread failed", "error", err)
				}
			}
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().Bool("resume", false, "reopen the thread the last session ended on")

	return cmd
}
