package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adamavenir/tangent/internal/session"
	"github.com/spf13/cobra"
)

// NewRmCmd creates the rm command.
func NewRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <thread>",
		Short: "Delete a thread and everything branched from it",
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
			nav, err := ctx.Session.Navigate(cmd.Context(), id)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			ask := confirmer(cmd, ctx.Force)
			if parentID := nav.Thread.ParentID(); parentID != "" {
				err = ctx.Session.DeleteBranch(cmd.Context(), id, parentID, ask)
			} else {
				_, err = ctx.Session.DeleteThread(cmd.Context(), id, ask)
			}
			if errors.Is(err, session.ErrDeclined) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
				return nil
			}
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"id": id, "deleted": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted thread %s\n", id)
			return nil
		},
	}

	return cmd
}
