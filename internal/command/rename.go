package command

import (
	"encoding/json"
	"fmt"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/spf13/cobra"
)

// NewRenameCmd creates the rename command.
func NewRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <thread> <title...>",
		Short: "Rename a thread",
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
			thread, err := ctx.Session.Rename(cmd.Context(), id, joinArgs(args[1:]))
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(thread)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", thread.ID, core.ThreadTitle(thread))
			return nil
		},
	}

	return cmd
}
