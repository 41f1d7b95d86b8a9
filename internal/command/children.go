package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/spf13/cobra"
)

// NewChildrenCmd creates the children command.
func NewChildrenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children <thread>",
		Short: "Show where a thread sits in its tree and the branches off it",
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

			if ctx.JSONMode {
				children := nav.Children
				if children == nil {
					children = []types.Thread{}
				}
				payload := map[string]any{
					"thread":   nav.Thread,
					"parent":   nav.Parent,
					"root":     nav.Root,
					"children": children,
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			titles := make([]string, 0, len(nav.Path))
			for _, thread := range nav.Path {
				titles = append(titles, core.ThreadTitle(thread))
			}
			if len(titles) > 0 {
				fmt.Fprintln(out, strings.Join(titles, " › "))
			}
			if nav.Parent != nil {
				fmt.Fprintf(out, "parent: %s\n", threadLine(*nav.Parent))
			}
			if nav.Root != nil {
				fmt.Fprintf(out, "origin: %s\n", threadLine(*nav.Root))
			}
			if len(nav.Children) == 0 {
				fmt.Fprintln(out, "No branches")
				return nil
			}
			for _, child := range nav.Children {
				marker := "↳"
				if child.Kind() == types.ThreadTypeFork {
					marker = "⑂"
				}
				fmt.Fprintf(out, "%s %s\n", marker, threadLine(child))
			}
			return nil
		},
	}

	return cmd
}
