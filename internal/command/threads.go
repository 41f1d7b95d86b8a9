package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/types"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

// NewThreadsCmd creates the threads command.
func NewThreadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List root threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			match, _ := cmd.Flags().GetString("match")
			cached, _ := cmd.Flags().GetBool("cached")

			var threads []types.Thread
			if cached {
				threads = ctx.Session.LoadCachedRoots()
			} else {
				threads, err = ctx.Session.RefreshRoots(cmd.Context())
				if err != nil {
					threads = ctx.Session.LoadCachedRoots()
					if len(threads) == 0 {
						return writeCommandError(cmd, err)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: showing cached threads: %v\n", err)
				}
			}

			threads, err = filterThreads(threads, match)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				if threads == nil {
					threads = []types.Thread{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(threads)
			}

			out := cmd.OutOrStdout()
			if len(threads) == 0 {
				fmt.Fprintln(out, "No threads")
				return nil
			}
			for _, thread := range threads {
				fmt.Fprintln(out, threadLine(thread))
			}
			return nil
		},
	}

	cmd.Flags().String("match", "", "only threads whose title matches a glob (e.g. 'sky*')")
	cmd.Flags().Bool("cached", false, "list the locally cached threads without asking the server")

	return cmd
}

// filterThreads keeps threads whose display title matches pattern,
// ignoring case.
func filterThreads(threads []types.Thread, pattern string) ([]types.Thread, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return threads, nil
	}
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid --match pattern: %w", err)
	}
	var out []types.Thread
	for _, thread := range threads {
		if g.Match(strings.ToLower(core.ThreadTitle(thread))) {
			out = append(out, thread)
		}
	}
	return out, nil
}
