package command

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

const AppName = "tangent"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Tangent - branching conversations in the terminal",
		Long:          "Tangent is a terminal client for branching conversations: highlight part of a reply and follow it in a side thread without losing your place.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("server", "", "conversation server url (overrides config)")
	cmd.PersistentFlags().String("config", "", "path to config.yaml")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().Bool("debug", false, "write debug logs to the data directory")
	cmd.PersistentFlags().Bool("force", false, "force action (skip confirmations)")

	cmd.AddCommand(
		NewChatCmd(),
		NewThreadsCmd(),
		NewShowCmd(),
		NewChildrenCmd(),
		NewNewCmd(),
		NewSendCmd(),
		NewBranchCmd(),
		NewForkCmd(),
		NewRenameCmd(),
		NewRmCmd(),
		NewConfigCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command; ctx is cancelled on interrupt.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd(Version).ExecuteContext(ctx)
}
