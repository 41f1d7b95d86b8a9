package command

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/db"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if cfg.Token != "" {
				cfg.Token = "********"
			}
			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(newConfigInitCmd(), newConfigStateCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				def, err := core.DefaultConfigPath()
				if err != nil {
					return writeCommandError(cmd, err)
				}
				path = def
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return writeCommandError(cmd, fmt.Errorf("%s already exists (use --force to overwrite)", path))
			}

			cfg := core.DefaultConfig()
			if server, _ := cmd.Flags().GetString("server"); strings.TrimSpace(server) != "" {
				cfg.ServerURL = strings.TrimSpace(server)
			}
			if err := core.WriteConfigFile(path, cfg); err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

// newConfigStateCmd reads and writes the key/value table in the local
// state database.
func newConfigStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state [key] [value]",
		Short: "Get or set local state values",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			conn, err := db.OpenDatabase(cfg.DataDir)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer conn.Close()
			jsonMode, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				entries, err := db.GetAllConfig(conn)
				if err != nil {
					return writeCommandError(cmd, err)
				}
				if jsonMode {
					return json.NewEncoder(out).Encode(entries)
				}
				for _, entry := range entries {
					fmt.Fprintf(out, "%s: %s\n", entry.Key, entry.Value)
				}
				return nil
			}

			key := normalizeConfigKey(args[0])
			if len(args) == 1 {
				value, err := db.GetConfig(conn, key)
				if err != nil {
					return writeCommandError(cmd, err)
				}
				if value == "" {
					return writeCommandError(cmd, fmt.Errorf("state key '%s' not found", args[0]))
				}
				if jsonMode {
					return json.NewEncoder(out).Encode(map[string]string{key: value})
				}
				fmt.Fprintf(out, "%s: %s\n", key, value)
				return nil
			}

			if err := db.SetConfig(conn, key, args[1]); err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode {
				return json.NewEncoder(out).Encode(map[string]string{key: args[1]})
			}
			fmt.Fprintf(out, "Set %s = %s\n", key, args[1])
			return nil
		},
	}
}

func normalizeConfigKey(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), "-", "_")
}
