package command

import (
	"database/sql"
	"io"
	"log/slog"
	"strings"

	"github.com/adamavenir/tangent/internal/api"
	"github.com/adamavenir/tangent/internal/core"
	"github.com/adamavenir/tangent/internal/db"
	"github.com/adamavenir/tangent/internal/session"
	"github.com/spf13/cobra"
)

// CommandContext provides shared command resources.
type CommandContext struct {
	Config   core.Config
	DB       *sql.DB
	Store    *db.Store
	Client   *api.Client
	Session  *session.Session
	Logger   *slog.Logger
	JSONMode bool
	Force    bool

	logCloser io.Closer
}

// Close stops the session and releases the database and log file.
func (c *CommandContext) Close() {
	if c.Session != nil {
		c.Session.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
	if c.logCloser != nil {
		_ = c.logCloser.Close()
	}
}

// GetContext resolves configuration, local state and the server session
// for a command.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	jsonMode, _ := cmd.Flags().GetBool("json")
	force, _ := cmd.Flags().GetBool("force")

	logger, logCloser, err := core.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	logger = core.WithFields(logger, map[string]any{"command": cmd.Name()})

	conn, err := db.OpenDatabase(cfg.DataDir)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	client, err := api.NewClient(cfg.ServerURL, api.Options{
		Token:     cfg.Token,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		_ = conn.Close()
		_ = logCloser.Close()
		return nil, err
	}

	store := db.NewStore(conn)
	sess := session.New(client, session.Options{
		Store:        store,
		Logger:       logger,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
		Provider:     cfg.Provider,
		Model:        cfg.Model,
	})

	return &CommandContext{
		Config:    cfg,
		DB:        conn,
		Store:     store,
		Client:    client,
		Session:   sess,
		Logger:    logger,
		JSONMode:  jsonMode,
		Force:     force,
		logCloser: logCloser,
	}, nil
}

// loadConfig applies the persistent flags on top of the file and
// environment settings.
func loadConfig(cmd *cobra.Command) (core.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := core.Load(core.LoadOptions{ConfigPath: configPath})
	if err != nil {
		return core.Config{}, err
	}

	if server, _ := cmd.Flags().GetString("server"); strings.TrimSpace(server) != "" {
		cfg.ServerURL = strings.TrimSpace(server)
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}
