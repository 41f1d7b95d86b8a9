package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServerURL      = "http://localhost:8000"
	DefaultPollInterval   = time.Second
	DefaultPollAttempts   = 60
	DefaultRequestTimeout = 20 * time.Second

	envPrefix = "TANGENT_"
)

// Config holds client settings. Later sources override earlier ones:
// defaults, the YAML config file, a .env file, then the environment.
type Config struct {
	ServerURL      string        `yaml:"server_url"`
	Token          string        `yaml:"token,omitempty"`
	DataDir        string        `yaml:"data_dir,omitempty"`
	PollInterval   time.Duration `yaml:"poll_interval,omitempty"`
	PollAttempts   int           `yaml:"poll_attempts,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	RateLimit      float64       `yaml:"rate_limit,omitempty"`
	Provider       string        `yaml:"provider,omitempty"`
	Model          string        `yaml:"model,omitempty"`
	Debug          bool          `yaml:"debug,omitempty"`
	Notify         *bool         `yaml:"notify,omitempty"`
}

// LoadOptions point Load at non-default files.
type LoadOptions struct {
	ConfigPath string
	EnvFile    string
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		ServerURL:      DefaultServerURL,
		PollInterval:   DefaultPollInterval,
		PollAttempts:   DefaultPollAttempts,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// NotifyEnabled reports whether desktop notifications are on (default yes).
func (c Config) NotifyEnabled() bool {
	return c.Notify == nil || *c.Notify
}

// ConfigDir returns ~/.config/tangent.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tangent"), nil
}

// DefaultConfigPath returns the YAML config location.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load resolves the effective configuration.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	path := opts.ConfigPath
	if path == "" {
		if envPath := os.Getenv(envPrefix + "CONFIG"); envPath != "" {
			path = envPath
		} else if def, err := DefaultConfigPath(); err == nil {
			path = def
		}
	}
	if path != "" {
		if err := readConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", envFile, err)
	}
	lookup := func(key string) (string, bool) {
		if value, ok := os.LookupEnv(envPrefix + key); ok {
			return value, true
		}
		value, ok := dotenv[envPrefix+key]
		return value, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if cfg.DataDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DataDir = dir
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return errors.New("server url is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.PollAttempts <= 0 {
		return fmt.Errorf("poll attempts must be positive, got %d", c.PollAttempts)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative, got %v", c.RateLimit)
	}
	return nil
}

func readConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// WriteConfigFile writes cfg as YAML, creating the directory if needed.
func WriteConfigFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("SERVER_URL"); ok {
		cfg.ServerURL = v
	}
	if v, ok := lookup("TOKEN"); ok {
		cfg.Token = v
	}
	if v, ok := lookup("DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := lookup("PROVIDER"); ok {
		cfg.Provider = v
	}
	if v, ok := lookup("MODEL"); ok {
		cfg.Model = v
	}
	if v, ok := lookup("POLL_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sPOLL_INTERVAL: %w", envPrefix, err)
		}
		cfg.PollInterval = d
	}
	if v, ok := lookup("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := lookup("POLL_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPOLL_ATTEMPTS: %w", envPrefix, err)
		}
		cfg.PollAttempts = n
	}
	if v, ok := lookup("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", envPrefix, err)
		}
		cfg.RateLimit = f
	}
	if v, ok := lookup("DEBUG"); ok {
		cfg.Debug = parseBool(v)
	}
	if v, ok := lookup("NOTIFY"); ok {
		enabled := parseBool(v)
		cfg.Notify = &enabled
	}
	return nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
