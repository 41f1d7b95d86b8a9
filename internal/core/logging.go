package core

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewLogger returns a JSON logger writing to <data-dir>/logs/tangent.log when
// debug is on, and a discarding logger otherwise. The TUI owns the terminal,
// so nothing is logged to stderr.
func NewLogger(cfg Config) (*slog.Logger, io.Closer, error) {
	if !cfg.Debug {
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	}
	dir := filepath.Join(cfg.DataDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "tangent.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler).With("app", "tangent"), f, nil
}

// WithFields attaches key/value pairs to a logger.
func WithFields(logger *slog.Logger, fields map[string]any) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
