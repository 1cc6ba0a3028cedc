package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig selects level, format and destination for the process logger.
type LogConfig struct {
	Level  string    // debug, info, warn, error
	Format string    // text, json
	Output io.Writer // defaults to os.Stderr
}

// NewLogger builds the process-wide structured logger. Output defaults to
// stderr so stdout stays clean for command output and the MCP stream.
func NewLogger(cfg LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// DiscardLogger returns a logger that drops everything. Used as the default
// for components constructed without one.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Component returns l tagged with a component attribute, tolerating nil.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = DiscardLogger()
	}
	return l.With("component", name)
}
