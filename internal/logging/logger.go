// Package logging provides structured logging for arr-scraper.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a structured logger writing to stderr. Format is "json"
// (default) or "text"; verbose forces debug level regardless of level.
func NewLogger(format, level string, verbose bool) *slog.Logger {
	if verbose {
		level = "debug"
	}
	return NewLoggerWithWriter(os.Stderr, format, level)
}

// NewLoggerWithWriter is NewLogger with an explicit sink, for tests.
func NewLoggerWithWriter(w io.Writer, format, level string) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetDefault sets the default logger for the slog package.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
