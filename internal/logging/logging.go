// Package logging configures the process-wide slog logger.
//
// LOG_FORMAT selects the handler: "json" (default) writes JSON to stdout for
// log shipping, "text" writes colored output to stderr via tint for local use.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup builds a logger for the given level and format, installs it as the
// slog default, and returns it.
func Setup(level, format string) *slog.Logger {
	logger := New(os.Stdout, os.Stderr, ParseLevel(level), format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger without touching the slog default.
func New(stdout, stderr io.Writer, level slog.Level, format string) *slog.Logger {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.New(tint.NewHandler(stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps debug, warn, and error to their slog levels; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
