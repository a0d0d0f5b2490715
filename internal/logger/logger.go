// Package logger builds the slog logger used across the CLI.
package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New creates a logger writing to w.
//
// format "json" selects the structured JSON handler; anything else gets a
// tinted console handler with time-only stamps, which is what humans running
// the CLI want to read.
func New(w io.Writer, level, format string) *slog.Logger {
	logLevel := parseLevel(level)

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.TimeOnly,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
