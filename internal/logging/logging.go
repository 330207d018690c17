// Package logging provides structured logging configuration for yolobridge.
//
// Logs default to JSON on stdout so the service can run under systemd or a
// container runtime and have its output parsed downstream. A text format is
// available for interactive use. Source locations are included for
// debugging, and the level is configurable from the config file.
//
// Usage:
//
//	logger := logging.SetupLogger("info", "json")
//	logger.Info("run completed", "run_id", id, "exit_code", code)
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SetupLogger creates and configures the service logger.
// level accepts "debug", "info", "warn", "error" (case-insensitive);
// unrecognized values fall back to "info". format accepts "json" or
// "text"; anything else falls back to "json".
//
// The logger is also installed as the slog default so package-level
// slog.Info() etc. route through the same handler.
func SetupLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Shorten source paths to the module-relative portion
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					if idx := strings.Index(source.File, "internal/"); idx != -1 {
						source.File = source.File[idx:]
					} else {
						source.File = filepath.Base(source.File)
					}
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a logger with a pre-set component attribute,
// used to tag all logs from a subsystem (server, scheduler, notify, ...).
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}
