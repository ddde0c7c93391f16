// Package logging configures the process-wide slog logger.
//
// All components log through slog; Configure is called once at startup and
// installs the returned logger as the default.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls handler selection and base attributes.
type Config struct {
	Level            string            // DEBUG, INFO, WARN, ERROR (default INFO)
	Structured       bool              // false = plain text handler
	StructuredFormat string            // "json" or "text"
	IncludePID       bool              // attach the process id to every record
	ExtraFields      map[string]string // static attributes, e.g. instance name
}

// Configure builds a logger from cfg, installs it as the slog default, and
// returns it.
func Configure(cfg Config) *slog.Logger {
	out := io.Writer(os.Stderr)
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Structured && strings.EqualFold(cfg.StructuredFormat, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	attrs := make([]slog.Attr, 0, len(cfg.ExtraFields)+1)
	for k, v := range cfg.ExtraFields {
		attrs = append(attrs, slog.String(k, v))
	}
	if cfg.IncludePID {
		attrs = append(attrs, slog.Int("pid", os.Getpid()))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
