// Package logger wires log/slog for both binaries.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/skillpay-payments/internal/config"
)

// NewLogger creates and configures a new slog.Logger. Production gets JSON
// output for log aggregation; development gets the text handler.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source code location to log output
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Application.Env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("app", cfg.Application.Name)

	logger.Info("logger initialized", "level", level)

	return logger
}
