// Package telemetry provides the engine's structured logger and
// Prometheus metrics, and the HTTP server that exposes them.
package telemetry

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// InitLogger installs the process-wide JSON logger at the given level
// ("debug", "info", "warn", "error"). Safe to call once at startup; later
// calls are no-ops.
func InitLogger(level string) {
	once.Do(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(level),
		}))
	})
}

// Logger returns the process-wide logger, installing a sane default if
// InitLogger was never called.
func Logger() *slog.Logger {
	if logger == nil {
		InitLogger("info")
	}
	return logger
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
