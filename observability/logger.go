// Package observability provides the logging, metrics and tracing hooks used
// by the fakeit container.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Everything is opt-in; the container falls back to discarding loggers and
// no-op recorders.
package observability

import (
	"io"
	"log/slog"
	"time"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// EnrichLogger tags a logger with the owning container id.
func EnrichLogger(logger *slog.Logger, containerID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("container_id", containerID))
}

// LogRegistered logs a new binding.
func LogRegistered(logger *slog.Logger, key, lifetime string) {
	if logger == nil {
		return
	}
	logger.Debug("component registered",
		slog.String("key", key),
		slog.String("lifetime", lifetime),
	)
}

// LogUnregistered logs a lookup of a key with no binding.
func LogUnregistered(logger *slog.Logger, key string) {
	if logger == nil {
		return
	}
	logger.Warn("component not registered",
		slog.String("key", key),
	)
}

// LogSingletonConstructed logs the one successful run of a singleton factory.
func LogSingletonConstructed(logger *slog.Logger, key string, took time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("singleton constructed",
		slog.String("key", key),
		slog.Float64("duration_ms", durationMs(took)),
	)
}

// LogSingletonFailed logs a failed singleton factory run. The cell is retried
// on the next resolve.
func LogSingletonFailed(logger *slog.Logger, key string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("singleton factory failed",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
