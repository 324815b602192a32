package fakeit

import (
	"log/slog"
	"os"
	"strings"

	"github.com/centraunit/fakeit/config"
	"github.com/centraunit/fakeit/observability"
)

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger. A nil logger keeps the discarding default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *Container) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager sets the tracer used around singleton construction.
func WithSpanManager(s observability.SpanManager) Option {
	return func(c *Container) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithReentrancyDetection toggles the check that turns a singleton factory
// resolving its own key into a ReentrantResolutionError. Without it such a
// factory deadlocks.
func WithReentrancyDetection(enabled bool) Option {
	return func(c *Container) {
		c.detectReentrancy = enabled
	}
}

// WithID overrides the generated container id.
func WithID(id string) Option {
	return func(c *Container) {
		if id != "" {
			c.id = id
		}
	}
}

// WithConfig applies loaded settings. Only sections the config turns on
// replace earlier options: a text or json log format installs a stderr
// logger, and enabled metrics or tracing use the global OTel providers.
// ReentrancyDetection is always applied.
func WithConfig(cfg config.Config) Option {
	return func(c *Container) {
		c.detectReentrancy = cfg.ReentrancyDetection
		switch strings.ToLower(cfg.Log.Format) {
		case "text", "json":
			c.logger = cfg.Logger(os.Stderr)
		}
		if cfg.Metrics.Enabled {
			c.metrics = observability.NewMetricsRecorder()
		}
		if cfg.Tracing.Enabled {
			c.spans = observability.NewSpanManager()
		}
	}
}
