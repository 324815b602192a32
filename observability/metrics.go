package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope used for container metrics.
const MeterName = "github.com/centraunit/fakeit"

// MetricsRecorder records container metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordResolution records one Resolve call and whether it failed.
	RecordResolution(ctx context.Context, key, lifetime string, err error)

	// RecordConstruction records one run of a singleton factory.
	RecordConstruction(ctx context.Context, key string, duration time.Duration, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	resolutions        metric.Int64Counter
	resolutionErrors   metric.Int64Counter
	constructions      metric.Int64Counter
	constructionErrors metric.Int64Counter
	constructionTime   metric.Float64Histogram
}

// newOtelMetrics creates the instruments on the given provider.
func newOtelMetrics(provider metric.MeterProvider) (*otelMetrics, error) {
	meter := provider.Meter(MeterName)

	resolutions, err := meter.Int64Counter("fakeit.resolutions",
		metric.WithDescription("Number of Resolve calls"),
	)
	if err != nil {
		return nil, err
	}

	resolutionErrors, err := meter.Int64Counter("fakeit.resolution.errors",
		metric.WithDescription("Number of failed Resolve calls"),
	)
	if err != nil {
		return nil, err
	}

	constructions, err := meter.Int64Counter("fakeit.singleton.constructions",
		metric.WithDescription("Number of singleton factory runs"),
	)
	if err != nil {
		return nil, err
	}

	constructionErrors, err := meter.Int64Counter("fakeit.singleton.construction.errors",
		metric.WithDescription("Number of failed singleton factory runs"),
	)
	if err != nil {
		return nil, err
	}

	constructionTime, err := meter.Float64Histogram("fakeit.singleton.construction.latency_ms",
		metric.WithDescription("Singleton factory latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		resolutions:        resolutions,
		resolutionErrors:   resolutionErrors,
		constructions:      constructions,
		constructionErrors: constructionErrors,
		constructionTime:   constructionTime,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If instrument creation fails, a no-op recorder is returned.
func NewMetricsRecorder() MetricsRecorder {
	return NewMetricsRecorderWithProvider(otel.GetMeterProvider())
}

// NewMetricsRecorderWithProvider is NewMetricsRecorder for an explicit provider.
func NewMetricsRecorderWithProvider(provider metric.MeterProvider) MetricsRecorder {
	m, err := newOtelMetrics(provider)
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordResolution records a Resolve call.
func (m *otelMetrics) RecordResolution(ctx context.Context, key, lifetime string, err error) {
	attrs := metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("lifetime", lifetime),
	)
	m.resolutions.Add(ctx, 1, attrs)
	if err != nil {
		m.resolutionErrors.Add(ctx, 1, attrs)
	}
}

// RecordConstruction records a singleton factory run.
func (m *otelMetrics) RecordConstruction(ctx context.Context, key string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("key", key),
		attribute.Bool("success", err == nil),
	)
	m.constructions.Add(ctx, 1, attrs)
	m.constructionTime.Record(ctx, durationMs(duration), attrs)
	if err != nil {
		m.constructionErrors.Add(ctx, 1, attrs)
	}
}
