package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordResolution does nothing.
func (NoopMetrics) RecordResolution(_ context.Context, _, _ string, _ error) {}

// RecordConstruction does nothing.
func (NoopMetrics) RecordConstruction(_ context.Context, _ string, _ time.Duration, _ error) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartConstructionSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartConstructionSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}
