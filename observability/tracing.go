package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager handles trace spans around singleton construction.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartConstructionSpan starts a span for one singleton factory run.
	StartConstructionSpan(ctx context.Context, key string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager that uses the global OTel tracer
// provider. Configure the provider before calling this function.
func NewSpanManager() SpanManager {
	return NewSpanManagerWithProvider(otel.GetTracerProvider())
}

// NewSpanManagerWithProvider is NewSpanManager for an explicit provider.
func NewSpanManagerWithProvider(provider trace.TracerProvider) SpanManager {
	return &otelSpanManager{tracer: provider.Tracer(MeterName)}
}

// StartConstructionSpan starts a span for one singleton factory run.
func (m *otelSpanManager) StartConstructionSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "fakeit.singleton.construct",
		trace.WithAttributes(attribute.String("component.key", key)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
