package observability

import (
	"context"
	"time"

	"marketgate/internal/upstream"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedProvider wraps an upstream.Provider implementation with
// OpenTelemetry tracing and metrics instrumentation. Every provider call
// produces a span, a latency histogram sample, and an error counter
// increment on failure.
type InstrumentedProvider struct {
	inner    upstream.Provider
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedProvider creates a provider wrapper that records trace spans,
// call latency histograms, and error counters for every upstream method call.
func NewInstrumentedProvider(inner upstream.Provider) (*InstrumentedProvider, error) {
	tracer := otel.Tracer("marketgate/upstream")
	meter := otel.Meter("marketgate/upstream")

	duration, err := meter.Float64Histogram(
		"upstream.request.duration",
		metric.WithDescription("Duration of upstream provider calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"upstream.request.errors",
		metric.WithDescription("Number of failed upstream provider calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedProvider{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (p *InstrumentedProvider) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.tracer.Start(ctx, "upstream."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("upstream.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (p *InstrumentedProvider) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	p.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		p.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (p *InstrumentedProvider) Snapshot(ctx context.Context, direction string) (map[string]interface{}, error) {
	ctx, span := p.startSpan(ctx, "Snapshot", attribute.String("direction", direction))
	start := time.Now()
	result, err := p.inner.Snapshot(ctx, direction)
	p.record(ctx, span, "Snapshot", start, err)
	return result, err
}

func (p *InstrumentedProvider) Aggs(ctx context.Context, symbol string, multiplier int, timespan, day string) (*upstream.AggsResponse, error) {
	ctx, span := p.startSpan(ctx, "Aggs",
		attribute.String("symbol", symbol),
		attribute.Int("multiplier", multiplier),
		attribute.String("timespan", timespan),
		attribute.String("day", day),
	)
	start := time.Now()
	result, err := p.inner.Aggs(ctx, symbol, multiplier, timespan, day)
	p.record(ctx, span, "Aggs", start, err)
	return result, err
}

func (p *InstrumentedProvider) TickerDetails(ctx context.Context, symbol string) (map[string]interface{}, error) {
	ctx, span := p.startSpan(ctx, "TickerDetails", attribute.String("symbol", symbol))
	start := time.Now()
	result, err := p.inner.TickerDetails(ctx, symbol)
	p.record(ctx, span, "TickerDetails", start, err)
	return result, err
}

func (p *InstrumentedProvider) News(ctx context.Context, symbol string, limit int) (map[string]interface{}, error) {
	ctx, span := p.startSpan(ctx, "News",
		attribute.String("symbol", symbol),
		attribute.Int("limit", limit),
	)
	start := time.Now()
	result, err := p.inner.News(ctx, symbol, limit)
	p.record(ctx, span, "News", start, err)
	return result, err
}
