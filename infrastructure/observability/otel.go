package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/chartforge/domain/telemetry"
)

// tracer adapts an OpenTelemetry tracer to telemetry.Tracer.
type tracer struct {
	t trace.Tracer
}

func newTracer(tp trace.TracerProvider) *tracer {
	return &tracer{t: tp.Tracer(instrumentationName)}
}

func (t *tracer) StartSpan(ctx context.Context, name string, attrs ...telemetry.Attribute) (context.Context, telemetry.Span) {
	ctx, s := t.t.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(otelAttributes(attrs)...),
	)
	return ctx, span{s}
}

type span struct {
	s trace.Span
}

func (s span) End() { s.s.End() }

func (s span) SetAttributes(attrs ...telemetry.Attribute) {
	s.s.SetAttributes(otelAttributes(attrs)...)
}

// RecordError marks the span failed. A nil error is ignored.
func (s span) RecordError(err error) {
	if err == nil {
		return
	}
	s.s.RecordError(err)
	s.s.SetStatus(codes.Error, err.Error())
}

// meter adapts an OpenTelemetry meter to telemetry.Meter. Instruments are
// created once per name, so several compilers built from one provider
// share them.
type meter struct {
	m metric.Meter

	mu         sync.Mutex
	counters   map[string]telemetry.Counter
	histograms map[string]telemetry.Histogram
}

func newMeter(mp metric.MeterProvider) *meter {
	return &meter{
		m:          mp.Meter(instrumentationName),
		counters:   make(map[string]telemetry.Counter),
		histograms: make(map[string]telemetry.Histogram),
	}
}

func (m *meter) Counter(name string, opts ...telemetry.MetricOption) telemetry.Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}

	cfg := telemetry.ApplyMetricOptions(opts...)
	var c telemetry.Counter
	inst, err := m.m.Int64Counter(name, metric.WithDescription(cfg.Description), metric.WithUnit(cfg.Unit))
	if err != nil {
		_, nop := telemetry.Nop()
		c = nop.Counter(name)
	} else {
		c = counter{inst}
	}
	m.counters[name] = c
	return c
}

func (m *meter) Histogram(name string, opts ...telemetry.MetricOption) telemetry.Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.histograms[name]; ok {
		return h
	}

	cfg := telemetry.ApplyMetricOptions(opts...)
	var h telemetry.Histogram
	inst, err := m.m.Float64Histogram(name, metric.WithDescription(cfg.Description), metric.WithUnit(cfg.Unit))
	if err != nil {
		_, nop := telemetry.Nop()
		h = nop.Histogram(name)
	} else {
		h = histogram{inst}
	}
	m.histograms[name] = h
	return h
}

type counter struct {
	c metric.Int64Counter
}

func (c counter) Add(ctx context.Context, value int64, attrs ...telemetry.Attribute) {
	c.c.Add(ctx, value, metric.WithAttributes(otelAttributes(attrs)...))
}

type histogram struct {
	h metric.Float64Histogram
}

func (h histogram) Record(ctx context.Context, value float64, attrs ...telemetry.Attribute) {
	h.h.Record(ctx, value, metric.WithAttributes(otelAttributes(attrs)...))
}

// otelAttributes converts attributes. Chart types and formats arrive as
// fmt.Stringer, column lists as []string and durations in milliseconds.
// Other values are dropped.
func otelAttributes(attrs []telemetry.Attribute) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case string:
			out = append(out, attribute.String(a.Key, v))
		case int:
			out = append(out, attribute.Int(a.Key, v))
		case int64:
			out = append(out, attribute.Int64(a.Key, v))
		case float64:
			out = append(out, attribute.Float64(a.Key, v))
		case bool:
			out = append(out, attribute.Bool(a.Key, v))
		case []string:
			out = append(out, attribute.StringSlice(a.Key, v))
		case time.Duration:
			out = append(out, attribute.Float64(a.Key, float64(v)/float64(time.Millisecond)))
		case fmt.Stringer:
			out = append(out, attribute.String(a.Key, v.String()))
		}
	}
	return out
}

var (
	_ telemetry.Tracer    = (*tracer)(nil)
	_ telemetry.Meter     = (*meter)(nil)
	_ telemetry.Span      = span{}
	_ telemetry.Counter   = counter{}
	_ telemetry.Histogram = histogram{}
)
