// Package telemetry is the tracing and metrics port of the chart pipeline.
// The OpenTelemetry adapter lives in infrastructure/observability; Nop
// serves tests and disabled telemetry.
package telemetry

import "context"

// Spans.
const (
	SpanCompile = "chart.compile"
	SpanCompose = "chart.compose"
	SpanExport  = "chart.export"
	SpanPublish = "chart.publish"
	SpanLoad    = "dataset.load"
)

// Instruments.
const (
	MetricCompileTotal   = "chartforge.compile.total"
	MetricCompileEmpty   = "chartforge.compile.empty"
	MetricExportBytes    = "chartforge.export.bytes"
	MetricExportDuration = "chartforge.export.duration_ms"
)

// Attribute keys shared by spans and instruments.
const (
	KeyChartType = "chart.type"
	KeyFormat    = "export.format"
	KeyRows      = "dataset.rows"
	KeyTraces    = "chart.traces"
	KeyCells     = "chart.cells"
	KeyReason    = "chart.reason"
)

// Attribute annotates a span or a measurement. Value is one of string,
// int, int64, float64, bool, []string, time.Duration or a fmt.Stringer;
// adapters drop anything else.
type Attribute struct {
	Key   string
	Value any
}

func String(key, v string) Attribute          { return Attribute{key, v} }
func Int(key string, v int) Attribute         { return Attribute{key, v} }
func Float64(key string, v float64) Attribute { return Attribute{key, v} }
func Bool(key string, v bool) Attribute       { return Attribute{key, v} }

type Tracer interface {
	// StartSpan returns ctx carrying the new span.
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	// RecordError marks the span failed.
	RecordError(err error)
}

// Meter hands out instruments. Asking twice for a name returns the same
// instrument.
type Meter interface {
	Counter(name string, opts ...MetricOption) Counter
	Histogram(name string, opts ...MetricOption) Histogram
}

type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// MetricConfig is the metadata an instrument is registered with.
type MetricConfig struct {
	Description string
	Unit        string
}

type MetricOption func(*MetricConfig)

func WithDescription(d string) MetricOption { return func(c *MetricConfig) { c.Description = d } }
func WithUnit(u string) MetricOption        { return func(c *MetricConfig) { c.Unit = u } }

func ApplyMetricOptions(opts ...MetricOption) MetricConfig {
	var c MetricConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
