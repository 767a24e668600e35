// Package observability provides OpenTelemetry tracing and metrics for the
// chart pipeline.
package observability

import (
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
)

// ExporterType names a span exporter.
type ExporterType string

// Span exporters. OTLP speaks gRPC to a collector such as Tempo or Jaeger.
const (
	ExporterOTLP   ExporterType = "otlp"
	ExporterStdout ExporterType = "stdout"
	ExporterNoop   ExporterType = "noop"
)

// Config configures a Provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	Tracing TracingConfig

	// Metrics aggregates measurements in process for Provider.Snapshot.
	Metrics bool
}

// TracingConfig selects and tunes the span exporter.
type TracingConfig struct {
	Enabled  bool
	Exporter ExporterType
	// Endpoint is the collector address for OTLP, e.g. localhost:4317.
	Endpoint string
	Insecure bool
	// SampleRate is between 0 and 1.
	SampleRate float64

	BatchTimeout       time.Duration
	MaxExportBatchSize int

	// spanExporter overrides Exporter and exports synchronously.
	spanExporter sdktrace.SpanExporter
}

// DefaultConfig turns tracing and metrics off.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "chartforge",
		ServiceVersion: "dev",
		Environment:    "development",
		Tracing: TracingConfig{
			Exporter:           ExporterNoop,
			SampleRate:         1.0,
			BatchTimeout:       5 * time.Second,
			MaxExportBatchSize: 512,
		},
	}
}

// Option configures a Provider.
type Option func(*Config)

// FromConfig translates the observability section of a config file.
func FromConfig(cfg domainconfig.ObservabilityConfig) []Option {
	var opts []Option
	if cfg.ServiceName != "" {
		opts = append(opts, WithServiceName(cfg.ServiceName))
	}
	if t := cfg.Tracing; t.Enabled {
		exporter := ExporterType(t.Exporter)
		if exporter == "" {
			exporter = ExporterNoop
		}
		opts = append(opts, WithTracing(exporter, t.Endpoint))
		if t.SampleRate > 0 {
			opts = append(opts, WithSampleRate(t.SampleRate))
		}
		if t.Insecure {
			opts = append(opts, WithTracingInsecure())
		}
	}
	if cfg.Metrics {
		opts = append(opts, WithMetrics())
	}
	return opts
}

func WithServiceName(name string) Option {
	return func(c *Config) { c.ServiceName = name }
}

func WithServiceVersion(version string) Option {
	return func(c *Config) { c.ServiceVersion = version }
}

// WithTracing enables tracing through exporter.
func WithTracing(exporter ExporterType, endpoint string) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.Exporter = exporter
		c.Tracing.Endpoint = endpoint
	}
}

// WithTracingInsecure dials the OTLP collector without TLS.
func WithTracingInsecure() Option {
	return func(c *Config) { c.Tracing.Insecure = true }
}

func WithSampleRate(rate float64) Option {
	return func(c *Config) { c.Tracing.SampleRate = rate }
}

// WithMetrics enables the in-process meter read by /v1/metrics.
func WithMetrics() Option {
	return func(c *Config) { c.Metrics = true }
}

// WithSpanExporter sends spans to exp as they end. Tests use it with an
// in-memory exporter.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.spanExporter = exp
	}
}
