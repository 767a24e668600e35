package observability

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/chartforge/domain/telemetry"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// instrumentationName scopes chartforge spans and instruments.
const instrumentationName = "github.com/felixgeelhaar/chartforge"

var log = logging.Scope("observability")

// Provider owns the OpenTelemetry SDK providers and hands their adapters to
// the pipeline. Either half stays a no-op unless configured.
type Provider struct {
	config   Config
	reader   *sdkmetric.ManualReader
	tracer   telemetry.Tracer
	meter    telemetry.Meter
	shutdown []func(context.Context) error
}

// New starts the configured providers. Tracing installs the global tracer
// provider and W3C propagators so inbound HTTP trace context is honoured.
func New(opts ...Option) (*Provider, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Provider{config: cfg}
	p.tracer, p.meter = telemetry.Nop()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)

	if cfg.Tracing.Enabled {
		if err := p.startTracing(res); err != nil {
			return nil, err
		}
	}
	if cfg.Metrics {
		p.startMetrics(res)
	}

	log.Info().
		Add(logging.Str("service", cfg.ServiceName)).
		Add(logging.Str("tracing", string(p.traceExporter()))).
		Add(logging.Str("metrics", strconv.FormatBool(cfg.Metrics))).
		Msg("telemetry ready")
	return p, nil
}

// exporter builds the span exporter and reports whether spans should be
// exported synchronously. A nil exporter means tracing stays off.
func (p *Provider) exporter(ctx context.Context) (sdktrace.SpanExporter, bool, error) {
	t := p.config.Tracing
	switch {
	case t.spanExporter != nil:
		return t.spanExporter, true, nil
	case t.Exporter == ExporterNoop:
		return nil, false, nil
	case t.Exporter == ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		return exp, false, err
	case t.Exporter == ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(t.Endpoint),
			otlptracegrpc.WithDialOption(grpc.WithUserAgent(p.config.ServiceName + "/" + p.config.ServiceVersion)),
		}
		if t.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		return exp, false, err
	default:
		return nil, false, fmt.Errorf("trace exporter %q: unknown", t.Exporter)
	}
}

func (p *Provider) startTracing(res *resource.Resource) error {
	exp, sync, err := p.exporter(context.Background())
	if err != nil {
		return fmt.Errorf("trace exporter: %w", err)
	}
	if exp == nil {
		return nil
	}

	processor := sdktrace.WithBatcher(exp,
		sdktrace.WithBatchTimeout(p.config.Tracing.BatchTimeout),
		sdktrace.WithMaxExportBatchSize(p.config.Tracing.MaxExportBatchSize),
	)
	if sync {
		processor = sdktrace.WithSyncer(exp)
	}

	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(p.config.Tracing.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	p.tracer = newTracer(tp)
	p.shutdown = append(p.shutdown, tp.Shutdown)
	return nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// startMetrics keeps measurements in process; Snapshot reads them on demand.
func (p *Provider) startMetrics(res *resource.Resource) {
	p.reader = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(p.reader))
	p.meter = newMeter(mp)
	p.shutdown = append(p.shutdown, mp.Shutdown)
}

func (p *Provider) traceExporter() ExporterType {
	switch {
	case !p.config.Tracing.Enabled:
		return ExporterNoop
	case p.config.Tracing.spanExporter != nil:
		return "custom"
	default:
		return p.config.Tracing.Exporter
	}
}

func (p *Provider) Tracer() telemetry.Tracer { return p.tracer }
func (p *Provider) Meter() telemetry.Meter   { return p.meter }

// MetricsEnabled reports whether Snapshot returns measurements.
func (p *Provider) MetricsEnabled() bool { return p.reader != nil }

// Snapshot flattens the current measurements: a counter under its name
// summed over attributes, a histogram as name.count and name.sum.
func (p *Provider) Snapshot(ctx context.Context) (map[string]float64, error) {
	out := make(map[string]float64)
	if p.reader == nil {
		return out, nil
	}

	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			flatten(out, m)
		}
	}
	return out, nil
}

func flatten(out map[string]float64, m metricdata.Metrics) {
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			out[m.Name] += float64(dp.Value)
		}
	case metricdata.Sum[float64]:
		for _, dp := range data.DataPoints {
			out[m.Name] += dp.Value
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			out[m.Name+".count"] += float64(dp.Count)
			out[m.Name+".sum"] += dp.Sum
		}
	}
}

// Shutdown flushes pending spans and stops the providers, last started
// first.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, p.shutdown[i](ctx))
	}
	return errors.Join(errs...)
}

// NewNoopProvider records nothing.
func NewNoopProvider() *Provider {
	p := &Provider{config: DefaultConfig()}
	p.tracer, p.meter = telemetry.Nop()
	return p
}
