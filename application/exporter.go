package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/export"
	"github.com/felixgeelhaar/chartforge/domain/telemetry"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/infrastructure/resilience"
)

// Renderer encodes a renderable spec in the requested format.
type Renderer interface {
	Render(ctx context.Context, spec chart.Spec, req export.Request) ([]byte, error)
}

// ExportCache stores rendered exports by content key.
type ExportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Exporter turns specs into image bytes.
type Exporter struct {
	renderer Renderer
	executor *resilience.Executor
	cache    ExportCache
	tracer   telemetry.Tracer
	bytes    telemetry.Counter
	duration telemetry.Histogram
}

// ExporterConfig contains the exporter's collaborators.
type ExporterConfig struct {
	Renderer Renderer
	Executor *resilience.Executor
	// Cache is optional.
	Cache  ExportCache
	Tracer telemetry.Tracer
	Meter  telemetry.Meter
}

// NewExporter creates an exporter.
func NewExporter(config ExporterConfig) (*Exporter, error) {
	if config.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if config.Executor == nil {
		config.Executor = resilience.NewDefaultExecutor()
	}
	nopTracer, nopMeter := telemetry.Nop()
	if config.Tracer == nil {
		config.Tracer = nopTracer
	}
	if config.Meter == nil {
		config.Meter = nopMeter
	}

	return &Exporter{
		renderer: config.Renderer,
		executor: config.Executor,
		cache:    config.Cache,
		tracer:   config.Tracer,
		bytes: config.Meter.Counter(telemetry.MetricExportBytes,
			telemetry.WithDescription("Bytes exported"), telemetry.WithUnit("By")),
		duration: config.Meter.Histogram(telemetry.MetricExportDuration,
			telemetry.WithDescription("Export render time"), telemetry.WithUnit("ms")),
	}, nil
}

// Export encodes spec. An unsupported format or size is an error even for
// an empty spec; a spec with nothing to render yields zero bytes. Renderer
// failures are wrapped in export.ErrRenderFailed.
func (e *Exporter) Export(ctx context.Context, spec chart.Spec, req export.Request) ([]byte, error) {
	start := time.Now()
	req = req.WithDefaults()
	ctx, span := e.tracer.StartSpan(ctx, telemetry.SpanExport,
		telemetry.String(telemetry.KeyFormat, req.Format.String()),
		telemetry.Int(telemetry.KeyTraces, len(spec.Traces)),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !spec.Renderable() {
		return []byte{}, nil
	}

	key, err := CacheKey(spec, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", export.ErrRenderFailed, err)
	}
	if e.cache != nil {
		data, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			logging.Warn().Add(logging.Key(key)).Add(logging.ErrorField(err)).Msg("export cache read failed")
		} else if ok {
			logging.Debug().Add(logging.Format(req.Format)).Add(logging.Cached(true)).Add(logging.Bytes(len(data))).Msg("chart exported")
			return data, nil
		}
	}

	data, err := e.executor.Render(ctx, func(ctx context.Context) ([]byte, error) {
		return e.renderer.Render(ctx, spec, req)
	})
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", export.ErrRenderFailed, req.Format, err)
		span.RecordError(err)
		logging.Error().Add(logging.Format(req.Format)).Add(logging.ErrorField(err)).Msg("export failed")
		return nil, err
	}

	elapsed := time.Since(start)
	attrs := telemetry.String(telemetry.KeyFormat, req.Format.String())
	e.bytes.Add(ctx, int64(len(data)), attrs)
	e.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, data); err != nil {
			logging.Warn().Add(logging.Key(key)).Add(logging.ErrorField(err)).Msg("export cache write failed")
		}
	}

	logging.Debug().
		Add(logging.Format(req.Format)).
		Add(logging.Bytes(len(data))).
		Add(logging.Duration(elapsed)).
		Msg("chart exported")
	return data, nil
}

// CacheKey identifies a rendered export by its spec and export request.
func CacheKey(spec chart.Spec, req export.Request) (string, error) {
	payload, err := json.Marshal(struct {
		Spec    chart.Spec     `json:"spec"`
		Request export.Request `json:"request"`
	}{spec, req})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]) + req.Format.Extension(), nil
}
