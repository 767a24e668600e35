package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/chartforge/application"
	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/domain/export"
	"github.com/felixgeelhaar/chartforge/domain/telemetry"
	"github.com/felixgeelhaar/chartforge/infrastructure/loader"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/infrastructure/observability"
	"github.com/felixgeelhaar/chartforge/infrastructure/render/echarts"
	"github.com/felixgeelhaar/chartforge/infrastructure/render/plot"
	"github.com/felixgeelhaar/chartforge/infrastructure/resilience"
)

// Service errors.
var (
	// ErrUnknownDataset indicates a dataset name that is not configured.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrPublishingDisabled indicates that no artifact store is configured.
	ErrPublishingDisabled = errors.New("publishing is disabled")

	// ErrNothingToExport indicates a chart that compiled without data.
	ErrNothingToExport = errors.New("chart has nothing to export")
)

// Service compiles, composes, exports and publishes charts of configured
// datasets. It is safe for concurrent use.
type Service struct {
	sources   map[string]config.SourceConfig
	order     []string
	loader    loader.Loader
	compiler  *application.Compiler
	composer  *application.Composer
	exporter  *application.Exporter
	previewer *echarts.Previewer
	store     artifact.Store
	executor  *resilience.Executor
	provider  *observability.Provider
	tracer    telemetry.Tracer
	defaults  export.Request
	closers   []func() error

	mu       sync.RWMutex
	datasets map[string]*dataset.Dataset
}

// options collects the collaborators given to New.
type options struct {
	sources  []config.SourceConfig
	datasets map[string]*dataset.Dataset
	loader   loader.Loader
	renderer application.Renderer
	store    artifact.Store
	cache    application.ExportCache
	executor *resilience.Executor
	provider *observability.Provider
	defaults export.Request
	compose  application.ComposeOptions
	closers  []func() error
}

// Option configures a Service.
type Option func(*options)

// WithSource registers a dataset source.
func WithSource(src config.SourceConfig) Option {
	return func(o *options) {
		o.sources = append(o.sources, src)
	}
}

// WithDataset registers an already loaded dataset under name.
func WithDataset(name string, ds *dataset.Dataset) Option {
	return func(o *options) {
		o.datasets[name] = ds
	}
}

// WithLoader replaces the source loader.
func WithLoader(l loader.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithRenderer replaces the static renderer.
func WithRenderer(r application.Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithArtifactStore enables publishing to store.
func WithArtifactStore(store artifact.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithExportCache caches rendered exports.
func WithExportCache(cache application.ExportCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithExecutor sets the resilience executor.
func WithExecutor(e *resilience.Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithObservability sets the telemetry provider.
func WithObservability(p *observability.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithExportDefaults sets the export request used for unset fields.
func WithExportDefaults(req export.Request) Option {
	return func(o *options) {
		o.defaults = req
	}
}

// WithComposeOptions sets the composite figure defaults.
func WithComposeOptions(c application.ComposeOptions) Option {
	return func(o *options) {
		o.compose = c
	}
}

// withCloser registers a function run by Close.
func withCloser(fn func() error) Option {
	return func(o *options) {
		o.closers = append(o.closers, fn)
	}
}

// New creates a service.
func New(opts ...Option) (*Service, error) {
	o := &options{
		datasets: make(map[string]*dataset.Dataset),
		defaults: export.NewRequest(export.FormatPNG),
		compose:  application.DefaultComposeOptions(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.executor == nil {
		o.executor = resilience.NewDefaultExecutor()
	}
	if o.provider == nil {
		o.provider = observability.NewNoopProvider()
	}
	if o.loader == nil {
		o.loader = loader.NewRegistry(loader.WithExecutor(o.executor))
	}
	if o.renderer == nil {
		o.renderer = plot.New()
	}

	s := &Service{
		sources:   make(map[string]config.SourceConfig),
		loader:    o.loader,
		previewer: echarts.New(),
		store:     o.store,
		executor:  o.executor,
		provider:  o.provider,
		tracer:    o.provider.Tracer(),
		defaults:  o.defaults.WithDefaults(),
		closers:   o.closers,
		datasets:  o.datasets,
	}

	for _, src := range o.sources {
		if src.Name == "" {
			return nil, fmt.Errorf("%w: source without name", ErrUnknownDataset)
		}
		if _, dup := s.sources[src.Name]; dup {
			return nil, fmt.Errorf("duplicate dataset %q", src.Name)
		}
		s.sources[src.Name] = src
		s.order = append(s.order, src.Name)
	}
	for name := range o.datasets {
		if _, ok := s.sources[name]; !ok {
			s.order = append(s.order, name)
		}
	}
	slices.Sort(s.order)

	s.compiler = application.NewCompiler(application.CompilerConfig{
		Tracer: o.provider.Tracer(),
		Meter:  o.provider.Meter(),
	})
	s.composer = application.NewComposer(s.compiler, o.compose)

	exporter, err := application.NewExporter(application.ExporterConfig{
		Renderer: o.renderer,
		Executor: o.executor,
		Cache:    o.cache,
		Tracer:   o.provider.Tracer(),
		Meter:    o.provider.Meter(),
	})
	if err != nil {
		return nil, err
	}
	s.exporter = exporter

	return s, nil
}

// DatasetInfo describes a dataset known to the service.
type DatasetInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"`
	Loaded bool   `json:"loaded"`
}

// Datasets lists the known datasets by name.
func (s *Service) Datasets() []DatasetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DatasetInfo, 0, len(s.order))
	for _, name := range s.order {
		info := DatasetInfo{Name: name, Kind: "memory"}
		if src, ok := s.sources[name]; ok {
			info.Kind = config.SourceKind(src)
		}
		_, info.Loaded = s.datasets[name]
		out = append(out, info)
	}
	return out
}

// Dataset returns the named dataset, loading it on first use.
func (s *Service) Dataset(ctx context.Context, name string) (*dataset.Dataset, error) {
	s.mu.RLock()
	ds, ok := s.datasets[name]
	s.mu.RUnlock()
	if ok {
		return ds, nil
	}

	src, ok := s.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}

	ctx, span := s.tracer.StartSpan(ctx, telemetry.SpanLoad, telemetry.String("dataset", name))
	defer span.End()

	ds, err := s.loader.Load(ctx, src)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("loading dataset %s: %w", name, err)
	}
	span.SetAttributes(telemetry.Int(telemetry.KeyRows, ds.Len()))

	s.mu.Lock()
	s.datasets[name] = ds
	s.mu.Unlock()

	return ds, nil
}

// Invalidate drops loaded datasets read from path, so they are reloaded
// on next use. It returns the affected dataset names.
func (s *Service) Invalidate(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for _, name := range s.order {
		src, ok := s.sources[name]
		if !ok || !slices.ContainsFunc(src.Paths, func(p string) bool { return samePath(p, path) }) {
			continue
		}
		delete(s.datasets, name)
		names = append(names, name)
	}

	if len(names) > 0 {
		logging.Info().Add(logging.Path(path)).Add(logging.Str("datasets", fmt.Sprint(names))).Msg("datasets invalidated")
	}
	return names
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// SourcePaths returns the files read by the named datasets.
func (s *Service) SourcePaths(names ...string) []string {
	var paths []string
	for _, name := range names {
		if src, ok := s.sources[name]; ok {
			paths = append(paths, src.Paths...)
		}
	}
	return paths
}

// Describe summarises the named dataset.
func (s *Service) Describe(ctx context.Context, name string) (dataset.Summary, error) {
	ds, err := s.Dataset(ctx, name)
	if err != nil {
		return dataset.Summary{}, err
	}
	return ds.Describe(), nil
}

// Prepare loads the document's dataset and applies its filters and sampling.
func (s *Service) Prepare(ctx context.Context, doc Document) (*dataset.Dataset, error) {
	ds, err := s.Dataset(ctx, doc.Dataset)
	if err != nil {
		return nil, err
	}

	ds, err = application.ApplyFilters(ds, doc.Filters.List()...)
	if err != nil {
		return nil, fmt.Errorf("filtering %s: %w", doc.Dataset, err)
	}

	ds, err = application.Sample(ds, doc.Sampling)
	if err != nil {
		return nil, fmt.Errorf("sampling %s: %w", doc.Dataset, err)
	}

	return ds, nil
}

// Compile compiles the document's chart.
func (s *Service) Compile(ctx context.Context, doc Document) (chart.Spec, error) {
	if doc.Chart == nil {
		return chart.Spec{}, fmt.Errorf("%w: chart is required", ErrInvalidDocument)
	}
	ds, err := s.Prepare(ctx, doc)
	if err != nil {
		return chart.Spec{}, err
	}
	return s.compiler.Compile(ctx, ds, *doc.Chart)
}

// Compose compiles the document's composition.
func (s *Service) Compose(ctx context.Context, doc Document) (chart.Composite, error) {
	if doc.Compose == nil {
		return chart.Composite{}, fmt.Errorf("%w: compose is required", ErrInvalidDocument)
	}
	ds, err := s.Prepare(ctx, doc)
	if err != nil {
		return chart.Composite{}, err
	}
	return s.composer.Compose(ctx, ds, doc.Compose.Charts, doc.Compose.Rows, doc.Compose.Cols)
}

// Spec compiles the document to one renderable spec: the chart, or the
// flattened composition.
func (s *Service) Spec(ctx context.Context, doc Document) (chart.Spec, error) {
	if err := doc.Validate(); err != nil {
		return chart.Spec{}, err
	}
	if doc.Chart != nil {
		return s.Compile(ctx, doc)
	}
	comp, err := s.Compose(ctx, doc)
	if err != nil {
		return chart.Spec{}, err
	}
	return comp.Spec(), nil
}

// Rendered is an encoded export.
type Rendered struct {
	Data     []byte
	Request  export.Request
	FileName string
}

// ContentType returns the MIME type of the export.
func (r Rendered) ContentType() string {
	return r.Request.Format.MIMEType()
}

// ExportRequest merges the document's export settings over the defaults.
func (s *Service) ExportRequest(doc Document) export.Request {
	req := s.defaults
	if doc.Export == nil {
		return req
	}
	if doc.Export.Format != "" {
		req.Format = doc.Export.Format
		if f, err := export.ParseFormat(string(doc.Export.Format)); err == nil {
			req.Format = f
		}
	}
	if doc.Export.Width != 0 {
		req.Width = doc.Export.Width
	}
	if doc.Export.Height != 0 {
		req.Height = doc.Export.Height
	}
	if doc.Export.DPI != 0 {
		req.DPI = doc.Export.DPI
	}
	return req
}

// Export compiles and encodes the document. A chart without data exports
// zero bytes.
func (s *Service) Export(ctx context.Context, doc Document) (Rendered, error) {
	req := s.ExportRequest(doc)
	if err := req.Validate(); err != nil {
		return Rendered{}, err
	}

	spec, err := s.Spec(ctx, doc)
	if err != nil {
		return Rendered{}, err
	}

	data, err := s.exporter.Export(ctx, spec, req)
	if err != nil {
		return Rendered{}, err
	}

	name := doc.Name
	if name == "" {
		name = "chart"
	}
	return Rendered{Data: data, Request: req, FileName: name + req.Format.Extension()}, nil
}

// Preview writes the document as an interactive HTML page.
func (s *Service) Preview(ctx context.Context, doc Document, w io.Writer) error {
	spec, err := s.Spec(ctx, doc)
	if err != nil {
		return err
	}
	return s.previewer.Render(ctx, spec, w)
}

// PublishingEnabled reports whether an artifact store is configured.
func (s *Service) PublishingEnabled() bool {
	return s.store != nil
}

// Publish exports the document and stores the result.
func (s *Service) Publish(ctx context.Context, doc Document) (artifact.Ref, error) {
	if s.store == nil {
		return artifact.Ref{}, ErrPublishingDisabled
	}

	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, telemetry.SpanPublish,
		telemetry.String(telemetry.KeyChartType, doc.ChartType()),
		telemetry.String("dataset", doc.Dataset),
	)
	defer span.End()

	rendered, err := s.Export(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return artifact.Ref{}, err
	}
	if len(rendered.Data) == 0 {
		span.RecordError(ErrNothingToExport)
		return artifact.Ref{}, ErrNothingToExport
	}

	ref := artifact.NewRef(rendered.Request.Format).
		WithName(doc.Name).
		WithMetadata("dataset", doc.Dataset).
		WithMetadata("chart", doc.ChartType())

	ref, err = resilience.Do(ctx, s.executor, resilience.TargetArtifacts, false, func(ctx context.Context) (artifact.Ref, error) {
		return s.store.Put(ctx, ref, rendered.Data)
	})
	if err != nil {
		span.RecordError(err)
		return artifact.Ref{}, fmt.Errorf("publishing %s: %w", doc.Dataset, err)
	}

	logging.Info().
		Add(logging.Dataset(doc.Dataset)).
		Add(logging.Format(ref.Format)).
		Add(logging.Key(ref.Key())).
		Add(logging.Bytes(int(ref.Size))).
		Add(logging.Duration(time.Since(start))).
		Msg("chart published")

	return ref, nil
}

// Artifact returns a published export and its stored reference.
func (s *Service) Artifact(ctx context.Context, id string, format export.Format) ([]byte, artifact.Ref, error) {
	if s.store == nil {
		return nil, artifact.Ref{}, ErrPublishingDisabled
	}

	ref := artifact.Ref{ID: id, Format: format}
	if !ref.IsValid() {
		return nil, artifact.Ref{}, artifact.ErrInvalidRef
	}

	stored, err := lookup(ctx, s.executor, func(ctx context.Context) (artifact.Ref, error) {
		return s.store.Stat(ctx, ref)
	})
	if err != nil {
		return nil, artifact.Ref{}, err
	}

	data, err := lookup(ctx, s.executor, func(ctx context.Context) ([]byte, error) {
		return s.store.Get(ctx, ref)
	})
	if err != nil {
		return nil, artifact.Ref{}, err
	}

	return data, stored, nil
}

// lookup runs a store read through the executor. A missing artifact yields
// ErrArtifactNotFound without retrying or tripping the breaker.
func lookup[T any](ctx context.Context, e *resilience.Executor, fn func(context.Context) (T, error)) (T, error) {
	var missing bool
	out, err := resilience.Do(ctx, e, resilience.TargetArtifacts, true, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if errors.Is(err, artifact.ErrArtifactNotFound) {
			missing = true
			return v, nil
		}
		return v, err
	})
	if missing {
		var zero T
		return zero, artifact.ErrArtifactNotFound
	}
	return out, err
}

// Metrics returns the current metric values. It is empty when metrics are
// disabled.
func (s *Service) Metrics(ctx context.Context) (map[string]float64, error) {
	return s.provider.Snapshot(ctx)
}

// Provider returns the telemetry provider.
func (s *Service) Provider() *observability.Provider {
	return s.provider
}

// Close flushes telemetry and releases backends.
func (s *Service) Close(ctx context.Context) error {
	errs := []error{s.provider.Shutdown(ctx)}
	for _, fn := range s.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}
