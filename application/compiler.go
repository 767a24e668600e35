// Package application provides the chart compilation, composition and
// export services.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/domain/telemetry"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
)

// handler compiles one chart type. Roles are already validated against the
// dataset and opts is the options struct of the type.
type handler func(ds *dataset.Dataset, roles chart.Roles, opts chart.Options) chart.Result

// Standard layout applied to charts that do not manage their own.
var standardMargin = chart.Margin{L: 60, R: 50, T: 70, B: 60}

// Compiler turns chart requests into chart specs. It holds no mutable state
// and is safe for concurrent use.
type Compiler struct {
	handlers map[chart.Type]handler
	tracer   telemetry.Tracer
	compiled telemetry.Counter
	empty    telemetry.Counter
}

// CompilerConfig contains the compiler's collaborators.
type CompilerConfig struct {
	Tracer telemetry.Tracer
	Meter  telemetry.Meter
}

// NewCompiler creates a compiler. Nil collaborators are replaced by no-ops.
func NewCompiler(config CompilerConfig) *Compiler {
	nopTracer, nopMeter := telemetry.Nop()
	if config.Tracer == nil {
		config.Tracer = nopTracer
	}
	if config.Meter == nil {
		config.Meter = nopMeter
	}

	return &Compiler{
		handlers: map[chart.Type]handler{
			chart.TypeBar:             compileBar,
			chart.TypeHistogram:       compileHistogram,
			chart.TypeBox:             compileDistribution(chart.TypeBox),
			chart.TypeViolin:          compileDistribution(chart.TypeViolin),
			chart.TypeScatter:         compileScatter,
			chart.TypeHeatmapCorr:     compileCorrelation,
			chart.TypeHeatmapCrosstab: compileCrosstab,
			chart.TypePie:             compilePie,
			chart.TypePairplot:        compilePairplot,
			chart.TypeSlope:           compileSlope,
			chart.TypeRadar:           compileRadar,
			chart.TypeDivergingBars:   compileDiverging,
			chart.TypeBoxViolin:       compileCombined,
		},
		tracer: config.Tracer,
		compiled: config.Meter.Counter(telemetry.MetricCompileTotal,
			telemetry.WithDescription("Charts compiled")),
		empty: config.Meter.Counter(telemetry.MetricCompileEmpty,
			telemetry.WithDescription("Compilations that produced no traces")),
	}
}

// Compile builds the spec of one chart. Data problems never return an error:
// they yield an empty spec whose title may carry the reason. The only errors
// are options built for another chart type (ErrOptionsMismatch) and options
// out of range (ErrInvalidOptions).
func (c *Compiler) Compile(ctx context.Context, ds *dataset.Dataset, req chart.Request) (chart.Spec, error) {
	start := time.Now()
	ctx, span := c.tracer.StartSpan(ctx, telemetry.SpanCompile,
		telemetry.String(telemetry.KeyChartType, req.Type.String()),
		telemetry.Int(telemetry.KeyRows, ds.Len()),
	)
	defer span.End()

	opts := req.EffectiveOptions()
	if !req.Type.Accepts(opts) {
		err := fmt.Errorf("%w: %s given %T", chart.ErrOptionsMismatch, req.Type, opts)
		span.RecordError(err)
		return chart.Spec{}, err
	}
	// Decoded options are already checked; options built in code are not.
	if err := opts.Validate(); err != nil {
		span.RecordError(err)
		return chart.Spec{}, err
	}

	result := c.compile(ds, req.Type, req.Roles, opts)
	spec := result.Spec()
	if result.IsOk() && !spec.IsEmpty() {
		if !req.Type.ManagesOwnLayout() {
			applyStandardLayout(&spec, req.Roles, opts.Base())
		}
		if title := opts.Base().Title; title != "" {
			spec.Layout.Title = title
		}
	}

	attrs := []telemetry.Attribute{telemetry.String(telemetry.KeyChartType, req.Type.String())}
	c.compiled.Add(ctx, 1, attrs...)
	span.SetAttributes(telemetry.Int(telemetry.KeyTraces, len(spec.Traces)))
	if spec.IsEmpty() {
		c.empty.Add(ctx, 1, attrs...)
		if reason := result.Reason(); reason != "" {
			span.SetAttributes(telemetry.String(telemetry.KeyReason, reason))
			logging.Warn().
				Add(logging.ChartType(req.Type)).
				Add(logging.Reason(reason)).
				Msg("chart compiled empty")
		}
	}

	logging.Debug().
		Add(logging.ChartType(req.Type)).
		Add(logging.Rows(ds.Len())).
		Add(logging.Traces(len(spec.Traces))).
		Add(logging.Duration(time.Since(start))).
		Msg("chart compiled")

	return spec, nil
}

func (c *Compiler) compile(ds *dataset.Dataset, t chart.Type, roles chart.Roles, opts chart.Options) chart.Result {
	if ds.IsEmpty() {
		return chart.Err("")
	}
	h, ok := c.handlers[t]
	if !ok {
		return chart.Err("")
	}
	roles, ok = resolveRoles(ds, roles)
	if !ok {
		return chart.Err("")
	}
	return h(ds, roles, opts)
}

// resolveRoles checks that every referenced column exists. A missing column
// or an empty list in a data role fails; a missing color or size column is
// dropped.
func resolveRoles(ds *dataset.Dataset, r chart.Roles) (chart.Roles, bool) {
	for _, b := range []chart.Binding{r.X, r.Y, r.Y2, r.Names, r.Values} {
		if !bound(ds, b) {
			return r, false
		}
	}
	if !bound(ds, r.Color) {
		r.Color = chart.None()
	}
	if !bound(ds, r.Size) {
		r.Size = chart.None()
	}
	return r, true
}

// bound reports whether every column of b exists. A list naming no columns
// is never bound.
func bound(ds *dataset.Dataset, b chart.Binding) bool {
	if b.IsList() && len(b.Names()) == 0 {
		return false
	}
	for _, n := range b.Names() {
		if !ds.Has(n) {
			return false
		}
	}
	return true
}

func applyStandardLayout(s *chart.Spec, roles chart.Roles, base chart.CommonOptions) {
	s.Layout.Template = base.Template
	s.Layout.ShowLegend = true
	s.Layout.Height = base.Height
	if color, ok := roles.Color.Name(); ok {
		s.Layout.LegendTitle = color
	}
	margin := standardMargin
	s.Layout.Margin = &margin
	s.Layout.TitleX = 0.5
}

// failed reports a reshaping error of chart type t.
func failed(t chart.Type, err error) chart.Result {
	return chart.Errorf("Error generando %s: %v", t, err)
}

func notNumeric(name string) error {
	return fmt.Errorf("%w: %q", dataset.ErrNotNumeric, name)
}

// colorGroups splits ds by the color role. Without a color column the whole
// dataset is one unnamed group.
func colorGroups(ds *dataset.Dataset, roles chart.Roles) ([]string, []*dataset.Dataset, error) {
	color, ok := roles.Color.Name()
	if !ok {
		return []string{""}, []*dataset.Dataset{ds}, nil
	}
	keys, parts, err := ds.Partition(color)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return names, parts, nil
}

func groupColor(names []string, i int) string {
	if len(names) == 1 && names[0] == "" {
		return ""
	}
	return chart.PaletteColor(i)
}

func values(ds *dataset.Dataset, name string) []dataset.Value {
	v, _ := ds.Values(name)
	return v
}

func floats(ds *dataset.Dataset, name string) chart.Floats {
	f, _ := ds.Floats(name)
	return f
}

func textValues(labels []string) []dataset.Value {
	out := make([]dataset.Value, len(labels))
	for i, l := range labels {
		out[i] = dataset.Text(l)
	}
	return out
}
