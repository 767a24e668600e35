package application

import (
	"context"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/domain/telemetry"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
)

// InvalidCompositeTitle is the title of a composite that was rejected.
const InvalidCompositeTitle = "Configuración de gráficos acoplados inválida"

// ComposeOptions are the figure-level settings of a composite.
type ComposeOptions struct {
	// Height is the figure height (default: 700).
	Height int
	// Title is the figure title (default: Gráficos Acoplados).
	Title string
	// ShowLegend shows the shared legend (default: true).
	ShowLegend bool
}

// DefaultComposeOptions returns the documented composite defaults.
func DefaultComposeOptions() ComposeOptions {
	return ComposeOptions{Height: 700, Title: "Gráficos Acoplados", ShowLegend: true}
}

// Composer places up to chart.MaxCells charts on one grid.
type Composer struct {
	compiler *Compiler
	options  ComposeOptions
	tracer   telemetry.Tracer
}

// NewComposer creates a composer that compiles cells with compiler.
func NewComposer(compiler *Compiler, options ComposeOptions) *Composer {
	defaults := DefaultComposeOptions()
	if options.Height <= 0 {
		options.Height = defaults.Height
	}
	if options.Title == "" {
		options.Title = defaults.Title
	}
	return &Composer{compiler: compiler, options: options, tracer: compiler.tracer}
}

// GridShape returns a grid with room for n cells. Non-positive rows default
// to 1 and non-positive cols to n. A grid that is too small first gains
// columns, then rows.
func GridShape(n, rows, cols int) (int, int) {
	if rows <= 0 {
		rows = 1
	}
	if cols <= 0 {
		cols = n
	}
	if rows*cols < n {
		cols = ceilDiv(n, rows)
		if rows*cols < n {
			rows = ceilDiv(n, cols)
		}
	}
	return rows, cols
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// SubplotTitle names a cell after its chart type and x and y bindings.
func SubplotTitle(req chart.Request) string {
	title := req.Type.Caption()
	if !req.Roles.X.IsNone() {
		title += " de " + req.Roles.X.String()
	}
	if !req.Roles.Y.IsNone() {
		title += " vs " + req.Roles.Y.String()
	}
	return title
}

// Compose compiles each request into its cell, in row-major order. An empty
// or oversized request list yields an error composite without compiling
// anything. Cells whose chart is empty get a "No data" annotation instead of
// traces. The returned error is only for options of the wrong type.
func (c *Composer) Compose(ctx context.Context, ds *dataset.Dataset, reqs []chart.Request, rows, cols int) (chart.Composite, error) {
	ctx, span := c.tracer.StartSpan(ctx, telemetry.SpanCompose,
		telemetry.Int(telemetry.KeyCells, len(reqs)))
	defer span.End()

	if len(reqs) == 0 || len(reqs) > chart.MaxCells {
		logging.Warn().
			Add(logging.Component("composer")).
			Add(logging.Reason(InvalidCompositeTitle)).
			Msg("composite rejected")
		return chart.ErrorComposite(InvalidCompositeTitle), nil
	}

	gotRows, gotCols := GridShape(len(reqs), rows, cols)
	if gotRows != rows || gotCols != cols {
		logging.Debug().
			Add(logging.Component("composer")).
			Add(logging.Cell(gotRows, gotCols)).
			Msg("grid reshaped")
	}
	rows, cols = gotRows, gotCols

	comp := chart.Composite{
		Rows: rows,
		Cols: cols,
		Layout: chart.Layout{
			Title:      c.options.Title,
			Height:     c.options.Height,
			ShowLegend: c.options.ShowLegend,
		},
	}
	for i, req := range reqs {
		cell := chart.Cell{Row: i/cols + 1, Col: i%cols + 1}
		spec, err := c.compiler.Compile(ctx, ds, req)
		if err != nil {
			span.RecordError(err)
			return chart.Composite{}, err
		}

		cs := chart.CellSpec{Cell: cell, Type: req.Type, Title: SubplotTitle(req), Spec: spec}
		if spec.IsEmpty() {
			cs.NoData = true
			at := cell
			comp.Annotations = append(comp.Annotations, chart.Annotation{
				Text:      "No data for " + req.Type.String(),
				XRef:      "paper",
				YRef:      "paper",
				X:         (float64(cell.Col) - 0.5) / float64(cols),
				Y:         1 - (float64(cell.Row)-0.5)/float64(rows),
				ShowArrow: false,
				Cell:      &at,
			})
		}
		comp.Cells = append(comp.Cells, cs)
	}
	return comp, nil
}
