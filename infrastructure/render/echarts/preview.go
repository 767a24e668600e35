// Package echarts renders chart specifications as interactive HTML pages
// with go-echarts.
package echarts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
)

// ErrNothingToPreview indicates a spec without traces.
var ErrNothingToPreview = errors.New("nothing to preview")

// Previewer writes specs as standalone HTML pages.
type Previewer struct {
	height string
}

// Option configures a Previewer.
type Option func(*Previewer)

// WithHeight sets the CSS height of each chart. The default is 480px.
func WithHeight(h string) Option {
	return func(p *Previewer) {
		p.height = h
	}
}

// New creates a previewer.
func New(options ...Option) *Previewer {
	p := &Previewer{height: "480px"}
	for _, o := range options {
		o(p)
	}
	return p
}

// Render writes spec to w as an HTML page. A composite spec becomes one
// chart per subplot, in row-major order.
func (p *Previewer) Render(ctx context.Context, spec chart.Spec, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if spec.IsEmpty() {
		return ErrNothingToPreview
	}

	page := components.NewPage()
	page.PageTitle = spec.Layout.Title
	if page.PageTitle == "" {
		page.PageTitle = "chartforge"
	}

	added := 0
	if grid := spec.Layout.Grid; grid != nil {
		cells := make(map[chart.Cell][]chart.Trace)
		for _, t := range spec.Traces {
			if t.Cell != nil {
				cells[*t.Cell] = append(cells[*t.Cell], t)
			}
		}
		for row := 1; row <= grid.Rows; row++ {
			for col := 1; col <= grid.Cols; col++ {
				traces := cells[chart.Cell{Row: row, Col: col}]
				if len(traces) == 0 {
					continue
				}
				title := ""
				if i := (row-1)*grid.Cols + col - 1; i < len(grid.Titles) {
					title = grid.Titles[i]
				}
				layout := chart.Layout{Title: title, ShowLegend: true}
				for _, c := range p.build(traces, layout) {
					page.AddCharts(c)
					added++
				}
			}
		}
	} else {
		for _, c := range p.build(spec.Traces, spec.Layout) {
			page.AddCharts(c)
			added++
		}
	}
	if added == 0 {
		return fmt.Errorf("%w: unsupported geometry %q", ErrNothingToPreview, spec.Traces[0].Kind)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	logging.Debug().
		Add(logging.Traces(len(spec.Traces))).
		Add(logging.Component("echarts")).
		Msg("Rendered preview")
	return nil
}

// global returns the options every chart shares.
func (p *Previewer) global(layout chart.Layout) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: p.height,
		}),
		charts.WithTitleOpts(opts.Title{Title: layout.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(layout.ShowLegend), Top: "bottom"}),
	}
}

func axes(layout chart.Layout, xType, yType string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithXAxisOpts(opts.XAxis{Name: layout.XAxisTitle, Type: xType}),
		charts.WithYAxisOpts(opts.YAxis{Name: layout.YAxisTitle, Type: yType}),
	}
}

// build converts traces sharing one subplot. The first trace decides the
// chart kind.
func (p *Previewer) build(traces []chart.Trace, layout chart.Layout) []components.Charter {
	base := p.global(layout)
	switch traces[0].Kind {
	case chart.GeomBar:
		return []components.Charter{barChart(traces, layout, base)}
	case chart.GeomHistogram:
		return []components.Charter{histogramChart(traces, layout, base)}
	case chart.GeomBox, chart.GeomViolin:
		return []components.Charter{boxChart(traces, layout, base)}
	case chart.GeomScatter:
		return []components.Charter{scatterChart(traces, layout, base)}
	case chart.GeomHeatmap:
		return []components.Charter{heatmapChart(traces[0], layout, base)}
	case chart.GeomPie:
		return []components.Charter{pieChart(traces[0], base)}
	case chart.GeomPolar:
		return []components.Charter{radarChart(traces, layout, base)}
	case chart.GeomSplom:
		return p.splomCharts(traces, layout)
	default:
		return nil
	}
}
