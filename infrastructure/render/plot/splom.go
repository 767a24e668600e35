package plot

import (
	"math"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/felixgeelhaar/chartforge/domain/chart"
)

// splomBins is the histogram resolution on the matrix diagonal.
const splomBins = 10

// drawSplom lays out a scatter matrix over the dimensions of the first
// trace. Histograms sit on the diagonal; every trace contributes its own
// colored marks.
func drawSplom(c draw.Canvas, traces []chart.Trace, layout chart.Layout, title string) error {
	labels := make([]string, 0, len(traces[0].Dimensions))
	for _, d := range traces[0].Dimensions {
		labels = append(labels, d.Label)
	}
	n := len(labels)
	body := titled(c, title)
	if n == 0 {
		return nil
	}

	plots := make([][]*gonumplot.Plot, n)
	for row := range plots {
		plots[row] = make([]*gonumplot.Plot, n)
		for col := range plots[row] {
			p := gonumplot.New()
			if row == n-1 {
				p.X.Label.Text = labels[col]
			}
			if col == 0 {
				p.Y.Label.Text = labels[row]
			}
			for ti, t := range traces {
				if len(t.Dimensions) != n {
					continue
				}
				var err error
				if row == col {
					err = splomHist(p, t, ti, row, len(traces) > 1)
				} else {
					err = splomScatter(p, t, ti, col, row, layout.ColorScale)
				}
				if err != nil {
					return err
				}
			}
			plots[row][col] = p
		}
	}
	if layout.ShowLegend && n > 0 {
		for ti, t := range traces {
			if t.Name != "" {
				plots[0][n-1].Legend.Add(t.Name, swatch{traceColor(t.Color, ti)})
			}
		}
		plots[0][n-1].Legend.Top = true
	}

	tiles := draw.Tiles{Rows: n, Cols: n, PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := gonumplot.Align(plots, tiles, body)
	for row := range plots {
		for col := range plots[row] {
			plots[row][col].Draw(canvases[row][col])
		}
	}
	return nil
}

func splomHist(p *gonumplot.Plot, t chart.Trace, i, dim int, overlay bool) error {
	vals := finite(t.Dimensions[dim].Values)
	if len(vals) == 0 {
		return nil
	}
	h, err := plotter.NewHist(plotter.Values(vals), splomBins)
	if err != nil {
		return err
	}
	opacity := 1.0
	if overlay {
		opacity = overlayOpacity
	}
	h.FillColor = withOpacity(traceColor(t.Color, i), opacity)
	h.LineStyle.Width = 0
	p.Add(h)
	return nil
}

func splomScatter(p *gonumplot.Plot, t chart.Trace, i, xDim, yDim int, scale string) error {
	xs, ys := t.Dimensions[xDim].Values, t.Dimensions[yDim].Values
	var xys plotter.XYs
	var rows []int
	for r := range xs {
		if r >= len(ys) || math.IsNaN(xs[r]) || math.IsNaN(ys[r]) {
			continue
		}
		xys = append(xys, plotter.XY{X: xs[r], Y: ys[r]})
		rows = append(rows, r)
	}
	if len(xys) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyle.Radius = vg.Points(1.5)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	styleMarkers(s, t, rows, traceColor(t.Color, i), scale)
	p.Add(s)
	return nil
}
