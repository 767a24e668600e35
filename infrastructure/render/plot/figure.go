package plot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/felixgeelhaar/chartforge/domain/chart"
)

// Figure text sizes.
var (
	titleSize      = vg.Points(14)
	annotationSize = vg.Points(11)
	titlePad       = vg.Points(6)
)

// titled draws title across the top of c and returns the area below it.
func titled(c draw.Canvas, title string) draw.Canvas {
	if title == "" {
		return c
	}
	sty := textStyle(titleSize)
	sty.YAlign = draw.YTop
	c.FillText(sty, vg.Point{X: c.Center().X, Y: c.Max.Y - titlePad}, title)
	return draw.Crop(c, 0, 0, 0, -(sty.Height(title) + 2*titlePad))
}

// drawChart draws one chart. The first trace decides the coordinate system.
func drawChart(c draw.Canvas, traces []chart.Trace, layout chart.Layout, title string) error {
	if len(traces) == 0 {
		titled(c, title)
		return nil
	}
	switch traces[0].Kind {
	case chart.GeomPie:
		piePlot(traces[0], title, layout.ShowLegend).Draw(c)
	case chart.GeomPolar:
		radarPlot(traces, layout, title).Draw(c)
	case chart.GeomSplom:
		return drawSplom(c, traces, layout, title)
	default:
		b := newCartesian(title, layout, c.Max.X-c.Min.X)
		if err := b.build(traces); err != nil {
			return err
		}
		b.p.Draw(c)
	}
	return nil
}

// drawFigure draws a single chart or a subplot grid onto dc.
func drawFigure(dc draw.Canvas, spec chart.Spec) error {
	dc.FillPolygon(color.White, []vg.Point{
		dc.Min,
		{X: dc.Min.X, Y: dc.Max.Y},
		dc.Max,
		{X: dc.Max.X, Y: dc.Min.Y},
	})

	grid := spec.Layout.Grid
	if grid == nil || grid.Rows*grid.Cols == 0 {
		if err := drawChart(dc, spec.Traces, spec.Layout, spec.Layout.Title); err != nil {
			return err
		}
		annotate(dc, spec.Annotations)
		return nil
	}

	body := titled(dc, spec.Layout.Title)
	tiles := draw.Tiles{
		Rows: grid.Rows, Cols: grid.Cols,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	cells := make(map[chart.Cell][]chart.Trace)
	for _, t := range spec.Traces {
		if t.Cell != nil {
			cells[*t.Cell] = append(cells[*t.Cell], t)
		}
	}
	for row := 1; row <= grid.Rows; row++ {
		for col := 1; col <= grid.Cols; col++ {
			title := ""
			if i := (row-1)*grid.Cols + col - 1; i < len(grid.Titles) {
				title = grid.Titles[i]
			}
			cell := chart.Cell{Row: row, Col: col}
			layout := chart.Layout{ShowLegend: true, ColorScale: spec.Layout.ColorScale}
			if err := drawChart(tiles.At(body, col-1, row-1), cells[cell], layout, title); err != nil {
				return fmt.Errorf("cell %d,%d: %w", row, col, err)
			}
		}
	}
	annotate(body, spec.Annotations)
	return nil
}

// annotate places paper-referenced text, with (0,0) at the bottom left of c.
func annotate(c draw.Canvas, notes []chart.Annotation) {
	sty := textStyle(annotationSize)
	sty.Color = color.Gray{Y: 0x66}
	w, h := c.Max.X-c.Min.X, c.Max.Y-c.Min.Y
	for _, a := range notes {
		pt := vg.Point{X: c.Min.X + w*vg.Length(a.X), Y: c.Min.Y + h*vg.Length(a.Y)}
		c.FillText(sty, pt, a.Text)
	}
}
