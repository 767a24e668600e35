package plot

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

// Mark defaults.
const (
	defaultBins    = 20
	markerRadius   = 3
	minBubble      = 2
	maxBubble      = 12
	distWidth      = 0.8
	overlayOpacity = 0.6
)

// builder adds traces of one cartesian chart to a plot.
type builder struct {
	p      *gonumplot.Plot
	layout chart.Layout
	// span is the width of the plotting area, used to size bars and boxes.
	span vg.Length
}

func newCartesian(title string, layout chart.Layout, span vg.Length) *builder {
	p := gonumplot.New()
	p.Title.Text = title
	p.X.Label.Text = layout.XAxisTitle
	p.Y.Label.Text = layout.YAxisTitle
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return &builder{p: p, layout: layout, span: span * 0.8}
}

// build adds every trace, grouped by geometry.
func (b *builder) build(traces []chart.Trace) error {
	byKind := make(map[chart.Geometry][]chart.Trace)
	var order []chart.Geometry
	for _, t := range traces {
		if _, ok := byKind[t.Kind]; !ok {
			order = append(order, t.Kind)
		}
		byKind[t.Kind] = append(byKind[t.Kind], t)
	}

	var dist []chart.Trace
	for _, kind := range order {
		var err error
		switch kind {
		case chart.GeomBar:
			err = b.bars(byKind[kind])
		case chart.GeomHistogram:
			err = b.histograms(byKind[kind])
		case chart.GeomBox, chart.GeomViolin:
			dist = append(dist, byKind[kind]...)
		case chart.GeomScatter:
			err = b.scatters(byKind[kind])
		case chart.GeomHeatmap:
			err = b.heatmap(byKind[kind][0])
		default:
			err = fmt.Errorf("geometry %q cannot share a cartesian plot", kind)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
	}
	if len(dist) > 0 {
		// Keep the trace order so box/violin pairs stay adjacent.
		ordered := make([]chart.Trace, 0, len(dist))
		for _, t := range traces {
			if t.Kind == chart.GeomBox || t.Kind == chart.GeomViolin {
				ordered = append(ordered, t)
			}
		}
		if err := b.distributions(ordered); err != nil {
			return fmt.Errorf("distribution: %w", err)
		}
	}
	return nil
}

func (b *builder) legend(name string, thumbs ...gonumplot.Thumbnailer) {
	if name != "" && b.layout.ShowLegend {
		b.p.Legend.Add(name, thumbs...)
	}
}

// nominal builds a categorical axis over the string form of the values.
func nominal(series ...[]dataset.Value) *axis {
	a := &axis{kind: dataset.KindCategorical, index: make(map[string]int)}
	for _, vals := range series {
		for _, v := range vals {
			a.add(v)
		}
	}
	return a
}

// sumBy totals y per category of x, skipping nulls.
func sumBy(cats *axis, x, y []dataset.Value) plotter.Values {
	out := make(plotter.Values, len(cats.names))
	for i := range x {
		if i >= len(y) {
			break
		}
		pos, ok := cats.pos(x[i])
		f, okY := y[i].Float()
		if !ok || !okY || math.IsNaN(f) {
			continue
		}
		out[int(pos)] += f
	}
	return out
}

func (b *builder) bars(traces []chart.Trace) error {
	xs := make([][]dataset.Value, len(traces))
	for i, t := range traces {
		xs[i] = t.X
	}
	cats := nominal(xs...)
	if len(cats.names) == 0 {
		return nil
	}
	horizontal := traces[0].Orientation == "h"
	if horizontal {
		cats.apply(&b.p.Y)
	} else {
		cats.apply(&b.p.X)
	}

	slot := b.span / vg.Length(len(cats.names))
	width := slot * 0.8
	mode := b.layout.BarMode
	if mode == "group" {
		width /= vg.Length(len(traces))
	}

	var below *plotter.BarChart
	for i, t := range traces {
		vals := sumBy(cats, t.X, t.Y)
		if len(t.MarkerColor) > 0 {
			if err := b.scaledBars(t, vals, width, horizontal); err != nil {
				return err
			}
			continue
		}

		bc, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return err
		}
		bc.Horizontal = horizontal
		bc.Color = traceColor(t.Color, i)
		bc.LineStyle.Width = 0
		switch mode {
		case "group":
			bc.Offset = vg.Length(float64(i)-float64(len(traces)-1)/2) * width
		case "overlay":
			bc.Color = withOpacity(bc.Color, overlayOpacity)
		default:
			if below != nil {
				bc.StackOn(below)
			}
			below = bc
		}
		b.p.Add(bc)
		b.legend(t.Name, bc)
	}
	return nil
}

// scaledBars draws one bar per category colored on a continuous scale
// centred on the layout midpoint.
func (b *builder) scaledBars(t chart.Trace, vals plotter.Values, width vg.Length, horizontal bool) error {
	scale := colorScale(firstNonEmpty(t.ColorScale, b.layout.ColorScale))
	mid := 0.0
	if b.layout.ColorMidpoint != nil {
		mid = *b.layout.ColorMidpoint
	}
	reach := 0.0
	for _, v := range vals {
		reach = math.Max(reach, math.Abs(v-mid))
	}
	for i, v := range vals {
		bc, err := plotter.NewBarChart(plotter.Values{v}, width)
		if err != nil {
			return err
		}
		bc.XMin = float64(i)
		bc.Horizontal = horizontal
		bc.Color = scale.at(v, mid-reach, mid+reach)
		bc.LineStyle.Width = 0
		b.p.Add(bc)
	}
	return nil
}

func (b *builder) histograms(traces []chart.Trace) error {
	for i, t := range traces {
		vals := numbers(t.X)
		if len(vals) == 0 {
			if len(t.X) == 0 {
				continue
			}
			// Categorical histograms are value counts.
			counts := make([]dataset.Value, len(t.X))
			for j := range counts {
				counts[j] = dataset.Number(1)
			}
			bar := chart.Trace{Kind: chart.GeomBar, Name: t.Name, X: t.X, Y: counts, Color: t.Color}
			if err := b.bars([]chart.Trace{bar}); err != nil {
				return err
			}
			continue
		}

		bins := t.NBins
		if bins <= 0 {
			bins = defaultBins
		}
		h, err := plotter.NewHist(plotter.Values(vals), bins)
		if err != nil {
			return err
		}
		normalize(h, t.HistNorm, len(vals))
		opacity := t.Opacity
		if opacity == 0 && len(traces) > 1 {
			opacity = overlayOpacity
		}
		h.FillColor = withOpacity(traceColor(t.Color, i), opacity)
		h.LineStyle.Color = color.White
		b.p.Add(h)
		b.legend(t.Name, h)
	}
	return nil
}

func normalize(h *plotter.Histogram, norm string, n int) {
	switch norm {
	case "density":
		h.Normalize(1)
	case "probability", "percent":
		scale := 1 / float64(n)
		if norm == "percent" {
			scale *= 100
		}
		for i := range h.Bins {
			h.Bins[i].Weight *= scale
		}
	}
}

// distKey names the position of a distribution trace drawn without x.
// Combined box/violin pairs share the position of their legend group.
func distKey(t chart.Trace) string {
	if t.Side != "" || t.Width > 0 {
		return t.LegendGroup
	}
	return t.Name
}

func (b *builder) distributions(traces []chart.Trace) error {
	grouped := false
	for _, t := range traces {
		if len(t.X) > 0 {
			grouped = true
			break
		}
	}

	// Positions are categories of x, or one per trace key without x.
	var cats *axis
	if grouped {
		xs := make([][]dataset.Value, len(traces))
		for i, t := range traces {
			xs[i] = t.X
		}
		cats = nominal(xs...)
	} else {
		keys := make([]string, 0, len(traces))
		for _, t := range traces {
			keys = append(keys, distKey(t))
		}
		cats = categories(keys)
	}
	if len(cats.names) == 0 {
		return nil
	}
	if len(cats.names) > 1 || cats.names[0] != "" {
		cats.apply(&b.p.X)
	} else {
		b.p.X.Min, b.p.X.Max = -0.5, 0.5
		b.p.HideX()
	}

	// Traces sharing a position are spread across its slot.
	lanes := 1
	if grouped {
		lanes = len(traces)
	}
	unit := b.span / vg.Length(len(cats.names))
	laneWidth := distWidth / float64(lanes)

	for i, t := range traces {
		c := traceColor(t.Color, i)
		offset := 0.0
		if grouped {
			offset = (float64(i) - float64(lanes-1)/2) * laneWidth
		}
		for _, cat := range cats.names {
			var vals []float64
			if grouped {
				vals = valuesAt(t, cat)
			} else if distKey(t) == cat {
				vals = numbers(t.Y)
			}
			if len(vals) == 0 {
				continue
			}
			loc := float64(cats.index[cat]) + offset
			var err error
			if t.Kind == chart.GeomViolin {
				err = b.violin(t, c, loc, laneWidth, vals)
			} else {
				err = b.box(t, c, loc, laneWidth, unit, vals)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// valuesAt returns the numeric y values of t whose x is cat.
func valuesAt(t chart.Trace, cat string) []float64 {
	var out []float64
	for j := range t.X {
		if j >= len(t.Y) || t.X[j].IsNull() || t.X[j].String() != cat {
			continue
		}
		if f, ok := t.Y[j].Float(); ok && !math.IsNaN(f) {
			out = append(out, f)
		}
	}
	return out
}

func (b *builder) box(t chart.Trace, c color.Color, loc, lane float64, unit vg.Length, vals []float64) error {
	frac := lane * 0.7
	if t.Width > 0 {
		frac = t.Width
	}
	bp, err := plotter.NewBoxPlot(unit*vg.Length(frac), loc, plotter.Values(vals))
	if err != nil {
		return err
	}
	bp.FillColor = withOpacity(c, 0.5)
	bp.BoxStyle.Color = c
	bp.MedianStyle.Color = c
	bp.WhiskerStyle.Color = c
	bp.GlyphStyle.Color = c
	switch t.Points {
	case "none":
		bp.GlyphStyle.Radius = 0
	case "all":
		if err := b.points(c, loc, vals); err != nil {
			return err
		}
	}
	b.p.Add(bp)
	b.legend(t.Name, swatch{c})
	return nil
}

func (b *builder) violin(t chart.Trace, c color.Color, loc, lane float64, vals []float64) error {
	v := newViolin(vals, loc, lane*0.9, c)
	v.half = t.Side == "positive"
	v.innerBox = t.InnerBox
	b.p.Add(v)
	b.legend(t.Name, v)
	if t.Points == "all" {
		return b.points(c, loc, vals)
	}
	return nil
}

// points overlays the raw values of a distribution at its position.
func (b *builder) points(c color.Color, loc float64, vals []float64) error {
	xys := make(plotter.XYs, len(vals))
	for i, v := range vals {
		xys[i] = plotter.XY{X: loc, Y: v}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyle = draw.GlyphStyle{Color: withOpacity(c, 0.6), Radius: vg.Points(1.5), Shape: draw.CircleGlyph{}}
	b.p.Add(s)
	return nil
}

func (b *builder) scatters(traces []chart.Trace) error {
	xs := make([][]dataset.Value, len(traces))
	ys := make([][]dataset.Value, len(traces))
	for i, t := range traces {
		xs[i], ys[i] = t.X, t.Y
	}
	xAxis, yAxis := newAxis(xs...), newAxis(ys...)
	xAxis.apply(&b.p.X)
	yAxis.apply(&b.p.Y)

	for i, t := range traces {
		xys, rows := project(t, xAxis, yAxis)
		if len(xys) == 0 {
			continue
		}
		c := withOpacity(traceColor(t.Color, i), t.Opacity)
		var thumbs []gonumplot.Thumbnailer

		mode := t.Mode
		if mode == "" {
			mode = "markers"
		}
		if strings.Contains(mode, "lines") {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return err
			}
			l.LineStyle.Color = c
			l.LineStyle.Width = vg.Points(math.Max(t.LineWidth, 1))
			b.p.Add(l)
			thumbs = append(thumbs, l)
		}
		if strings.Contains(mode, "markers") {
			s, err := plotter.NewScatter(xys)
			if err != nil {
				return err
			}
			s.GlyphStyle = draw.GlyphStyle{Color: c, Radius: vg.Points(markerRadius), Shape: glyph(t.Symbol)}
			styleMarkers(s, t, rows, c, b.layout.ColorScale)
			b.p.Add(s)
			thumbs = append(thumbs, s)
		}
		if strings.Contains(mode, "text") && len(t.Text) > 0 {
			if err := b.labels(xys, rows, t.Text); err != nil {
				return err
			}
		}
		if err := b.trendline(t, xys, c); err != nil {
			return err
		}
		b.legend(t.Name, thumbs...)
	}
	return nil
}

// project returns the placeable points of t with the row each came from.
func project(t chart.Trace, xAxis, yAxis *axis) (plotter.XYs, []int) {
	var xys plotter.XYs
	var rows []int
	for j := range t.X {
		if j >= len(t.Y) {
			break
		}
		x, okX := xAxis.pos(t.X[j])
		y, okY := yAxis.pos(t.Y[j])
		if !okX || !okY || math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
		rows = append(rows, j)
	}
	return xys, rows
}

// styleMarkers applies per-point colors and sizes.
func styleMarkers(s *plotter.Scatter, t chart.Trace, rows []int, c color.Color, layoutScale string) {
	colors := pick(t.MarkerColor, rows)
	sizes := pick(t.MarkerSize, rows)
	if colors == nil && sizes == nil {
		return
	}
	scale := colorScale(firstNonEmpty(t.ColorScale, layoutScale))
	cLo, cHi := bounds(colors)
	sLo, sHi := bounds(sizes)
	base := s.GlyphStyle
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		g := base
		if colors != nil {
			g.Color = withOpacity(scale.at(colors[i], cLo, cHi), t.Opacity)
		}
		if sizes != nil && !math.IsNaN(sizes[i]) {
			switch {
			case sLo == sHi:
				g.Radius = vg.Points(sizes[i] / 2)
			default:
				frac := (sizes[i] - sLo) / (sHi - sLo)
				g.Radius = vg.Points(minBubble + frac*(maxBubble-minBubble))
			}
		}
		return g
	}
}

func pick(fs chart.Floats, rows []int) []float64 {
	if len(fs) == 0 {
		return nil
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = math.NaN()
		if r < len(fs) {
			out[i] = fs[r]
		}
	}
	return out
}

func bounds(fs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, f := range finite(fs) {
		lo, hi = math.Min(lo, f), math.Max(hi, f)
	}
	if lo > hi {
		return 0, 1
	}
	return lo, hi
}

func (b *builder) labels(xys plotter.XYs, rows []int, text []string) error {
	labels := make([]string, len(rows))
	for i, r := range rows {
		if r < len(text) {
			labels[i] = text[r]
		}
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return err
	}
	l.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(4)}
	b.p.Add(l)
	return nil
}

func (b *builder) trendline(t chart.Trace, xys plotter.XYs, c color.Color) error {
	var fit plotter.XYs
	switch t.Trendline {
	case "ols":
		fit = olsLine(xys)
	case "lowess":
		fit = lowessLine(xys)
	}
	if len(fit) < 2 {
		return nil
	}
	l, err := plotter.NewLine(fit)
	if err != nil {
		return err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	b.p.Add(l)
	return nil
}

func glyph(symbol string) draw.GlyphDrawer {
	switch symbol {
	case "square":
		return draw.SquareGlyph{}
	case "diamond", "triangle-down":
		return draw.PyramidGlyph{}
	case "triangle-up", "triangle":
		return draw.TriangleGlyph{}
	case "cross":
		return draw.PlusGlyph{}
	case "x":
		return draw.CrossGlyph{}
	case "circle-open":
		return draw.RingGlyph{}
	default:
		return draw.CircleGlyph{}
	}
}

// grid adapts a heatmap trace to plotter.GridXYZ. NaN cells read as lo.
type grid struct {
	z  []chart.Floats
	lo float64
}

func (g grid) Dims() (c, r int) { return len(g.z[0]), len(g.z) }

func (g grid) Z(c, r int) float64 {
	if v := g.z[r][c]; !math.IsNaN(v) {
		return v
	}
	return g.lo
}

func (g grid) X(c int) float64 { return float64(c) }
func (g grid) Y(r int) float64 { return float64(r) }

func (b *builder) heatmap(t chart.Trace) error {
	if len(t.Z) == 0 || len(t.Z[0]) == 0 {
		return nil
	}
	xl := make([]string, len(t.X))
	for i, v := range t.X {
		xl[i] = v.String()
	}
	yl := make([]string, len(t.Y))
	for i, v := range t.Y {
		yl[i] = v.String()
	}
	categories(xl).apply(&b.p.X)
	categories(yl).apply(&b.p.Y)

	var all []float64
	for _, row := range t.Z {
		all = append(all, row...)
	}
	lo, hi := bounds(all)
	if lo == hi {
		hi = lo + 1
	}
	hm := plotter.NewHeatMap(grid{z: t.Z, lo: lo}, colorScale(firstNonEmpty(t.ColorScale, b.layout.ColorScale)))
	hm.Min, hm.Max = lo, hi
	b.p.Add(hm)

	if !t.Annotate {
		return nil
	}
	var xys plotter.XYs
	var text []string
	for r, row := range t.Z {
		for c, v := range row {
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			text = append(text, cellText(v))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	b.p.Add(labels)
	return nil
}

func cellText(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
