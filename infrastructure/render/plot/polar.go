package plot

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/felixgeelhaar/chartforge/domain/chart"
)

// arcStep is the angular resolution of drawn arcs, in radians.
const arcStep = math.Pi / 90

var gridStyle = draw.LineStyle{Color: color.Gray{Y: 0xdd}, Width: vg.Points(0.5)}

func textStyle(size vg.Length) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(gonumplot.DefaultFont, size),
		XAlign:  draw.XCenter,
		YAlign:  draw.YCenter,
		Handler: gonumplot.DefaultTextHandler,
	}
}

// framed returns a plot without axes that leaves the drawing to a custom
// plotter, keeping the title and legend machinery.
func framed(title string) *gonumplot.Plot {
	p := gonumplot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Legend.Top = true
	return p
}

// centre returns the centre and radius of the largest circle that fits c
// with some margin.
func centre(c draw.Canvas) (vg.Point, vg.Length) {
	w, h := c.Max.X-c.Min.X, c.Max.Y-c.Min.Y
	pt := vg.Point{X: c.Min.X + w/2, Y: c.Min.Y + h/2}
	return pt, vg.Length(0.4 * math.Min(float64(w), float64(h)))
}

func polarPoint(o vg.Point, r vg.Length, angle float64) vg.Point {
	return vg.Point{X: o.X + r*vg.Length(math.Cos(angle)), Y: o.Y + r*vg.Length(math.Sin(angle))}
}

// arc returns points from angle a0 to a1, clockwise when a1 < a0.
func arc(o vg.Point, r vg.Length, a0, a1 float64) []vg.Point {
	steps := max(2, int(math.Ceil(math.Abs(a1-a0)/arcStep)))
	pts := make([]vg.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		pts = append(pts, polarPoint(o, r, a0+(a1-a0)*float64(i)/float64(steps)))
	}
	return pts
}

// pie draws one pie trace clockwise from twelve o'clock.
type pie struct {
	trace  chart.Trace
	colors []color.Color
}

func newPie(t chart.Trace) *pie {
	p := &pie{trace: t, colors: make([]color.Color, len(t.Values))}
	for i := range p.colors {
		p.colors[i] = traceColor("", i)
	}
	return p
}

// DataRange implements gonumplot.DataRanger.
func (p *pie) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, -1, 1
}

// Plot implements gonumplot.Plotter.
func (p *pie) Plot(c draw.Canvas, _ *gonumplot.Plot) {
	total := 0.0
	for _, v := range p.trace.Values {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		return
	}
	o, r := centre(c)
	inner := r * vg.Length(p.trace.Hole)
	labelStyle := textStyle(vg.Points(9))

	start := math.Pi / 2
	for i, v := range p.trace.Values {
		if !(v > 0) {
			continue
		}
		sweep := 2 * math.Pi * v / total
		end := start - sweep
		mid := (start + end) / 2

		at := o
		if i < len(p.trace.Pull) && p.trace.Pull[i] > 0 {
			at = polarPoint(o, r*vg.Length(p.trace.Pull[i]), mid)
		}
		outline := arc(at, r, start, end)
		if inner > 0 {
			hole := arc(at, inner, end, start)
			outline = append(outline, hole...)
		} else {
			outline = append(outline, at)
		}
		c.FillPolygon(p.colors[i], outline)
		c.StrokeLines(draw.LineStyle{Color: color.White, Width: vg.Points(1)}, append(outline, outline[0]))

		if sweep > 0.15 {
			c.FillText(labelStyle, polarPoint(at, (r+inner)/2, mid), p.sliceText(i, v, total))
		}
		start = end
	}
}

// sliceText formats a slice label according to the trace's text info.
func (p *pie) sliceText(i int, v, total float64) string {
	var parts []string
	for _, part := range strings.Split(p.trace.TextInfo, "+") {
		switch part {
		case "label":
			if i < len(p.trace.Labels) {
				parts = append(parts, p.trace.Labels[i])
			}
		case "value":
			parts = append(parts, cellText(v))
		case "percent":
			parts = append(parts, fmt.Sprintf("%.1f%%", 100*v/total))
		}
	}
	return strings.Join(parts, "\n")
}

func piePlot(t chart.Trace, title string, legend bool) *gonumplot.Plot {
	p := framed(title)
	pc := newPie(t)
	p.Add(pc)
	if legend {
		for i, l := range t.Labels {
			p.Legend.Add(l, swatch{pc.colors[i]})
		}
	}
	return p
}

// radar draws closed polygons on a polar grid, one per trace.
type radar struct {
	traces []chart.Trace
	axes   []string
	lo, hi float64
}

func newRadar(traces []chart.Trace, fixed *[2]float64) *radar {
	r := &radar{traces: traces}
	if len(traces) > 0 {
		theta := traces[0].Theta
		if n := len(theta); n > 1 && theta[0] == theta[n-1] {
			theta = theta[:n-1]
		}
		r.axes = theta
	}
	if fixed != nil {
		r.lo, r.hi = fixed[0], fixed[1]
		return r
	}
	var all []float64
	for _, t := range traces {
		all = append(all, t.R...)
	}
	lo, hi := bounds(all)
	r.lo, r.hi = math.Min(0, lo), hi
	if r.hi <= r.lo {
		r.hi = r.lo + 1
	}
	return r
}

// DataRange implements gonumplot.DataRanger.
func (r *radar) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, -1, 1
}

func (r *radar) angle(i int) float64 {
	return math.Pi/2 - 2*math.Pi*float64(i)/float64(len(r.axes))
}

// Plot implements gonumplot.Plotter.
func (r *radar) Plot(c draw.Canvas, _ *gonumplot.Plot) {
	n := len(r.axes)
	if n == 0 {
		return
	}
	o, radius := centre(c)

	const rings = 4
	for k := 1; k <= rings; k++ {
		ring := make([]vg.Point, 0, n+1)
		for i := 0; i <= n; i++ {
			ring = append(ring, polarPoint(o, radius*vg.Length(k)/rings, r.angle(i%n)))
		}
		c.StrokeLines(gridStyle, ring)
	}
	labelStyle := textStyle(vg.Points(9))
	for i, name := range r.axes {
		c.StrokeLines(gridStyle, []vg.Point{o, polarPoint(o, radius, r.angle(i))})
		c.FillText(labelStyle, polarPoint(o, radius+vg.Points(14), r.angle(i)), name)
	}

	for ti, t := range r.traces {
		col := traceColor(t.Color, ti)
		var poly []vg.Point
		for i := 0; i < n && i < len(t.R); i++ {
			v := t.R[i]
			if math.IsNaN(v) {
				v = r.lo
			}
			frac := math.Max(0, math.Min(1, (v-r.lo)/(r.hi-r.lo)))
			poly = append(poly, polarPoint(o, radius*vg.Length(frac), r.angle(i)))
		}
		if len(poly) < 2 {
			continue
		}
		if t.Fill == "toself" {
			c.FillPolygon(withOpacity(col, 0.3), poly)
		}
		c.StrokeLines(draw.LineStyle{Color: col, Width: vg.Points(1.5)}, append(poly, poly[0]))
	}
}

func radarPlot(traces []chart.Trace, layout chart.Layout, title string) *gonumplot.Plot {
	p := framed(title)
	p.Add(newRadar(traces, layout.RadialRange))
	if layout.ShowLegend {
		for i, t := range traces {
			if t.Name != "" {
				p.Legend.Add(t.Name, swatch{traceColor(t.Color, i)})
			}
		}
	}
	return p
}
