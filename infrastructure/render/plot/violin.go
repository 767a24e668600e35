package plot

import (
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// violinSamples is the number of points the density is evaluated at.
const violinSamples = 64

// violin draws a kernel density estimate mirrored around its position.
// It implements gonumplot.Plotter, DataRanger and Thumbnailer.
type violin struct {
	values   []float64
	loc      float64
	width    float64
	color    color.Color
	half     bool
	innerBox bool

	ys   []float64
	dens []float64
	peak float64
}

func newViolin(vals []float64, loc, width float64, c color.Color) *violin {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	v := &violin{values: sorted, loc: loc, width: width, color: c}
	v.estimate()
	return v
}

// estimate evaluates a Gaussian KDE with Silverman's bandwidth over the
// data range widened by one bandwidth.
func (v *violin) estimate() {
	n := float64(len(v.values))
	bw := 1.06 * stat.StdDev(v.values, nil) * math.Pow(n, -0.2)
	if !(bw > 0) {
		bw = math.Max(math.Abs(v.values[0])*0.1, 1)
	}
	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	lo, hi := v.values[0]-bw, v.values[len(v.values)-1]+bw

	v.ys = make([]float64, violinSamples)
	v.dens = make([]float64, violinSamples)
	for i := range v.ys {
		y := lo + (hi-lo)*float64(i)/float64(violinSamples-1)
		d := 0.0
		for _, x := range v.values {
			d += kernel.Prob(y - x)
		}
		v.ys[i], v.dens[i] = y, d/n
		v.peak = math.Max(v.peak, v.dens[i])
	}
}

// Plot implements gonumplot.Plotter.
func (v *violin) Plot(c draw.Canvas, plt *gonumplot.Plot) {
	if v.peak == 0 {
		return
	}
	trX, trY := plt.Transforms(&c)
	half := v.width / 2

	outline := make([]vg.Point, 0, 2*len(v.ys))
	for i, y := range v.ys {
		off := v.dens[i] / v.peak * half
		outline = append(outline, vg.Point{X: trX(v.loc + off), Y: trY(y)})
	}
	for i := len(v.ys) - 1; i >= 0; i-- {
		off := v.dens[i] / v.peak * half
		if v.half {
			off = 0
		}
		outline = append(outline, vg.Point{X: trX(v.loc - off), Y: trY(v.ys[i])})
	}
	c.FillPolygon(withOpacity(v.color, 0.5), c.ClipPolygonXY(outline))
	closed := append(outline, outline[0])
	c.StrokeLines(draw.LineStyle{Color: v.color, Width: vg.Points(1)}, c.ClipLinesXY(closed)...)

	if v.innerBox {
		q1 := stat.Quantile(0.25, stat.Empirical, v.values, nil)
		q2 := stat.Quantile(0.5, stat.Empirical, v.values, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, v.values, nil)
		w := v.width * 0.08
		box := []vg.Point{
			{X: trX(v.loc - w), Y: trY(q1)},
			{X: trX(v.loc - w), Y: trY(q3)},
			{X: trX(v.loc + w), Y: trY(q3)},
			{X: trX(v.loc + w), Y: trY(q1)},
		}
		c.FillPolygon(v.color, c.ClipPolygonXY(box))
		median := []vg.Point{{X: trX(v.loc - w), Y: trY(q2)}, {X: trX(v.loc + w), Y: trY(q2)}}
		c.StrokeLines(draw.LineStyle{Color: color.White, Width: vg.Points(1.5)}, c.ClipLinesXY(median)...)
	}
}

// DataRange implements gonumplot.DataRanger.
func (v *violin) DataRange() (xmin, xmax, ymin, ymax float64) {
	return v.loc - v.width/2, v.loc + v.width/2, v.ys[0], v.ys[len(v.ys)-1]
}

// Thumbnail implements gonumplot.Thumbnailer.
func (v *violin) Thumbnail(c *draw.Canvas) {
	swatch{v.color}.Thumbnail(c)
}

// swatch is a legend entry drawn as a filled square.
type swatch struct {
	color color.Color
}

// Thumbnail implements gonumplot.Thumbnailer.
func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, c.ClipPolygonY(pts))
}
