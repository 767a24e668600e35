package plot

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"
)

// lowessFrac is the share of points in each local regression.
const lowessFrac = 2.0 / 3.0

// olsLine fits y = alpha + beta*x by least squares and returns the line
// over the range of x.
func olsLine(xys plotter.XYs) plotter.XYs {
	if len(xys) < 2 {
		return nil
	}
	xs, ys := split(xys)
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return plotter.XYs{{X: lo, Y: alpha + beta*lo}, {X: hi, Y: alpha + beta*hi}}
}

// lowessLine smooths the points with locally weighted linear regressions
// using tricube weights over the nearest lowessFrac of the points.
func lowessLine(xys plotter.XYs) plotter.XYs {
	n := len(xys)
	if n < 3 {
		return olsLine(xys)
	}
	sorted := make(plotter.XYs, n)
	copy(sorted, xys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	xs, ys := split(sorted)

	k := max(2, int(math.Ceil(lowessFrac*float64(n))))
	out := make(plotter.XYs, n)
	weights := make([]float64, n)
	dist := make([]float64, n)
	for i, x := range xs {
		for j := range xs {
			dist[j] = math.Abs(xs[j] - x)
		}
		ranked := append([]float64(nil), dist...)
		sort.Float64s(ranked)
		h := ranked[k-1]
		if h == 0 {
			h = 1
		}
		for j := range weights {
			u := dist[j] / h
			if u >= 1 {
				weights[j] = 0
				continue
			}
			w := 1 - u*u*u
			weights[j] = w * w * w
		}
		alpha, beta := stat.LinearRegression(xs, ys, weights, false)
		y := alpha + beta*x
		if math.IsNaN(y) {
			y = stat.Mean(ys, weights)
		}
		out[i] = plotter.XY{X: x, Y: y}
	}
	return out
}

func split(xys plotter.XYs) ([]float64, []float64) {
	xs := make([]float64, len(xys))
	ys := make([]float64, len(xys))
	for i, p := range xys {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}
