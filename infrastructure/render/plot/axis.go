package plot

import (
	"math"

	gonumplot "gonum.org/v1/plot"

	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

// axis maps cell values to plot coordinates. A numeric axis uses the
// values themselves, a datetime axis Unix seconds and a categorical axis
// the position of each distinct value in order of first appearance.
type axis struct {
	kind  dataset.Kind
	index map[string]int
	names []string
}

// newAxis inspects every series that shares the axis. Any categorical
// value makes the axis categorical.
func newAxis(series ...[]dataset.Value) *axis {
	a := &axis{kind: dataset.KindNumeric, index: make(map[string]int)}
	seen := false
	for _, vals := range series {
		for _, v := range vals {
			if v.IsNull() {
				continue
			}
			switch {
			case v.Kind() == dataset.KindCategorical:
				a.kind = dataset.KindCategorical
			case !seen:
				a.kind = v.Kind()
			case v.Kind() != a.kind && a.kind != dataset.KindCategorical:
				a.kind = dataset.KindCategorical
			}
			seen = true
		}
	}
	for _, vals := range series {
		for _, v := range vals {
			a.add(v)
		}
	}
	return a
}

// categories returns an axis over the given labels, in order.
func categories(labels []string) *axis {
	a := &axis{kind: dataset.KindCategorical, index: make(map[string]int)}
	for _, l := range labels {
		a.add(dataset.Text(l))
	}
	return a
}

func (a *axis) add(v dataset.Value) {
	if v.IsNull() {
		return
	}
	k := v.String()
	if _, ok := a.index[k]; ok {
		return
	}
	a.index[k] = len(a.names)
	a.names = append(a.names, k)
}

func (a *axis) categorical() bool {
	return a.kind == dataset.KindCategorical
}

// pos returns the coordinate of v. Nulls and values the axis cannot place
// report false.
func (a *axis) pos(v dataset.Value) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	switch a.kind {
	case dataset.KindNumeric:
		f, ok := v.Float()
		return f, ok && !math.IsInf(f, 0)
	case dataset.KindDatetime:
		t, ok := v.Time()
		if !ok {
			return 0, false
		}
		return float64(t.Unix()), true
	default:
		i, ok := a.index[v.String()]
		return float64(i), ok
	}
}

// apply configures the tick marks of a plot axis.
func (a *axis) apply(ax *gonumplot.Axis) {
	switch a.kind {
	case dataset.KindDatetime:
		ax.Tick.Marker = gonumplot.TimeTicks{Format: "2006-01-02"}
	case dataset.KindCategorical:
		ticks := make(gonumplot.ConstantTicks, len(a.names))
		for i, n := range a.names {
			ticks[i] = gonumplot.Tick{Value: float64(i), Label: n}
		}
		ax.Tick.Marker = ticks
		ax.Min = -0.5
		ax.Max = float64(len(a.names)) - 0.5
	}
}

// numbers returns the finite numeric values of vals.
func numbers(vals []dataset.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			out = append(out, f)
		}
	}
	return out
}

// finite drops NaN and infinite entries.
func finite(fs []float64) []float64 {
	out := make([]float64, 0, len(fs))
	for _, f := range fs {
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			out = append(out, f)
		}
	}
	return out
}
