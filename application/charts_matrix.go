package application

import (
	"sort"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

// otherLabel names the slice that collects the categories beyond the top N.
const otherLabel = "Other"

// maxPairplotDims is the number of numeric columns a pairplot falls back to.
const maxPairplotDims = 4

func compileCorrelation(ds *dataset.Dataset, _ chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.HeatmapOptions)
	if len(ds.NumericColumns()) < 2 {
		return chart.Err("")
	}

	m := ds.Corr()
	z := make([]chart.Floats, len(m.Values))
	for i, row := range m.Values {
		z[i] = row
	}
	return chart.Ok(chart.Spec{
		Traces: []chart.Trace{{
			Kind:       chart.GeomHeatmap,
			X:          textValues(m.Labels),
			Y:          textValues(m.Labels),
			Z:          z,
			ColorScale: opts.ColorScale,
			Annotate:   opts.Annotate,
		}},
		Layout: chart.Layout{Title: "Heatmap de Correlación", ColorScale: opts.ColorScale},
	})
}

// compileCrosstab draws the frequency table of x against y: x values on the
// vertical axis, y values on the horizontal one.
func compileCrosstab(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.HeatmapOptions)
	x, okX := roles.X.Name()
	y, okY := roles.Y.Name()
	if !okX || !okY {
		return chart.Err("")
	}

	ct, err := ds.Crosstab(x, y)
	if err != nil {
		return failed(chart.TypeHeatmapCrosstab, err)
	}
	if ct.Len() == 0 {
		return chart.Err("")
	}
	cols := ct.Columns()[1:]
	z := make([]chart.Floats, ct.Len())
	for i := range z {
		z[i] = make(chart.Floats, len(cols))
	}
	for j, c := range cols {
		counts := floats(ct, c)
		for i := range z {
			z[i][j] = counts[i]
		}
	}
	return chart.Ok(chart.Spec{
		Traces: []chart.Trace{{
			Kind:       chart.GeomHeatmap,
			X:          textValues(cols),
			Y:          values(ct, x),
			Z:          z,
			ColorScale: opts.ColorScale,
			Annotate:   opts.Annotate,
		}},
		Layout: chart.Layout{
			Title:      "Heatmap: Frecuencias de " + x + " vs " + y,
			XAxisTitle: y,
			YAxisTitle: x,
			ColorScale: opts.ColorScale,
		},
	})
}

// compilePie sums values per name. Beyond TopN categories the smallest are
// collapsed into an "Other" slice, kept only when its sum is positive.
func compilePie(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.PieOptions)
	names, okN := roles.PieNames().Name()
	vals, okV := roles.PieValues().Name()
	if !okN || !okV {
		return chart.Err("")
	}
	if !ds.IsNumeric(vals) {
		return chart.Err("")
	}

	clean, err := ds.DropNull(names, vals)
	if err != nil {
		return failed(chart.TypePie, err)
	}
	if clean.Len() == 0 {
		return chart.Err("")
	}
	grouped, err := clean.GroupBy(names, dataset.AggSum, vals)
	if err != nil {
		return failed(chart.TypePie, err)
	}

	type slice struct {
		label string
		value float64
	}
	keys := values(grouped, names)
	sums := floats(grouped, vals)
	slices := make([]slice, len(keys))
	for i := range keys {
		slices[i] = slice{label: keys[i].String(), value: sums[i]}
	}

	if len(slices) > opts.TopN {
		sort.SliceStable(slices, func(i, j int) bool { return slices[i].value > slices[j].value })
		rest := 0.0
		for _, s := range slices[opts.TopN:] {
			rest += s.value
		}
		slices = slices[:opts.TopN]
		if rest > 0 {
			slices = append(slices, slice{label: otherLabel, value: rest})
		}
	}

	tr := chart.Trace{
		Kind:     chart.GeomPie,
		Labels:   make([]string, len(slices)),
		Values:   make(chart.Floats, len(slices)),
		Hole:     opts.ClampedHole(),
		TextInfo: "percent+label+value",
	}
	for i, s := range slices {
		tr.Labels[i] = s.label
		tr.Values[i] = s.value
	}
	if len(opts.Pull) > 0 {
		tr.Pull = make(chart.Floats, len(slices))
		copy(tr.Pull, opts.Pull)
	}
	return chart.Ok(chart.Spec{
		Traces: []chart.Trace{tr},
		Layout: chart.Layout{Title: "Gráfico Circular de " + vals + " por " + names},
	})
}

// pairplotDimensions keeps the requested columns that are numeric, or falls
// back to the first numeric columns.
func pairplotDimensions(ds *dataset.Dataset, requested []string) []string {
	var dims []string
	for _, d := range requested {
		if ds.IsNumeric(d) {
			dims = append(dims, d)
		}
	}
	if len(dims) > 0 {
		return dims
	}
	numeric := ds.NumericColumns()
	return numeric[:min(maxPairplotDims, len(numeric))]
}

func compilePairplot(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.PairplotOptions)
	dims := pairplotDimensions(ds, opts.Dimensions)
	if len(dims) == 0 {
		return chart.Err("")
	}

	dimensions := func(part *dataset.Dataset) []chart.Dimension {
		out := make([]chart.Dimension, len(dims))
		for i, d := range dims {
			out[i] = chart.Dimension{Label: d, Values: floats(part, d)}
		}
		return out
	}

	spec := chart.Spec{Layout: chart.Layout{Title: "Pairplot (Matriz de Dispersión)"}}
	if color, ok := roles.Color.Name(); ok && ds.IsNumeric(color) {
		spec.Traces = append(spec.Traces, chart.Trace{
			Kind:        chart.GeomSplom,
			Dimensions:  dimensions(ds),
			MarkerColor: floats(ds, color),
		})
		return chart.Ok(spec)
	}

	names, parts, err := colorGroups(ds, roles)
	if err != nil {
		return failed(chart.TypePairplot, err)
	}
	for i, part := range parts {
		spec.Traces = append(spec.Traces, chart.Trace{
			Kind:       chart.GeomSplom,
			Name:       names[i],
			Dimensions: dimensions(part),
			Color:      groupColor(names, i),
		})
	}
	return chart.Ok(spec)
}
