package application

import (
	"fmt"
	"math"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

// Titles of slope and radar charts that could not be built.
const (
	slopeNeedsTwoPoints = "Slope Chart: Error - Se requieren 2 puntos en X"
	radarNeedsList      = "Radar Chart: 'y' debe ser lista de columnas"
)

const neutralColor = "grey"

// compileSlope draws one two-point line per entity of the color column,
// from the first x value to the second.
func compileSlope(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.SlopeOptions)
	x, okX := roles.X.Name()
	y, okY := roles.Y.Name()
	entity, okC := roles.Color.Name()
	if !okX || !okY || !okC {
		return chart.Err("")
	}

	sub, err := ds.Select(x, y, entity)
	if err != nil {
		return failed(chart.TypeSlope, err)
	}
	points, err := nonNullUnique(sub, x)
	if err != nil {
		return failed(chart.TypeSlope, err)
	}
	if len(points) != 2 {
		return chart.Err(slopeNeedsTwoPoints)
	}
	if !sub.IsNumeric(y) {
		return failed(chart.TypeSlope, notNumeric(y))
	}
	wide, err := sub.Pivot(entity, x, y)
	if err != nil {
		return chart.Errorf("Slope Chart: Error pivoteando datos (%v)", err)
	}

	from, to := points[0], points[1]
	entities := values(wide, entity)
	first := floats(wide, from.String())
	second := floats(wide, to.String())

	spec := chart.Spec{Layout: chart.Layout{
		Title:      fmt.Sprintf("Slope Chart: %s de %s a %s por %s", y, from, to, entity),
		XAxisTitle: x,
		YAxisTitle: y,
		ShowLegend: true,
	}}
	for i, e := range entities {
		a, b := first[i], second[i]
		spec.Traces = append(spec.Traces, chart.Trace{
			Kind:         chart.GeomScatter,
			Name:         e.String(),
			Mode:         "lines+markers+text",
			X:            []dataset.Value{from, to},
			Y:            []dataset.Value{dataset.Number(a), dataset.Number(b)},
			Text:         []string{slopeLabel(a), slopeLabel(b)},
			TextPosition: "top right",
			Color:        slopeColor(a, b, opts),
			LineWidth:    2,
			MarkerSize:   chart.Floats{8, 8},
		})
	}
	return chart.Ok(spec)
}

func slopeColor(a, b float64, opts chart.SlopeOptions) string {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return neutralColor
	case b > a:
		return opts.PositiveColor
	case b < a:
		return opts.NegativeColor
	default:
		return neutralColor
	}
}

func slopeLabel(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

// nonNullUnique returns the distinct non-null values of a column in order
// of first appearance.
func nonNullUnique(ds *dataset.Dataset, name string) ([]dataset.Value, error) {
	all, err := ds.Unique(name)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, v := range all {
		if !v.IsNull() {
			out = append(out, v)
		}
	}
	return out, nil
}

// compileRadar draws one closed polygon per x group, or a single polygon of
// the column means (the only row, for a one-row dataset) without x.
func compileRadar(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.RadarOptions)
	axes := roles.Y.Names()
	if !roles.Y.IsList() || len(axes) == 0 {
		return chart.Err(radarNeedsList)
	}
	theta := append(append([]string{}, axes...), axes[0])

	polygon := func(name string, r []dataset.Value) chart.Trace {
		closed := make(chart.Floats, 0, len(r)+1)
		for _, v := range r {
			closed = append(closed, numberOrNaN(v))
		}
		closed = append(closed, closed[0])
		return chart.Trace{Kind: chart.GeomPolar, Name: name, R: closed, Theta: theta, Fill: "toself"}
	}

	spec := chart.Spec{Layout: chart.Layout{Title: "Radar Chart", RadialRange: opts.Range}}
	if x, ok := roles.X.Name(); ok {
		grouped, err := ds.GroupBy(x, dataset.AggMean, axes...)
		if err != nil {
			return failed(chart.TypeRadar, err)
		}
		keys := values(grouped, x)
		for i, k := range keys {
			r := make([]dataset.Value, len(axes))
			for j, a := range axes {
				r[j], _ = grouped.At(a, i)
			}
			spec.Traces = append(spec.Traces, polygon(k.String(), r))
		}
		spec.Layout.Title += " por " + x
		spec.Layout.ShowLegend = len(keys) > 1
		return chart.Ok(spec)
	}

	var r []dataset.Value
	if ds.Len() > 1 {
		means, err := ds.Mean(axes...)
		if err != nil {
			return failed(chart.TypeRadar, err)
		}
		r = means
	} else {
		for _, a := range axes {
			if !ds.IsNumeric(a) {
				return failed(chart.TypeRadar, notNumeric(a))
			}
			v, _ := ds.At(a, 0)
			r = append(r, v)
		}
	}
	spec.Traces = append(spec.Traces, polygon(opts.TraceName, r))
	return chart.Ok(spec)
}

func numberOrNaN(v dataset.Value) float64 {
	f, ok := v.Float()
	if !ok {
		return math.NaN()
	}
	return f
}

// compileCombined pairs a half violin with a narrow box for each group of
// x, in order of first appearance, or a single pair without grouping.
func compileCombined(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.CombinedOptions)
	value, group, ok := valueAndGroup(roles)
	if !ok {
		return chart.Err("")
	}
	if !ds.IsNumeric(value) {
		return failed(chart.TypeBoxViolin, notNumeric(value))
	}

	suffix := value
	if group != "" {
		suffix += " por " + group
	}
	spec := chart.Spec{Layout: chart.Layout{
		Title:      "Boxplot + Violin Combinado: " + suffix,
		ShowLegend: group != "",
		XAxisTitle: group,
		YAxisTitle: value,
	}}

	if group == "" {
		y := values(ds, value)
		spec.Traces = []chart.Trace{
			{Kind: chart.GeomViolin, Name: "Violin", Y: y, Points: opts.Points},
			{Kind: chart.GeomBox, Name: "Box", Y: y, Points: "none", Width: 0.2},
		}
		return chart.Ok(spec)
	}

	cats, err := nonNullUnique(ds, group)
	if err != nil {
		return failed(chart.TypeBoxViolin, err)
	}
	for i, cat := range cats {
		part, err := ds.Where(group, cat)
		if err != nil {
			return failed(chart.TypeBoxViolin, err)
		}
		name, color, y := cat.String(), chart.PaletteColor(i), values(part, value)
		spec.Traces = append(spec.Traces,
			chart.Trace{
				Kind:        chart.GeomViolin,
				Name:        name + " (Violin)",
				Y:           y,
				Points:      opts.Points,
				Side:        "positive",
				Color:       color,
				LegendGroup: name,
				ScaleGroup:  name,
			},
			chart.Trace{
				Kind:        chart.GeomBox,
				Name:        name + " (Box)",
				Y:           y,
				Points:      "none",
				Width:       0.2,
				Color:       color,
				LegendGroup: name,
			},
		)
	}
	return chart.Ok(spec)
}
