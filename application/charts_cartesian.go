package application

import (
	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

func compileBar(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.BarOptions)
	x, ok := roles.X.Name()
	if !ok {
		return chart.Err("")
	}

	if roles.Y.IsNone() {
		counts, err := ds.ValueCounts(x)
		if err != nil {
			return failed(chart.TypeBar, err)
		}
		countCol := counts.Columns()[1]
		return chart.Ok(chart.Spec{
			Traces: []chart.Trace{{
				Kind:        chart.GeomBar,
				X:           values(counts, x),
				Y:           values(counts, countCol),
				Orientation: opts.Orientation,
			}},
			Layout: chart.Layout{
				Title:      "Frecuencia de " + x,
				XAxisTitle: x,
				YAxisTitle: countCol,
				BarMode:    opts.BarMode,
			},
		})
	}

	spec := chart.Spec{Layout: chart.Layout{
		Title:      "Gráfico de Barras: " + roles.Y.String() + " por " + x,
		XAxisTitle: x,
		YAxisTitle: roles.Y.String(),
		BarMode:    opts.BarMode,
	}}

	// Several y columns: one series per column.
	if roles.Y.IsList() {
		for i, y := range roles.Y.Names() {
			spec.Traces = append(spec.Traces, chart.Trace{
				Kind:        chart.GeomBar,
				Name:        y,
				X:           values(ds, x),
				Y:           values(ds, y),
				Color:       chart.PaletteColor(i),
				Orientation: opts.Orientation,
			})
		}
		return chart.Ok(spec)
	}

	y, _ := roles.Y.Name()
	names, parts, err := colorGroups(ds, roles)
	if err != nil {
		return failed(chart.TypeBar, err)
	}
	for i, part := range parts {
		spec.Traces = append(spec.Traces, chart.Trace{
			Kind:        chart.GeomBar,
			Name:        names[i],
			X:           values(part, x),
			Y:           values(part, y),
			Color:       groupColor(names, i),
			Orientation: opts.Orientation,
		})
	}
	return chart.Ok(spec)
}

func compileHistogram(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.HistogramOptions)
	x, ok := roles.X.Name()
	if !ok {
		return chart.Err("")
	}

	histnorm := opts.HistNorm
	if histnorm == "none" {
		histnorm = ""
	}
	names, parts, err := colorGroups(ds, roles)
	if err != nil {
		return failed(chart.TypeHistogram, err)
	}
	spec := chart.Spec{Layout: chart.Layout{
		Title:      "Histograma de " + x,
		XAxisTitle: x,
		YAxisTitle: histogramAxis(histnorm),
	}}
	if len(parts) > 1 {
		spec.Layout.BarMode = "overlay"
	}
	for i, part := range parts {
		spec.Traces = append(spec.Traces, chart.Trace{
			Kind:     chart.GeomHistogram,
			Name:     names[i],
			X:        values(part, x),
			Color:    groupColor(names, i),
			NBins:    opts.NBins,
			HistNorm: histnorm,
			Opacity:  opts.Opacity,
		})
	}
	return chart.Ok(spec)
}

func histogramAxis(histnorm string) string {
	if histnorm == "" {
		return "count"
	}
	return histnorm
}

// compileDistribution builds box and violin plots. With only one of x and y
// bound, that column is the value axis; with both, y is the value and x the
// grouping.
func compileDistribution(t chart.Type) handler {
	geom, caption := chart.GeomBox, "Boxplot de "
	if t == chart.TypeViolin {
		geom, caption = chart.GeomViolin, "Violin Plot de "
	}

	return func(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
		opts := o.(chart.DistributionOptions)
		value, group, ok := valueAndGroup(roles)
		if !ok {
			return chart.Err("")
		}
		if !ds.IsNumeric(value) {
			return failed(t, notNumeric(value))
		}

		points := opts.Points
		if !opts.ShowOutliers && points == "outliers" {
			points = "none"
		}
		title := caption + value
		if group != "" {
			title += " por " + group
		}

		names, parts, err := colorGroups(ds, roles)
		if err != nil {
			return failed(t, err)
		}
		spec := chart.Spec{Layout: chart.Layout{Title: title, XAxisTitle: group, YAxisTitle: value}}
		for i, part := range parts {
			tr := chart.Trace{
				Kind:   geom,
				Name:   names[i],
				Y:      values(part, value),
				Color:  groupColor(names, i),
				Points: points,
			}
			if group != "" {
				tr.X = values(part, group)
			}
			if geom == chart.GeomViolin {
				tr.InnerBox = opts.InnerBox
			}
			spec.Traces = append(spec.Traces, tr)
		}
		return chart.Ok(spec)
	}
}

// valueAndGroup picks the value column and the optional grouping column.
func valueAndGroup(roles chart.Roles) (value, group string, ok bool) {
	if y, ok := roles.Y.Name(); ok {
		group, _ = roles.X.Name()
		return y, group, true
	}
	if !roles.Y.IsNone() {
		return "", "", false
	}
	x, ok := roles.X.Name()
	return x, "", ok
}

func compileScatter(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.ScatterOptions)
	x, okX := roles.X.Name()
	y, okY := roles.Y.Name()
	if !okX || !okY {
		return chart.Err("")
	}

	size, hasSize := roles.Size.Name()
	if hasSize && !ds.IsNumeric(size) {
		hasSize = false
	}

	spec := chart.Spec{Layout: chart.Layout{
		Title:      "Dispersión: " + y + " vs " + x,
		XAxisTitle: x,
		YAxisTitle: y,
	}}
	newTrace := func(part *dataset.Dataset) chart.Trace {
		tr := chart.Trace{
			Kind:      chart.GeomScatter,
			Mode:      "markers",
			X:         values(part, x),
			Y:         values(part, y),
			Opacity:   opts.Opacity,
			Symbol:    opts.MarkerShape,
			Trendline: opts.Trendline,
		}
		if hasSize {
			tr.MarkerSize = floats(part, size)
		}
		return tr
	}

	// A numeric color column is a continuous scale on one trace.
	if color, ok := roles.Color.Name(); ok && ds.IsNumeric(color) {
		tr := newTrace(ds)
		tr.MarkerColor = floats(ds, color)
		spec.Traces = append(spec.Traces, tr)
		spec.Layout.ColorScale = "viridis"
		return chart.Ok(spec)
	}

	names, parts, err := colorGroups(ds, roles)
	if err != nil {
		return failed(chart.TypeScatter, err)
	}
	for i, part := range parts {
		tr := newTrace(part)
		tr.Name = names[i]
		tr.Color = groupColor(names, i)
		spec.Traces = append(spec.Traces, tr)
	}
	return chart.Ok(spec)
}

func compileDiverging(ds *dataset.Dataset, roles chart.Roles, o chart.Options) chart.Result {
	opts := o.(chart.DivergingOptions)
	x, okX := roles.X.Name()
	y, okY := roles.Y.Name()
	if !okX || !okY {
		return chart.Err("")
	}
	if !ds.IsNumeric(y) {
		return failed(chart.TypeDivergingBars, notNumeric(y))
	}

	midpoint := opts.Midpoint
	return chart.Ok(chart.Spec{
		Traces: []chart.Trace{{
			Kind:        chart.GeomBar,
			X:           values(ds, x),
			Y:           values(ds, y),
			MarkerColor: floats(ds, y),
			ColorScale:  opts.ColorScale,
		}},
		Layout: chart.Layout{
			Title:         "Barras Divergentes: " + y + " por " + x,
			XAxisTitle:    x,
			YAxisTitle:    y,
			ColorScale:    opts.ColorScale,
			ColorMidpoint: &midpoint,
		},
	})
}
