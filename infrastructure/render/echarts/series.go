package echarts

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

// rdbu is the diverging scale used when bars carry per-bar values.
var rdbu = []string{"#b2182b", "#ef8a62", "#fddbc7", "#f7f7f7", "#d1e5f0", "#67a9cf", "#2166ac"}

const defaultBins = 20

func color(t chart.Trace, i int) string {
	if t.Color != "" {
		return t.Color
	}
	return chart.PaletteColor(i)
}

// labels returns the distinct string forms of the values in order of first
// appearance, skipping nulls.
func labels(series ...[]dataset.Value) []string {
	seen := make(map[string]bool)
	var out []string
	for _, vals := range series {
		for _, v := range vals {
			if v.IsNull() || seen[v.String()] {
				continue
			}
			seen[v.String()] = true
			out = append(out, v.String())
		}
	}
	return out
}

func numeric(vals []dataset.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			out = append(out, f)
		}
	}
	return out
}

// allNumeric reports whether every non-null value is a number.
func allNumeric(series ...[]dataset.Value) bool {
	for _, vals := range series {
		for _, v := range vals {
			if !v.IsNull() && v.Kind() != dataset.KindNumeric {
				return false
			}
		}
	}
	return true
}

func format(f float64) string {
	return strconv.FormatFloat(f, 'g', 4, 64)
}

func barChart(traces []chart.Trace, layout chart.Layout, base []charts.GlobalOpts) *charts.Bar {
	b := charts.NewBar()
	b.SetGlobalOptions(base...)
	b.SetGlobalOptions(axes(layout, "category", "value")...)

	xs := make([][]dataset.Value, len(traces))
	for i, t := range traces {
		xs[i] = t.X
	}
	cats := labels(xs...)
	b.SetXAxis(cats)

	for i, t := range traces {
		sums := make(map[string]float64, len(cats))
		for j := range t.X {
			if j >= len(t.Y) || t.X[j].IsNull() {
				continue
			}
			if f, ok := t.Y[j].Float(); ok && !math.IsNaN(f) {
				sums[t.X[j].String()] += f
			}
		}
		data := make([]opts.BarData, len(cats))
		for j, c := range cats {
			data[j] = opts.BarData{Name: c, Value: sums[c]}
		}
		series := []charts.SeriesOpts{charts.WithItemStyleOpts(opts.ItemStyle{Color: color(t, i)})}
		if layout.BarMode == "relative" || layout.BarMode == "stack" {
			series = append(series, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
		}
		if len(t.MarkerColor) > 0 {
			series = series[1:]
		}
		b.AddSeries(t.Name, data, series...)
	}

	if len(traces) == 1 && len(traces[0].MarkerColor) > 0 {
		lo, hi := floats.Min(finite(traces[0].MarkerColor)), floats.Max(finite(traces[0].MarkerColor))
		if mid := layout.ColorMidpoint; mid != nil {
			reach := math.Max(math.Abs(lo-*mid), math.Abs(hi-*mid))
			lo, hi = *mid-reach, *mid+reach
		}
		b.SetGlobalOptions(charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: rdbu},
		}))
	}
	if traces[0].Orientation == "h" {
		b.XYReversal()
	}
	return b
}

func finite(fs []float64) []float64 {
	out := make([]float64, 0, len(fs))
	for _, f := range fs {
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []float64{0}
	}
	return out
}

// histogramChart bins every trace over a shared range.
func histogramChart(traces []chart.Trace, layout chart.Layout, base []charts.GlobalOpts) components.Charter {
	samples := make([][]float64, len(traces))
	var all []float64
	for i, t := range traces {
		samples[i] = numeric(t.X)
		all = append(all, samples[i]...)
	}
	if len(all) == 0 {
		// Categorical histograms are value counts.
		counted := make([]chart.Trace, len(traces))
		for i, t := range traces {
			ones := make([]dataset.Value, len(t.X))
			for j := range ones {
				ones[j] = dataset.Number(1)
			}
			counted[i] = chart.Trace{Kind: chart.GeomBar, Name: t.Name, X: t.X, Y: ones, Color: t.Color}
		}
		return barChart(counted, layout, base)
	}

	n := traces[0].NBins
	if n <= 0 {
		n = defaultBins
	}
	lo, hi := floats.Min(all), floats.Max(all)
	if hi == lo {
		hi = lo + 1
	}
	dividers := make([]float64, n+1)
	floats.Span(dividers, lo, hi)
	dividers[n] = math.Nextafter(hi, math.Inf(1))

	b := charts.NewBar()
	b.SetGlobalOptions(base...)
	b.SetGlobalOptions(axes(layout, "category", "value")...)
	names := make([]string, n)
	for i := range names {
		names[i] = "[" + format(dividers[i]) + ", " + format(dividers[i+1]) + ")"
	}
	b.SetXAxis(names)

	for i, t := range traces {
		x := slices.Clone(samples[i])
		slices.Sort(x)
		counts := make([]float64, n)
		if len(x) > 0 {
			stat.Histogram(counts, dividers, x, nil)
		}
		normalize(counts, t.HistNorm, len(x), dividers[1]-dividers[0])
		data := make([]opts.BarData, n)
		for j, c := range counts {
			data[j] = opts.BarData{Value: c}
		}
		b.AddSeries(t.Name, data,
			charts.WithBarChartOpts(opts.BarChart{BarGap: "-100%", BarCategoryGap: "0%"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color(t, i)}),
		)
	}
	return b
}

func normalize(counts []float64, norm string, n int, width float64) {
	if n == 0 {
		return
	}
	scale := 1.0
	switch norm {
	case "probability":
		scale = 1 / float64(n)
	case "percent":
		scale = 100 / float64(n)
	case "density":
		scale = 1 / (float64(n) * width)
	}
	floats.Scale(scale, counts)
}

// fiveNumbers returns min, lower quartile, median, upper quartile and max.
func fiveNumbers(vals []float64) []float64 {
	x := slices.Clone(vals)
	slices.Sort(x)
	return []float64{
		x[0],
		stat.Quantile(0.25, stat.Empirical, x, nil),
		stat.Quantile(0.5, stat.Empirical, x, nil),
		stat.Quantile(0.75, stat.Empirical, x, nil),
		x[len(x)-1],
	}
}

// boxChart draws box and violin traces as box plots; echarts has no
// violin series.
func boxChart(traces []chart.Trace, layout chart.Layout, base []charts.GlobalOpts) *charts.BoxPlot {
	b := charts.NewBoxPlot()
	b.SetGlobalOptions(base...)
	b.SetGlobalOptions(axes(layout, "category", "value")...)

	grouped := false
	for _, t := range traces {
		if len(t.X) > 0 {
			grouped = true
		}
	}
	var cats []string
	if grouped {
		xs := make([][]dataset.Value, len(traces))
		for i, t := range traces {
			xs[i] = t.X
		}
		cats = labels(xs...)
	} else {
		for _, t := range traces {
			if !slices.Contains(cats, t.Name) {
				cats = append(cats, t.Name)
			}
		}
	}
	b.SetXAxis(cats)

	for i, t := range traces {
		data := make([]opts.BoxPlotData, len(cats))
		for j, c := range cats {
			var vals []float64
			switch {
			case grouped:
				for k := range t.X {
					if k < len(t.Y) && !t.X[k].IsNull() && t.X[k].String() == c {
						vals = append(vals, numeric(t.Y[k:k+1])...)
					}
				}
			case t.Name == c:
				vals = numeric(t.Y)
			}
			if len(vals) > 0 {
				data[j] = opts.BoxPlotData{Name: c, Value: fiveNumbers(vals)}
			} else {
				data[j] = opts.BoxPlotData{Name: c, Value: []float64{}}
			}
		}
		b.AddSeries(t.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{BorderColor: color(t, i)}))
	}
	return b
}

func hasLines(traces []chart.Trace) bool {
	for _, t := range traces {
		if strings.Contains(t.Mode, "lines") {
			return true
		}
	}
	return false
}

// scatterChart draws markers on value axes, or lines over category axes
// for line traces such as slope charts.
func scatterChart(traces []chart.Trace, layout chart.Layout, base []charts.GlobalOpts) components.Charter {
	xs := make([][]dataset.Value, len(traces))
	for i, t := range traces {
		xs[i] = t.X
	}
	if hasLines(traces) {
		return lineChart(traces, layout, base, labels(xs...))
	}

	xType := "value"
	if !allNumeric(xs...) {
		xType = "category"
	}
	s := charts.NewScatter()
	s.SetGlobalOptions(base...)
	s.SetGlobalOptions(axes(layout, xType, "value")...)
	if xType == "category" {
		s.SetXAxis(labels(xs...))
	}

	for i, t := range traces {
		sizes := bubbleSizes(t.MarkerSize)
		var data []opts.ScatterData
		var fit [][2]float64
		for j := range t.X {
			if j >= len(t.Y) || t.X[j].IsNull() {
				continue
			}
			y, ok := t.Y[j].Float()
			if !ok || math.IsNaN(y) {
				continue
			}
			d := opts.ScatterData{Value: []any{t.X[j].Interface(), y}, SymbolSize: 8}
			if xType == "category" {
				d.Value = []any{t.X[j].String(), y}
			}
			if j < len(sizes) && sizes[j] > 0 {
				d.SymbolSize = sizes[j]
			}
			data = append(data, d)
			if x, ok := t.X[j].Float(); ok {
				fit = append(fit, [2]float64{x, y})
			}
		}
		s.AddSeries(t.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: color(t, i)}))

		if t.Trendline == "ols" && xType == "value" && len(fit) > 1 {
			s.Overlap(trendLine(t.Name, fit, color(t, i)))
		}
	}
	return s
}

// bubbleSizes maps sizes onto symbol sizes between 4 and 24.
func bubbleSizes(fs chart.Floats) []int {
	if len(fs) == 0 {
		return nil
	}
	vals := finite(fs)
	lo, hi := floats.Min(vals), floats.Max(vals)
	out := make([]int, len(fs))
	for i, f := range fs {
		switch {
		case math.IsNaN(f):
		case hi == lo:
			out[i] = 12
		default:
			out[i] = 4 + int(math.Round(20*(f-lo)/(hi-lo)))
		}
	}
	return out
}

func trendLine(name string, pts [][2]float64, c string) *charts.Line {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p[0], p[1]
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	lo, hi := floats.Min(xs), floats.Max(xs)

	l := charts.NewLine()
	l.AddSeries(name+" (OLS)", []opts.LineData{
		{Value: []float64{lo, alpha + beta*lo}},
		{Value: []float64{hi, alpha + beta*hi}},
	}, charts.WithLineStyleOpts(opts.LineStyle{Color: c, Type: "dashed"}))
	return l
}

func lineChart(traces []chart.Trace, layout chart.Layout, base []charts.GlobalOpts, cats []string) *charts.Line {
	l := charts.NewLine()
	l.SetGlobalOptions(base...)
	l.SetGlobalOptions(axes(layout, "category", "value")...)
	l.SetXAxis(cats)

	for i, t := range traces {
		at := make(map[string]any, len(t.X))
		for j := range t.X {
			if j < len(t.Y) && !t.X[j].IsNull() {
				if y, ok := t.Y[j].Float(); ok && !math.IsNaN(y) {
					at[t.X[j].String()] = y
				}
			}
		}
		data := make([]opts.LineData, len(cats))
		for j, c := range cats {
			data[j] = opts.LineData{Value: at[c]}
		}
		series := []charts.SeriesOpts{
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color(t, i)}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(strings.Contains(t.Mode, "markers"))}),
		}
		if strings.Contains(t.Mode, "text") {
			series = append(series, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
		}
		l.AddSeries(t.Name, data, series...)
	}
	return l
}

func heatmapChart(t chart.Trace, layout chart.Layout, base []charts.GlobalOpts) *charts.HeatMap {
	h := charts.NewHeatMap()
	h.SetGlobalOptions(base...)
	cols, rows := labels(t.X), labels(t.Y)
	h.SetGlobalOptions(
		charts.WithXAxisOpts(opts.XAxis{Name: layout.XAxisTitle, Type: "category", SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Name: layout.YAxisTitle, Type: "category", Data: rows, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
	)

	var data []opts.HeatMapData
	var all []float64
	for r, row := range t.Z {
		for c, v := range row {
			if math.IsNaN(v) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]any{c, r, v}})
			all = append(all, v)
		}
	}
	vals := finite(all)
	colors := viridis
	if strings.EqualFold(firstNonEmpty(t.ColorScale, layout.ColorScale), "rdbu") {
		colors = rdbu
	}
	h.SetGlobalOptions(charts.WithVisualMapOpts(opts.VisualMap{
		Calculable: opts.Bool(true),
		Min:        float32(floats.Min(vals)),
		Max:        float32(floats.Max(vals)),
		InRange:    &opts.VisualMapInRange{Color: colors},
	}))
	h.SetXAxis(cols)
	h.AddSeries(firstNonEmpty(t.Name, "value"), data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(t.Annotate)}))
	return h
}

var viridis = []string{"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pieChart(t chart.Trace, base []charts.GlobalOpts) *charts.Pie {
	p := charts.NewPie()
	p.SetGlobalOptions(base...)
	data := make([]opts.PieData, 0, len(t.Labels))
	for i, l := range t.Labels {
		if i < len(t.Values) && t.Values[i] > 0 {
			data = append(data, opts.PieData{Name: l, Value: t.Values[i]})
		}
	}
	radius := any("70%")
	if t.Hole > 0 {
		radius = []string{strconv.Itoa(int(math.Round(70*t.Hole))) + "%", "70%"}
	}
	p.AddSeries(firstNonEmpty(t.Name, "pie"), data,
		charts.WithPieChartOpts(opts.PieChart{Radius: radius}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}\n{c}\n{d}%"}),
	)
	return p
}

func radarChart(traces []chart.Trace, layout chart.Layout, base []charts.GlobalOpts) *charts.Radar {
	r := charts.NewRadar()
	r.SetGlobalOptions(base...)

	theta := traces[0].Theta
	if n := len(theta); n > 1 && theta[0] == theta[n-1] {
		theta = theta[:n-1]
	}
	lo, hi := 0.0, 0.0
	for _, t := range traces {
		for _, v := range t.R {
			if !math.IsNaN(v) {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
	}
	if layout.RadialRange != nil {
		lo, hi = layout.RadialRange[0], layout.RadialRange[1]
	}
	indicators := make([]*opts.Indicator, len(theta))
	for i, name := range theta {
		indicators[i] = &opts.Indicator{Name: name, Min: float32(lo), Max: float32(hi)}
	}
	r.SetGlobalOptions(charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: indicators}))

	for i, t := range traces {
		vals := make([]float32, len(theta))
		for j := range vals {
			if j < len(t.R) && !math.IsNaN(t.R[j]) {
				vals[j] = float32(t.R[j])
			}
		}
		series := []charts.SeriesOpts{charts.WithItemStyleOpts(opts.ItemStyle{Color: color(t, i)})}
		if t.Fill == "toself" {
			series = append(series, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.3}))
		}
		r.AddSeries(t.Name, []opts.RadarData{{Name: t.Name, Value: vals}}, series...)
	}
	return r
}

// splomCharts draws one scatter per pair of dimensions.
func (p *Previewer) splomCharts(traces []chart.Trace, layout chart.Layout) []components.Charter {
	dims := traces[0].Dimensions
	var out []components.Charter
	for a := 0; a < len(dims); a++ {
		for b := a + 1; b < len(dims); b++ {
			pair := chart.Layout{
				Title:      layout.Title + ": " + dims[b].Label + " vs " + dims[a].Label,
				XAxisTitle: dims[a].Label,
				YAxisTitle: dims[b].Label,
				ShowLegend: layout.ShowLegend,
			}
			s := charts.NewScatter()
			s.SetGlobalOptions(p.global(pair)...)
			s.SetGlobalOptions(axes(pair, "value", "value")...)
			for i, t := range traces {
				if len(t.Dimensions) != len(dims) {
					continue
				}
				xs, ys := t.Dimensions[a].Values, t.Dimensions[b].Values
				var data []opts.ScatterData
				for j := range xs {
					if j < len(ys) && !math.IsNaN(xs[j]) && !math.IsNaN(ys[j]) {
						data = append(data, opts.ScatterData{Value: []float64{xs[j], ys[j]}, SymbolSize: 6})
					}
				}
				s.AddSeries(t.Name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: color(t, i)}))
			}
			out = append(out, s)
		}
	}
	return out
}
