package chart

import (
	"encoding/json"
	"math"

	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

// Geometry is the kind of mark a trace draws.
type Geometry string

// Trace geometries.
const (
	GeomBar       Geometry = "bar"
	GeomHistogram Geometry = "histogram"
	GeomBox       Geometry = "box"
	GeomViolin    Geometry = "violin"
	GeomScatter   Geometry = "scatter"
	GeomHeatmap   Geometry = "heatmap"
	GeomPie       Geometry = "pie"
	GeomSplom     Geometry = "splom"
	GeomPolar     Geometry = "scatterpolar"
)

// Floats is a numeric series. NaN encodes as JSON null.
type Floats []float64

// MarshalJSON implements json.Marshaler.
func (f Floats) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(f))
	for i := range f {
		if math.IsNaN(f[i]) || math.IsInf(f[i], 0) {
			continue
		}
		v := f[i]
		out[i] = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Floats) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Floats, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	*f = out
	return nil
}

// Dimension is one axis of a scatter matrix.
type Dimension struct {
	Label  string `json:"label"`
	Values Floats `json:"values"`
}

// Cell addresses a subplot, 1-based.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Trace is one series of a chart. Which fields are meaningful depends on
// Kind.
type Trace struct {
	Kind Geometry `json:"type"`
	Name string   `json:"name,omitempty"`

	// Cartesian data. Heatmaps use X for column labels and Y for row labels.
	X []dataset.Value `json:"x,omitempty"`
	Y []dataset.Value `json:"y,omitempty"`
	Z []Floats        `json:"z,omitempty"`

	// Pie data.
	Labels   []string `json:"labels,omitempty"`
	Values   Floats   `json:"values,omitempty"`
	Pull     Floats   `json:"pull,omitempty"`
	Hole     float64  `json:"hole,omitempty"`
	TextInfo string   `json:"textinfo,omitempty"`

	// Polar data.
	R     Floats   `json:"r,omitempty"`
	Theta []string `json:"theta,omitempty"`
	Fill  string   `json:"fill,omitempty"`

	// Scatter matrix data.
	Dimensions []Dimension `json:"dimensions,omitempty"`

	Mode         string   `json:"mode,omitempty"`
	Text         []string `json:"text,omitempty"`
	TextPosition string   `json:"textposition,omitempty"`
	Color        string   `json:"color,omitempty"`
	MarkerColor  Floats   `json:"marker_color,omitempty"`
	MarkerSize   Floats   `json:"marker_size,omitempty"`
	Symbol       string   `json:"symbol,omitempty"`
	Opacity      float64  `json:"opacity,omitempty"`
	LineWidth    float64  `json:"line_width,omitempty"`
	Orientation  string   `json:"orientation,omitempty"`

	// Distribution options.
	NBins       int     `json:"nbins,omitempty"`
	HistNorm    string  `json:"histnorm,omitempty"`
	Points      string  `json:"points,omitempty"`
	InnerBox    bool    `json:"inner_box,omitempty"`
	Side        string  `json:"side,omitempty"`
	Width       float64 `json:"width,omitempty"`
	LegendGroup string  `json:"legendgroup,omitempty"`
	ScaleGroup  string  `json:"scalegroup,omitempty"`

	Trendline  string `json:"trendline,omitempty"`
	ColorScale string `json:"colorscale,omitempty"`
	Annotate   bool   `json:"annotate,omitempty"`

	Cell *Cell `json:"cell,omitempty"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// Grid is the subplot grid of a composite figure.
type Grid struct {
	Rows   int      `json:"rows"`
	Cols   int      `json:"cols"`
	Titles []string `json:"titles,omitempty"`
}

// Layout holds figure-level metadata.
type Layout struct {
	Title         string      `json:"title,omitempty"`
	TitleX        float64     `json:"title_x,omitempty"`
	XAxisTitle    string      `json:"xaxis_title,omitempty"`
	YAxisTitle    string      `json:"yaxis_title,omitempty"`
	ShowLegend    bool        `json:"showlegend"`
	LegendTitle   string      `json:"legend_title,omitempty"`
	Template      string      `json:"template,omitempty"`
	Height        int         `json:"height,omitempty"`
	Margin        *Margin     `json:"margin,omitempty"`
	BarMode       string      `json:"barmode,omitempty"`
	ColorScale    string      `json:"colorscale,omitempty"`
	ColorMidpoint *float64    `json:"color_midpoint,omitempty"`
	RadialRange   *[2]float64 `json:"radial_range,omitempty"`
	Grid          *Grid       `json:"grid,omitempty"`
}

// Annotation is a free text label placed in paper coordinates.
type Annotation struct {
	Text      string  `json:"text"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ShowArrow bool    `json:"showarrow"`
	Cell      *Cell   `json:"cell,omitempty"`
}

// Spec is a compiled chart. A Spec without traces is the canonical
// "nothing to render" result; its title may explain why.
type Spec struct {
	Traces      []Trace      `json:"data"`
	Layout      Layout       `json:"layout"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Empty returns a spec with no traces and the given title.
func Empty(title string) Spec {
	return Spec{Traces: []Trace{}, Layout: Layout{Title: title}}
}

// IsEmpty reports whether the spec has no traces.
func (s Spec) IsEmpty() bool {
	return len(s.Traces) == 0
}

// Renderable reports whether the spec has traces or annotations.
func (s Spec) Renderable() bool {
	return len(s.Traces) > 0 || len(s.Annotations) > 0
}
