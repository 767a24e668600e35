package chart

import (
	"encoding/json"
	"fmt"
)

// Options is the style configuration of one chart type. Each chart type has
// its own options struct; all of them embed CommonOptions.
type Options interface {
	// Base returns the options shared by every chart type.
	Base() CommonOptions
	// Validate reports malformed option values.
	Validate() error
}

// Default layout values.
const (
	DefaultTemplate = "plotly_white"
	DefaultHeight   = 600
)

// CommonOptions are understood by every chart type.
type CommonOptions struct {
	// Title overrides the generated title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	// Template is the theme name (default: plotly_white).
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	// Height is the figure height in pixels (default: 600).
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

// Base implements Options.
func (c CommonOptions) Base() CommonOptions {
	return c
}

func (c CommonOptions) validate() error {
	if c.Height <= 0 {
		return fmt.Errorf("%w: height must be positive, got %d", ErrInvalidOptions, c.Height)
	}
	return nil
}

func defaultCommon() CommonOptions {
	return CommonOptions{Template: DefaultTemplate, Height: DefaultHeight}
}

// BarOptions configures bar charts.
type BarOptions struct {
	CommonOptions `yaml:",inline"`
	// Orientation is v or h.
	Orientation string `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	// BarMode is relative, group or overlay.
	BarMode string `json:"barmode,omitempty" yaml:"barmode,omitempty"`
}

// Validate implements Options.
func (o BarOptions) Validate() error {
	if err := oneOf("orientation", o.Orientation, "v", "h"); err != nil {
		return err
	}
	if err := oneOf("barmode", o.BarMode, "relative", "group", "overlay"); err != nil {
		return err
	}
	return o.CommonOptions.validate()
}

// HistogramOptions configures histograms.
type HistogramOptions struct {
	CommonOptions `yaml:",inline"`
	// NBins is the bin count (default: 20).
	NBins int `json:"nbins,omitempty" yaml:"nbins,omitempty"`
	// HistNorm is none, percent, probability or density.
	HistNorm string `json:"histnorm,omitempty" yaml:"histnorm,omitempty"`
	// Opacity of the bars; zero keeps the renderer default.
	Opacity float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// Validate implements Options.
func (o HistogramOptions) Validate() error {
	if o.NBins <= 0 {
		return fmt.Errorf("%w: nbins must be positive, got %d", ErrInvalidOptions, o.NBins)
	}
	if err := oneOf("histnorm", o.HistNorm, "none", "percent", "probability", "density"); err != nil {
		return err
	}
	if err := unit("opacity", o.Opacity); err != nil {
		return err
	}
	return o.CommonOptions.validate()
}

// DistributionOptions configures box and violin plots.
type DistributionOptions struct {
	CommonOptions `yaml:",inline"`
	// Points is outliers, all, none or suspected.
	Points string `json:"points,omitempty" yaml:"points,omitempty"`
	// ShowOutliers hides outlier points when false and Points is outliers.
	ShowOutliers bool `json:"show_outliers" yaml:"show_outliers"`
	// InnerBox draws a box inside violins.
	InnerBox bool `json:"inner_box,omitempty" yaml:"inner_box,omitempty"`
}

// Validate implements Options.
func (o DistributionOptions) Validate() error {
	if err := oneOf("points", o.Points, "outliers", "all", "none", "suspected"); err != nil {
		return err
	}
	return o.CommonOptions.validate()
}

// ScatterOptions configures scatter plots.
type ScatterOptions struct {
	CommonOptions `yaml:",inline"`
	// Trendline is empty, ols or lowess. It is computed by the renderer.
	Trendline string `json:"trendline,omitempty" yaml:"trendline,omitempty"`
	// Opacity of the markers; zero keeps the renderer default.
	Opacity float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	// MarkerShape is the marker symbol name.
	MarkerShape string `json:"marker_shape,omitempty" yaml:"marker_shape,omitempty"`
}

// Validate implements Options.
func (o ScatterOptions) Validate() error {
	if o.Trendline != "" {
		if err := oneOf("trendline", o.Trendline, "ols", "lowess"); err != nil {
			return err
		}
	}
	if err := unit("opacity", o.Opacity); err != nil {
		return err
	}
	return o.CommonOptions.validate()
}

// HeatmapOptions configures correlation and crosstab heatmaps.
type HeatmapOptions struct {
	CommonOptions `yaml:",inline"`
	// Annotate writes each cell's value on the cell.
	Annotate bool `json:"annotate" yaml:"annotate"`
	// ColorScale is the continuous color scale name (default: viridis).
	ColorScale string `json:"color_scale,omitempty" yaml:"color_scale,omitempty"`
}

// Validate implements Options.
func (o HeatmapOptions) Validate() error {
	if o.ColorScale == "" {
		return fmt.Errorf("%w: color_scale is required", ErrInvalidOptions)
	}
	return o.CommonOptions.validate()
}

// PieOptions configures pie charts.
type PieOptions struct {
	CommonOptions `yaml:",inline"`
	// Hole is the donut hole fraction, clamped to [0, 0.8].
	Hole float64 `json:"hole,omitempty" yaml:"hole,omitempty"`
	// Pull offsets slices from the centre, by slice position.
	Pull []float64 `json:"pull,omitempty" yaml:"pull,omitempty"`
	// TopN is the number of named slices kept before collapsing the
	// remainder into "Other" (default: 9).
	TopN int `json:"top_n,omitempty" yaml:"top_n,omitempty"`
}

// Validate implements Options.
func (o PieOptions) Validate() error {
	if o.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidOptions, o.TopN)
	}
	return o.CommonOptions.validate()
}

// ClampedHole returns Hole limited to [0, 0.8].
func (o PieOptions) ClampedHole() float64 {
	switch {
	case o.Hole < 0:
		return 0
	case o.Hole > 0.8:
		return 0.8
	default:
		return o.Hole
	}
}

// PairplotOptions configures scatter matrices.
type PairplotOptions struct {
	CommonOptions `yaml:",inline"`
	// Dimensions lists the columns to plot.
	Dimensions []string `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// Validate implements Options.
func (o PairplotOptions) Validate() error {
	return o.CommonOptions.validate()
}

// SlopeOptions configures slope charts.
type SlopeOptions struct {
	CommonOptions `yaml:",inline"`
	// PositiveColor colors increasing lines (default: green).
	PositiveColor string `json:"positive_color,omitempty" yaml:"positive_color,omitempty"`
	// NegativeColor colors decreasing lines (default: red).
	NegativeColor string `json:"negative_color,omitempty" yaml:"negative_color,omitempty"`
}

// Validate implements Options.
func (o SlopeOptions) Validate() error {
	if o.PositiveColor == "" || o.NegativeColor == "" {
		return fmt.Errorf("%w: slope colors are required", ErrInvalidOptions)
	}
	return o.CommonOptions.validate()
}

// RadarOptions configures radar charts.
type RadarOptions struct {
	CommonOptions `yaml:",inline"`
	// TraceName names the polygon of an ungrouped radar (default: Radar).
	TraceName string `json:"trace_name,omitempty" yaml:"trace_name,omitempty"`
	// Range fixes the radial axis range.
	Range *[2]float64 `json:"range,omitempty" yaml:"range,omitempty"`
}

// Validate implements Options.
func (o RadarOptions) Validate() error {
	if o.Range != nil && o.Range[0] >= o.Range[1] {
		return fmt.Errorf("%w: radar range %v is empty", ErrInvalidOptions, *o.Range)
	}
	return o.CommonOptions.validate()
}

// DivergingOptions configures diverging bar charts.
type DivergingOptions struct {
	CommonOptions `yaml:",inline"`
	// ColorScale is the diverging scale name (default: RdBu).
	ColorScale string `json:"color_scale,omitempty" yaml:"color_scale,omitempty"`
	// Midpoint is the value mapped to the scale centre (default: 0).
	Midpoint float64 `json:"midpoint,omitempty" yaml:"midpoint,omitempty"`
}

// Validate implements Options.
func (o DivergingOptions) Validate() error {
	if o.ColorScale == "" {
		return fmt.Errorf("%w: color_scale is required", ErrInvalidOptions)
	}
	return o.CommonOptions.validate()
}

// CombinedOptions configures combined box and violin plots.
type CombinedOptions struct {
	CommonOptions `yaml:",inline"`
	// Points is outliers, all, none or suspected.
	Points string `json:"points,omitempty" yaml:"points,omitempty"`
}

// Validate implements Options.
func (o CombinedOptions) Validate() error {
	if err := oneOf("points", o.Points, "outliers", "all", "none", "suspected"); err != nil {
		return err
	}
	return o.CommonOptions.validate()
}

// DefaultOptions returns the options of t with their documented defaults.
// Unknown types get bare CommonOptions.
func DefaultOptions(t Type) Options {
	c := defaultCommon()
	switch t {
	case TypeBar:
		return BarOptions{CommonOptions: c, Orientation: "v", BarMode: "relative"}
	case TypeDivergingBars:
		return DivergingOptions{CommonOptions: c, ColorScale: "RdBu"}
	case TypeHistogram:
		return HistogramOptions{CommonOptions: c, NBins: 20, HistNorm: "none"}
	case TypeBox, TypeViolin:
		return DistributionOptions{CommonOptions: c, Points: "outliers", ShowOutliers: true}
	case TypeScatter:
		return ScatterOptions{CommonOptions: c}
	case TypeHeatmapCorr, TypeHeatmapCrosstab:
		return HeatmapOptions{CommonOptions: c, Annotate: true, ColorScale: "viridis"}
	case TypePie:
		return PieOptions{CommonOptions: c, TopN: 9}
	case TypePairplot:
		return PairplotOptions{CommonOptions: c}
	case TypeSlope:
		return SlopeOptions{CommonOptions: c, PositiveColor: "green", NegativeColor: "red"}
	case TypeRadar:
		return RadarOptions{CommonOptions: c, TraceName: "Radar"}
	case TypeBoxViolin:
		return CombinedOptions{CommonOptions: c, Points: "outliers"}
	default:
		return c
	}
}

// Accepts reports whether o is the options struct used by t.
func (t Type) Accepts(o Options) bool {
	switch o.(type) {
	case BarOptions:
		return t == TypeBar
	case DivergingOptions:
		return t == TypeDivergingBars
	case HistogramOptions:
		return t == TypeHistogram
	case DistributionOptions:
		return t == TypeBox || t == TypeViolin
	case ScatterOptions:
		return t == TypeScatter
	case HeatmapOptions:
		return t == TypeHeatmapCorr || t == TypeHeatmapCrosstab
	case PieOptions:
		return t == TypePie
	case PairplotOptions:
		return t == TypePairplot
	case SlopeOptions:
		return t == TypeSlope
	case RadarOptions:
		return t == TypeRadar
	case CombinedOptions:
		return t == TypeBoxViolin
	case CommonOptions:
		return !t.Valid()
	default:
		return false
	}
}

// Validate implements Options.
func (c CommonOptions) Validate() error {
	return c.validate()
}

// DecodeOptions builds the options of t from a loosely typed bag, starting
// from the defaults. Unknown keys are ignored; values of the wrong type are
// reported as ErrInvalidOptions.
func DecodeOptions(t Type, raw map[string]any) (Options, error) {
	if len(raw) == 0 {
		return DefaultOptions(t), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return decodeOptionsJSON(t, data)
}

func decodeOptionsJSON(t Type, data []byte) (Options, error) {
	var (
		opts Options
		err  error
	)
	switch o := DefaultOptions(t).(type) {
	case BarOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case DivergingOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case HistogramOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case DistributionOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case ScatterOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case HeatmapOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case PieOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case PairplotOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case SlopeOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case RadarOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case CombinedOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	case CommonOptions:
		err = json.Unmarshal(data, &o)
		opts = o
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidOptions, t, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q not in %v", ErrInvalidOptions, field, value, allowed)
}

func unit(field string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s %v outside [0,1]", ErrInvalidOptions, field, v)
	}
	return nil
}
