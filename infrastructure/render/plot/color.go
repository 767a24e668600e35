package plot

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"

	"github.com/felixgeelhaar/chartforge/domain/chart"
)

// viridisStops are the anchor colors of the viridis scale.
var viridisStops = []color.RGBA{
	{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	{R: 0x3b, G: 0x52, B: 0x8b, A: 0xff},
	{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
	{R: 0x5e, G: 0xc9, B: 0x62, A: 0xff},
	{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// scaleSize is the number of colors sampled from a continuous scale.
const scaleSize = 64

// parseColor reads a #rgb/#rrggbb color or one of chart.NamedColors.
func parseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if hex, ok := chart.NamedColors[s]; ok {
		s = strings.ToLower(hex)
	}
	if !strings.HasPrefix(s, "#") {
		return nil, fmt.Errorf("unknown color %q", s)
	}
	s = s[1:]
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// traceColor returns the trace color, or the i-th palette color when the
// trace has none or it does not parse.
func traceColor(s string, i int) color.Color {
	if s != "" {
		if c, err := parseColor(s); err == nil {
			return c
		}
	}
	c, _ := parseColor(chart.PaletteColor(i))
	return c
}

// withOpacity applies an opacity in (0,1]. Zero keeps the color opaque.
func withOpacity(c color.Color, opacity float64) color.Color {
	if opacity <= 0 || opacity >= 1 {
		return c
	}
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(math.Round(opacity * 255))}
}

// continuous is a sampled color scale.
type continuous []color.Color

// Colors implements palette.Palette.
func (c continuous) Colors() []color.Color {
	return c
}

// at maps v in [lo, hi] to a color of the scale.
func (c continuous) at(v, lo, hi float64) color.Color {
	if math.IsNaN(v) || hi <= lo {
		return c[len(c)/2]
	}
	t := (v - lo) / (hi - lo)
	i := int(math.Round(t * float64(len(c)-1)))
	return c[max(0, min(len(c)-1, i))]
}

// colorScale resolves a continuous scale by name. Unknown names fall back
// to viridis.
func colorScale(name string) continuous {
	switch strings.ToLower(name) {
	case "rdbu":
		if p, err := brewer.GetPalette(brewer.TypeDiverging, "RdBu", 11); err == nil {
			return interpolate(p)
		}
	case "reds", "blues", "greens", "greys", "purples", "oranges":
		name := strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
		if p, err := brewer.GetPalette(brewer.TypeSequential, name, 9); err == nil {
			return interpolate(p)
		}
	}
	stops := make([]color.Color, len(viridisStops))
	for i, s := range viridisStops {
		stops[i] = s
	}
	return interpolate(continuous(stops))
}

// interpolate samples scaleSize colors linearly between the palette's
// colors.
func interpolate(p palette.Palette) continuous {
	stops := p.Colors()
	out := make(continuous, scaleSize)
	for i := range out {
		t := float64(i) / float64(scaleSize-1) * float64(len(stops)-1)
		lo := int(math.Floor(t))
		hi := min(lo+1, len(stops)-1)
		out[i] = mix(stops[lo], stops[hi], t-float64(lo))
	}
	return out
}

func mix(a, b color.Color, t float64) color.Color {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	lerp := func(x, y uint32) uint8 {
		return uint8(math.Round((float64(x)*(1-t) + float64(y)*t) / 257))
	}
	return color.RGBA{R: lerp(ar, br), G: lerp(ag, bg), B: lerp(ab, bb), A: 0xff}
}
