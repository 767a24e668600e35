// Package chart provides the domain model for chart requests and the chart
// specifications compiled from them.
package chart

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Type identifies a chart family.
type Type string

// Chart types.
const (
	TypeBar             Type = "bar"
	TypeHistogram       Type = "histogram"
	TypeBox             Type = "box"
	TypeViolin          Type = "violin"
	TypeScatter         Type = "scatter"
	TypeHeatmapCorr     Type = "heatmap_corr"
	TypeHeatmapCrosstab Type = "heatmap_crosstab"
	TypePie             Type = "pie"
	TypePairplot        Type = "pairplot"
	TypeSlope           Type = "slope"
	TypeRadar           Type = "radar"
	TypeDivergingBars   Type = "diverging_bars"
	TypeBoxViolin       Type = "box_violin_combined"
)

var allTypes = []Type{
	TypeBar,
	TypeHistogram,
	TypeBox,
	TypeViolin,
	TypeScatter,
	TypeHeatmapCorr,
	TypeHeatmapCrosstab,
	TypePie,
	TypePairplot,
	TypeSlope,
	TypeRadar,
	TypeDivergingBars,
	TypeBoxViolin,
}

// Types returns every chart type in a stable order.
func Types() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// ParseType converts a string to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Valid reports whether t is a known chart type.
func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the type name.
func (t Type) String() string {
	return string(t)
}

// ManagesOwnLayout reports whether the type sets its own layout instead of
// receiving the shared layout defaults.
func (t Type) ManagesOwnLayout() bool {
	switch t {
	case TypeSlope, TypeRadar, TypeBoxViolin:
		return true
	default:
		return false
	}
}

// Caption returns the type name with its first letter upper-cased and the
// rest lower-cased, as used in subplot titles.
func (t Type) Caption() string {
	s := string(t)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
