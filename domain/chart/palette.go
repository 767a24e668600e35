package chart

// Qualitative is the default discrete color sequence.
var Qualitative = []string{
	"#636EFA",
	"#EF553B",
	"#00CC96",
	"#AB63FA",
	"#FFA15A",
	"#19D3F3",
	"#FF6692",
	"#B6E880",
	"#FF97FF",
	"#FECB52",
}

// PaletteColor returns the i-th qualitative color, cycling.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return Qualitative[i%len(Qualitative)]
}

// NamedColors maps the CSS color names used by chart options to hex.
var NamedColors = map[string]string{
	"green":  "#008000",
	"red":    "#FF0000",
	"grey":   "#808080",
	"gray":   "#808080",
	"blue":   "#0000FF",
	"orange": "#FFA500",
	"black":  "#000000",
	"purple": "#800080",
}
