package export

import "fmt"

// Default export settings.
const (
	DefaultWidth  = 1000
	DefaultHeight = 600
	DefaultDPI    = 300

	// BaseDPI is the dpi at which one figure pixel is one raster pixel.
	BaseDPI = 100
)

// Request describes one export.
type Request struct {
	Format Format `json:"format" yaml:"format"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
	DPI    int    `json:"dpi,omitempty" yaml:"dpi,omitempty"`
}

// NewRequest returns a request for f with the default size and dpi.
func NewRequest(f Format) Request {
	return Request{Format: f, Width: DefaultWidth, Height: DefaultHeight, DPI: DefaultDPI}
}

// WithDefaults fills zero size fields with the defaults.
func (r Request) WithDefaults() Request {
	if r.Width == 0 {
		r.Width = DefaultWidth
	}
	if r.Height == 0 {
		r.Height = DefaultHeight
	}
	if r.DPI == 0 {
		r.DPI = DefaultDPI
	}
	return r
}

// Validate checks the format and size.
func (r Request) Validate() error {
	if !r.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, r.Format)
	}
	if r.Width <= 0 || r.Height <= 0 || r.DPI <= 0 {
		return fmt.Errorf("%w: %dx%d at %d dpi", ErrInvalidSize, r.Width, r.Height, r.DPI)
	}
	return nil
}

// Scale returns the rasteriser scale factor: dpi/100 for raster formats,
// 1 for vector formats.
func (r Request) Scale() float64 {
	if !r.Format.IsRaster() {
		return 1
	}
	return float64(r.DPI) / BaseDPI
}
