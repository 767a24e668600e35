package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/HugoSmits86/nativewebp"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgeps"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/felixgeelhaar/chartforge/domain/export"
)

// pixels converts a figure size in pixels to a vg length at export.BaseDPI.
func pixels(px int) vg.Length {
	return vg.Length(px) * vg.Inch / export.BaseDPI
}

// rasterSize is the pixel size of a raster export: the figure size times
// req.Scale().
func rasterSize(req export.Request) image.Rectangle {
	s := req.Scale()
	return image.Rect(0, 0, int(math.Round(float64(req.Width)*s)), int(math.Round(float64(req.Height)*s)))
}

// newCanvas returns a canvas that encodes to req.Format. A raster canvas
// keeps the logical size of the vector ones; only its pixel density grows.
func newCanvas(req export.Request) (vg.CanvasWriterTo, error) {
	w, h := pixels(req.Width), pixels(req.Height)
	raster := func() *vgimg.Canvas {
		return vgimg.NewWith(
			vgimg.UseImage(image.NewRGBA(rasterSize(req))),
			vgimg.UseDPI(req.DPI),
			vgimg.UseBackgroundColor(color.White),
		)
	}
	switch req.Format {
	case export.FormatPNG:
		return vgimg.PngCanvas{Canvas: raster()}, nil
	case export.FormatJPEG:
		return vgimg.JpegCanvas{Canvas: raster()}, nil
	case export.FormatWEBP:
		return webpCanvas{Canvas: raster()}, nil
	case export.FormatSVG:
		return vgsvg.New(w, h), nil
	case export.FormatPDF:
		return vgpdf.New(w, h), nil
	case export.FormatEPS:
		return vgeps.New(w, h), nil
	default:
		return nil, fmt.Errorf("%w: %q", export.ErrUnsupportedFormat, req.Format)
	}
}

// webpCanvas encodes a raster canvas as lossless WebP.
type webpCanvas struct {
	*vgimg.Canvas
}

// WriteTo implements io.WriterTo.
func (c webpCanvas) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, c.Image(), nil); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}
