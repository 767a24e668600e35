// Package export provides the domain model for static chart export.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for export operations.
var (
	// ErrUnsupportedFormat indicates an export format outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrInvalidSize indicates a non-positive width, height or dpi.
	ErrInvalidSize = errors.New("invalid export size")

	// ErrRenderFailed indicates the rendering backend failed.
	ErrRenderFailed = errors.New("render failed")
)

// Format is a binary export encoding.
type Format string

// Export formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWEBP Format = "webp"
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
	FormatEPS  Format = "eps"
)

var mimeTypes = map[Format]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatWEBP: "image/webp",
	FormatSVG:  "image/svg+xml",
	FormatPDF:  "application/pdf",
	FormatEPS:  "application/postscript",
}

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatPNG, FormatJPEG, FormatWEBP, FormatSVG, FormatPDF, FormatEPS}
}

// ParseFormat converts a string to a Format. "jpg" is accepted for jpeg.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "jpg" {
		f = FormatJPEG
	}
	if _, ok := mimeTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// Valid reports whether f is supported.
func (f Format) Valid() bool {
	_, ok := mimeTypes[f]
	return ok
}

// IsRaster reports whether f is a pixel format affected by dpi.
func (f Format) IsRaster() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatWEBP:
		return true
	default:
		return false
	}
}

// MIMEType returns the media type served for f.
func (f Format) MIMEType() string {
	return mimeTypes[f]
}

// Extension returns the file extension for f, with the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}
