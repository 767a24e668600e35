// Package plot renders chart specifications to static images with
// gonum/plot.
package plot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"gonum.org/v1/plot/vg/draw"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/export"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
)

// Renderer draws specs with gonum/plot and encodes them in any export
// format. It is safe for concurrent use.
type Renderer struct{}

// New creates a renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render draws spec at the request's size and returns the encoded bytes.
func (r *Renderer) Render(ctx context.Context, spec chart.Spec, req export.Request) (out []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// gonum/plot panics on some degenerate inputs.
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("draw %s: %v", req.Format, p)
		}
	}()

	start := time.Now()
	c, err := newCanvas(req)
	if err != nil {
		return nil, err
	}
	if err := drawFigure(draw.New(c), spec); err != nil {
		return nil, fmt.Errorf("draw %s: %w", req.Format, err)
	}
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.Format, err)
	}

	logging.Debug().
		Add(logging.Format(req.Format)).
		Add(logging.Traces(len(spec.Traces))).
		Add(logging.Bytes(buf.Len())).
		Add(logging.Duration(time.Since(start))).
		Msg("Rendered figure")
	return buf.Bytes(), nil
}
