package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/export"
)

// recordingRenderer returns a fixed payload and remembers its requests.
type recordingRenderer struct {
	mu    sync.Mutex
	reqs  []export.Request
	data  []byte
	err   error
	calls int
}

func (r *recordingRenderer) Render(_ context.Context, _ chart.Spec, req export.Request) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return nil, r.err
	}
	return r.data, nil
}

// mapCache is an in-memory ExportCache.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func barSpec() chart.Spec {
	return chart.Spec{Traces: []chart.Trace{{Kind: chart.GeomBar, Name: "a"}}, Layout: chart.Layout{Title: "t"}}
}

func newTestExporter(t *testing.T, r Renderer, cache ExportCache) *Exporter {
	t.Helper()
	e, err := NewExporter(ExporterConfig{Renderer: r, Cache: cache})
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	return e
}

func TestNewExporter_RequiresRenderer(t *testing.T) {
	t.Parallel()

	if _, err := NewExporter(ExporterConfig{}); err == nil {
		t.Error("NewExporter() error = nil, want error")
	}
}

func TestExport_EmptySpec(t *testing.T) {
	t.Parallel()

	r := &recordingRenderer{data: []byte("img")}
	e := newTestExporter(t, r, nil)
	for _, f := range export.Formats() {
		data, err := e.Export(context.Background(), chart.Empty("nothing"), export.NewRequest(f))
		if err != nil {
			t.Errorf("Export(%s) error = %v", f, err)
		}
		if data == nil || len(data) != 0 {
			t.Errorf("Export(%s) = %v, want zero bytes", f, data)
		}
	}
	if r.calls != 0 {
		t.Errorf("renderer called %d times, want 0", r.calls)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t, &recordingRenderer{}, nil)
	for _, spec := range []chart.Spec{barSpec(), chart.Empty("")} {
		_, err := e.Export(context.Background(), spec, export.Request{Format: "gif"})
		if !errors.Is(err, export.ErrUnsupportedFormat) {
			t.Errorf("Export(gif) error = %v, want ErrUnsupportedFormat", err)
		}
	}
}

func TestExport_Scale(t *testing.T) {
	t.Parallel()

	r := &recordingRenderer{data: []byte("png")}
	e := newTestExporter(t, r, nil)
	data, err := e.Export(context.Background(), barSpec(), export.Request{Format: export.FormatPNG, DPI: 200})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if string(data) != "png" {
		t.Errorf("Export() = %q", data)
	}
	got := r.reqs[0]
	if got.Scale() != 2.0 {
		t.Errorf("Scale() = %v, want 2", got.Scale())
	}
	if got.Width != export.DefaultWidth || got.Height != export.DefaultHeight {
		t.Errorf("size = %dx%d, want defaults", got.Width, got.Height)
	}
}

func TestExport_RenderFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("no fonts")
	e := newTestExporter(t, &recordingRenderer{err: cause}, nil)
	_, err := e.Export(context.Background(), barSpec(), export.NewRequest(export.FormatSVG))
	if !errors.Is(err, export.ErrRenderFailed) || !errors.Is(err, cause) {
		t.Errorf("Export() error = %v, want ErrRenderFailed wrapping cause", err)
	}
	if !strings.Contains(err.Error(), "svg") {
		t.Errorf("error %q does not name the format", err)
	}
}

func TestExport_Cache(t *testing.T) {
	t.Parallel()

	r := &recordingRenderer{data: []byte("pdf")}
	cache := &mapCache{data: make(map[string][]byte)}
	e := newTestExporter(t, r, cache)
	req := export.NewRequest(export.FormatPDF)

	for i := 0; i < 3; i++ {
		data, err := e.Export(context.Background(), barSpec(), req)
		if err != nil || string(data) != "pdf" {
			t.Fatalf("Export() = %q, %v", data, err)
		}
	}
	if r.calls != 1 {
		t.Errorf("renderer called %d times, want 1", r.calls)
	}
	if len(cache.data) != 1 {
		t.Errorf("cache entries = %d, want 1", len(cache.data))
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	a, err := CacheKey(barSpec(), export.NewRequest(export.FormatPNG))
	if err != nil {
		t.Fatalf("CacheKey() error = %v", err)
	}
	b, _ := CacheKey(barSpec(), export.NewRequest(export.FormatPNG))
	c, _ := CacheKey(barSpec(), export.NewRequest(export.FormatJPEG))
	if a != b {
		t.Errorf("CacheKey() not stable: %s != %s", a, b)
	}
	if a == c {
		t.Error("CacheKey() ignores the format")
	}
	if !strings.HasSuffix(a, ".png") || !strings.HasSuffix(c, ".jpeg") {
		t.Errorf("keys %s, %s lack the format extension", a, c)
	}
}
