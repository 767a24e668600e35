package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/domain/export"
	"github.com/felixgeelhaar/chartforge/infrastructure/observability"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/memory"
	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _ chart.Spec, req export.Request) ([]byte, error) {
	return []byte("rendered-" + req.Format.String()), nil
}

const barChart = `{"name": "revenue", "chart": {"type": "bar", "roles": {"x": "region", "y": "revenue"}}}`

func newTestServer(t *testing.T, opts ...api.Option) *httptest.Server {
	t.Helper()

	ds := dataset.MustNew(
		dataset.Strings("region", "North", "South", "North", "East"),
		dataset.Numbers("revenue", 10, 20, 30, 40),
	)
	provider, err := observability.New(observability.WithMetrics())
	if err != nil {
		t.Fatalf("observability.New() error = %v", err)
	}
	base := []api.Option{
		api.WithDataset("sales", ds),
		api.WithRenderer(stubRenderer{}),
		api.WithObservability(provider),
	}
	svc, err := api.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}

	srv := httptest.NewServer(New(svc, Config{MaxBodyBytes: 4096, Version: "test"}).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close(context.Background())
	})
	return srv
}

func do(t *testing.T, method, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/healthz", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	health := decode[HealthStatus](t, resp)
	if health.Status != "healthy" || health.Version != "test" {
		t.Errorf("health = %+v, want healthy test", health)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestDatasets(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/v1/datasets", "", "")
	infos := decode[[]api.DatasetInfo](t, resp)
	if len(infos) != 1 || infos[0].Name != "sales" {
		t.Errorf("datasets = %+v, want sales", infos)
	}

	resp = do(t, http.MethodGet, srv.URL+"/v1/datasets/sales/summary", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d, want 200", resp.StatusCode)
	}
	summary := decode[dataset.Summary](t, resp)
	if summary.Rows != 4 || summary.Columns != 2 {
		t.Errorf("summary = %d rows %d columns, want 4 and 2", summary.Rows, summary.Columns)
	}

	resp = do(t, http.MethodGet, srv.URL+"/v1/datasets/nope/summary", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown summary status = %d, want 404", resp.StatusCode)
	}
}

func TestCompile(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		wantStatus  int
		wantTraces  int
	}{
		{name: "json", path: "sales", body: barChart, wantStatus: http.StatusOK, wantTraces: 1},
		{
			name:        "yaml",
			path:        "sales",
			contentType: "application/yaml",
			body:        "chart:\n  type: bar\n  roles:\n    x: region\n",
			wantStatus:  http.StatusOK,
			wantTraces:  1,
		},
		{
			name:       "missing column",
			path:       "sales",
			body:       `{"chart": {"type": "bar", "roles": {"x": "country"}}}`,
			wantStatus: http.StatusOK,
		},
		{name: "unknown dataset", path: "nope", body: barChart, wantStatus: http.StatusNotFound},
		{name: "malformed", path: "sales", body: "{", wantStatus: http.StatusBadRequest},
		{name: "unknown type", path: "sales", body: `{"chart": {"type": "sunburst"}}`, wantStatus: http.StatusBadRequest},
		{
			name:       "options mismatch",
			path:       "sales",
			body:       `{"chart": {"type": "pie", "roles": {"names": "region"}, "options": {"bins": 4}}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "composition",
			path:       "sales",
			body:       `{"compose": {"charts": [{"type": "bar", "roles": {"x": "region"}}]}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing filter column",
			path:       "sales",
			body:       `{"filters": {"numeric": [{"column": "cost", "max": 1}]}, "chart": {"type": "bar", "roles": {"x": "region"}}}`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/v1/datasets/"+tt.path+"/compile", tt.contentType, tt.body)
			if resp.StatusCode != tt.wantStatus {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantStatus != http.StatusOK {
				if e := decode[ErrorResponse](t, resp); e.Error == "" {
					t.Error("error response without message")
				}
				return
			}
			var spec struct {
				Data []json.RawMessage `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
				t.Fatal(err)
			}
			if len(spec.Data) != tt.wantTraces {
				t.Errorf("traces = %d, want %d", len(spec.Data), tt.wantTraces)
			}
		})
	}
}

func TestCompose(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	body := `{"compose": {"charts": [
		{"type": "bar", "roles": {"x": "region", "y": "revenue"}},
		{"type": "histogram", "roles": {"x": "revenue"}}
	]}}`
	resp := do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/compose", "", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	type composite struct {
		Cells []json.RawMessage `json:"cells"`
	}
	comp := decode[composite](t, resp)
	if len(comp.Cells) != 2 {
		t.Errorf("cells = %d, want 2", len(comp.Cells))
	}

	var five []string
	for range 5 {
		five = append(five, `{"type": "bar", "roles": {"x": "region"}}`)
	}
	resp = do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/compose", "", `{"compose": {"charts": [`+strings.Join(five, ",")+`]}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("five charts status = %d, want 200", resp.StatusCode)
	}
	if comp := decode[composite](t, resp); len(comp.Cells) != 0 {
		t.Errorf("five charts = %d cells, want error composite", len(comp.Cells))
	}
}

func TestExport(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantType    string
		wantBody    string
		disposition string
	}{
		{
			name:        "default png",
			body:        barChart,
			wantStatus:  http.StatusOK,
			wantType:    "image/png",
			wantBody:    "rendered-png",
			disposition: `attachment; filename=revenue.png`,
		},
		{
			name:        "svg override",
			body:        `{"chart": {"type": "bar", "roles": {"x": "region"}}, "export": {"format": "svg"}}`,
			wantStatus:  http.StatusOK,
			wantType:    "image/svg+xml",
			wantBody:    "rendered-svg",
			disposition: `attachment; filename=chart.svg`,
		},
		{
			name:       "empty chart",
			body:       `{"chart": {"type": "bar", "roles": {"x": "country"}}}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "unsupported format",
			body:       `{"chart": {"type": "bar", "roles": {"x": "region"}}, "export": {"format": "bmp"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative size",
			body:       `{"chart": {"type": "bar", "roles": {"x": "region"}}, "export": {"width": -5}}`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/export", "application/json", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got := resp.Header.Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if got := resp.Header.Get("Content-Disposition"); got != tt.disposition {
				t.Errorf("Content-Disposition = %q, want %q", got, tt.disposition)
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/preview", "", barChart)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<html") {
		t.Error("preview is not an HTML page")
	}
}

func TestPublishAndDownload(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, api.WithArtifactStore(memory.NewArtifactStore()))

	resp := do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/publish", "", barChart)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	ref := decode[artifact.Ref](t, resp)
	location := resp.Header.Get("Location")
	if want := fmt.Sprintf("/v1/artifacts/%s/png", ref.ID); location != want {
		t.Errorf("Location = %q, want %q", location, want)
	}

	resp = do(t, http.MethodGet, srv.URL+location, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); got != "attachment; filename=revenue.png" {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := resp.Header.Get("ETag"); got != `"`+ref.Checksum+`"` {
		t.Errorf("ETag = %q, want checksum", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "rendered-png" {
		t.Errorf("body = %q, want rendered-png", body)
	}

	for path, want := range map[string]int{
		"/v1/artifacts/" + ref.ID + "/svg": http.StatusNotFound,
		"/v1/artifacts/missing/png":        http.StatusNotFound,
		"/v1/artifacts/" + ref.ID + "/gif": http.StatusBadRequest,
	} {
		if resp := do(t, http.MethodGet, srv.URL+path, "", ""); resp.StatusCode != want {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, want)
		}
	}

	resp = do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/publish", "", `{"chart": {"type": "bar", "roles": {"x": "country"}}}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("empty publish status = %d, want 422", resp.StatusCode)
	}
}

func TestPublishingDisabled(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	if resp := do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/publish", "", barChart); resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("publish status = %d, want 501", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/v1/artifacts/abc/png", "", ""); resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("download status = %d, want 501", resp.StatusCode)
	}
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	body := `{"name": "` + strings.Repeat("x", 5000) + `", "chart": {"type": "bar"}}`
	if resp := do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/compile", "", body); resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	do(t, http.MethodPost, srv.URL+"/v1/datasets/sales/compile", "", barChart)
	resp := do(t, http.MethodGet, srv.URL+"/v1/metrics", "", "")
	metrics := decode[map[string]float64](t, resp)

	if got := metrics["chartforge.compile.total"]; got != 1 {
		t.Errorf("chartforge.compile.total = %v, want 1", got)
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", api.ErrUnknownDataset), http.StatusNotFound},
		{artifact.ErrArtifactNotFound, http.StatusNotFound},
		{api.ErrPublishingDisabled, http.StatusNotImplemented},
		{api.ErrNothingToExport, http.StatusUnprocessableEntity},
		{api.ErrInvalidDocument, http.StatusBadRequest},
		{chart.ErrOptionsMismatch, http.StatusBadRequest},
		{export.ErrUnsupportedFormat, http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("%w: boom", export.ErrRenderFailed), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	svc, err := api.New()
	if err != nil {
		t.Fatal(err)
	}
	s := New(svc, Config{})
	if s.config.Addr != ":8080" || s.config.MaxBodyBytes != 1<<20 {
		t.Errorf("config = %+v, want defaults", s.config)
	}
}
