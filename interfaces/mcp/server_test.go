package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/domain/export"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/memory"
	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _ chart.Spec, req export.Request) ([]byte, error) {
	return []byte("rendered-" + req.Format.String()), nil
}

func newTestServer(t *testing.T, opts ...api.Option) *Server {
	t.Helper()

	ds := dataset.MustNew(
		dataset.Strings("region", "North", "South", "North"),
		dataset.Numbers("revenue", 10, 20, 30),
	)
	svc, err := api.New(append([]api.Option{api.WithDataset("sales", ds), api.WithRenderer(stubRenderer{})}, opts...)...)
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}
	return New(svc, Config{Version: "test"})
}

const barDoc = `{"dataset": "sales", "name": "revenue", "chart": {"type": "bar", "roles": {"x": "region", "y": "revenue"}}}`

func TestNew_Tools(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	if srv.MCP() == nil {
		t.Fatal("MCP() returned nil")
	}

	got := strings.Join(srv.Tools(), ",")
	want := "compile_chart,compose_charts,describe_dataset,export_chart,list_datasets"
	if got != want {
		t.Errorf("Tools() = %s, want %s", got, want)
	}

	withStore := newTestServer(t, api.WithArtifactStore(memory.NewArtifactStore()))
	if n := len(withStore.Tools()); n != 6 {
		t.Errorf("len(Tools()) with store = %d, want 6", n)
	}
}

func TestServer_Call(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		tool    string
		input   string
		want    string
		wantErr error
	}{
		{name: "datasets", tool: ToolListDatasets, input: `{}`, want: `"name":"sales"`},
		{name: "describe", tool: ToolDescribeDataset, input: `{"dataset": "sales"}`, want: `"rows":3`},
		{name: "describe unknown", tool: ToolDescribeDataset, input: `{"dataset": "orders"}`, wantErr: api.ErrUnknownDataset},
		{name: "describe malformed", tool: ToolDescribeDataset, input: `[`, wantErr: api.ErrInvalidDocument},
		{name: "compile", tool: ToolCompileChart, input: barDoc, want: `"type":"bar"`},
		{name: "compile invalid", tool: ToolCompileChart, input: `{"dataset": "sales"}`, wantErr: api.ErrInvalidDocument},
		{
			name:  "compose",
			tool:  ToolComposeCharts,
			input: `{"dataset": "sales", "compose": {"charts": [{"type": "bar", "roles": {"x": "region"}}, {"type": "pie", "roles": {"names": "region"}}]}}`,
			want:  `"cols":2`,
		},
		{name: "unknown tool", tool: "delete_everything", input: `{}`, wantErr: ErrUnknownTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := srv.Call(ctx, tt.tool, json.RawMessage(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Call(%s) error = %v, want %v", tt.tool, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Call(%s) error = %v", tt.tool, err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Call(%s) = %s, want it to contain %s", tt.tool, got, tt.want)
			}
		})
	}
}

func TestServer_ExportChart(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()

	doc := `{"dataset": "sales", "name": "revenue", "chart": {"type": "bar", "roles": {"x": "region"}}, "export": {"format": "svg"}}`
	out, err := srv.Call(ctx, ToolExportChart, json.RawMessage(doc))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	var res ExportResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if res.FileName != "revenue.svg" || res.ContentType != "image/svg+xml" {
		t.Errorf("result = %+v, want revenue.svg as image/svg+xml", res)
	}
	if string(res.Data) != "rendered-svg" || res.Bytes != len("rendered-svg") {
		t.Errorf("Data = %q (%d bytes), want rendered-svg", res.Data, res.Bytes)
	}

	empty := `{"dataset": "sales", "chart": {"type": "bar", "roles": {"x": "country"}}}`
	out, err = srv.Call(ctx, ToolExportChart, json.RawMessage(empty))
	if err != nil {
		t.Fatalf("Call(empty) error = %v", err)
	}
	res = ExportResult{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if res.Bytes != 0 || len(res.Data) != 0 {
		t.Errorf("empty export = %+v, want no data", res)
	}
}

func TestServer_PublishChart(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, api.WithArtifactStore(memory.NewArtifactStore()))
	out, err := srv.Call(context.Background(), ToolPublishChart, json.RawMessage(barDoc))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	var ref artifact.Ref
	if err := json.Unmarshal([]byte(out), &ref); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if ref.ID == "" || ref.Format != export.FormatPNG || ref.Name != "revenue" {
		t.Errorf("ref = %+v, want a png named revenue", ref)
	}
}
