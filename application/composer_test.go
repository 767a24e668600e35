package application

import (
	"context"
	"math"
	"testing"

	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/telemetry"
)

func TestGridShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		n, rows, cols      int
		wantRows, wantCols int
	}{
		{"defaults", 3, 0, 0, 1, 3},
		{"fits", 4, 2, 2, 2, 2},
		{"cols recomputed", 3, 2, 1, 2, 2},
		{"one row too narrow", 4, 1, 1, 1, 4},
		{"rows only", 4, 4, 0, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rows, cols := GridShape(tt.n, tt.rows, tt.cols)
			if rows != tt.wantRows || cols != tt.wantCols {
				t.Errorf("GridShape(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.n, tt.rows, tt.cols, rows, cols, tt.wantRows, tt.wantCols)
			}
			if rows*cols < tt.n {
				t.Errorf("grid %dx%d cannot hold %d cells", rows, cols, tt.n)
			}
		})
	}
}

func TestSubplotTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		req  chart.Request
		want string
	}{
		{chart.Request{Type: chart.TypeBar, Roles: chart.Roles{X: chart.Column("region"), Y: chart.Column("revenue")}}, "Bar de region vs revenue"},
		{chart.Request{Type: chart.TypeHistogram, Roles: chart.Roles{X: chart.Column("units")}}, "Histogram de units"},
		{chart.Request{Type: chart.TypeRadar, Roles: chart.Roles{Y: chart.ColumnList("a", "b")}}, "Radar vs a, b"},
		{chart.Request{Type: chart.TypeHeatmapCorr}, "Heatmap_corr"},
	}
	for _, tt := range tests {
		if got := SubplotTitle(tt.req); got != tt.want {
			t.Errorf("SubplotTitle(%s) = %q, want %q", tt.req.Type, got, tt.want)
		}
	}
}

func TestCompose_RejectsRequestCount(t *testing.T) {
	t.Parallel()

	bar := chart.NewRequest(chart.TypeBar, chart.Roles{X: chart.Column("region")}, nil)
	tests := []struct {
		name string
		reqs []chart.Request
	}{
		{"none", nil},
		{"five", []chart.Request{bar, bar, bar, bar, bar}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			meter := newCountingMeter()
			composer := NewComposer(NewCompiler(CompilerConfig{Meter: meter}), ComposeOptions{})
			comp, err := composer.Compose(context.Background(), salesData(), tt.reqs, 0, 0)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if !comp.IsError() || comp.Layout.Title != InvalidCompositeTitle {
				t.Errorf("Compose() = %+v, want error composite", comp)
			}
			if got := meter.get(telemetry.MetricCompileTotal); got != 0 {
				t.Errorf("compiled %d charts, want 0", got)
			}
		})
	}
}

func TestCompose_Grid(t *testing.T) {
	t.Parallel()

	reqs := []chart.Request{
		chart.NewRequest(chart.TypeBar, chart.Roles{X: chart.Column("region"), Y: chart.Column("revenue")}, nil),
		chart.NewRequest(chart.TypeHistogram, chart.Roles{X: chart.Column("units")}, nil),
		chart.NewRequest(chart.TypeScatter, chart.Roles{X: chart.Column("units"), Y: chart.Column("revenue")}, nil),
	}
	composer := NewComposer(NewCompiler(CompilerConfig{}), ComposeOptions{})
	comp, err := composer.Compose(context.Background(), salesData(), reqs, 2, 1)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if comp.Rows != 2 || comp.Cols != 2 {
		t.Errorf("grid = %dx%d, want 2x2", comp.Rows, comp.Cols)
	}
	want := []chart.Cell{{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 1}}
	for i, cs := range comp.Cells {
		if cs.Cell != want[i] {
			t.Errorf("cell %d = %+v, want %+v", i, cs.Cell, want[i])
		}
		if cs.NoData {
			t.Errorf("cell %d unexpectedly empty", i)
		}
	}
	if comp.Layout.Title != "Gráficos Acoplados" || comp.Layout.Height != 700 {
		t.Errorf("Layout = %+v", comp.Layout)
	}
	if len(comp.Annotations) != 0 {
		t.Errorf("Annotations = %+v, want none", comp.Annotations)
	}
}

func TestCompose_NoDataAnnotation(t *testing.T) {
	t.Parallel()

	reqs := []chart.Request{
		chart.NewRequest(chart.TypeBar, chart.Roles{X: chart.Column("region")}, nil),
		chart.NewRequest(chart.TypePie, chart.Roles{Names: chart.Column("region")}, nil),
	}
	opts := ComposeOptions{Height: 500, Title: "Dashboard"}
	comp, err := NewComposer(NewCompiler(CompilerConfig{}), opts).Compose(context.Background(), salesData(), reqs, 1, 2)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !comp.Cells[1].NoData || comp.Cells[0].NoData {
		t.Errorf("NoData = %v, %v", comp.Cells[0].NoData, comp.Cells[1].NoData)
	}
	if len(comp.Annotations) != 1 {
		t.Fatalf("Annotations = %d, want 1", len(comp.Annotations))
	}
	a := comp.Annotations[0]
	if a.Text != "No data for pie" || a.XRef != "paper" || a.YRef != "paper" {
		t.Errorf("annotation = %+v", a)
	}
	if math.Abs(a.X-0.75) > 1e-9 || math.Abs(a.Y-0.5) > 1e-9 {
		t.Errorf("annotation at (%v, %v), want (0.75, 0.5)", a.X, a.Y)
	}
	if comp.Layout.Title != "Dashboard" || comp.Layout.Height != 500 {
		t.Errorf("Layout = %+v", comp.Layout)
	}
}

func TestCompose_OptionsMismatch(t *testing.T) {
	t.Parallel()

	reqs := []chart.Request{{Type: chart.TypeBar, Options: chart.DefaultOptions(chart.TypePie)}}
	_, err := NewComposer(NewCompiler(CompilerConfig{}), ComposeOptions{}).Compose(context.Background(), salesData(), reqs, 1, 1)
	if err == nil {
		t.Error("Compose() error = nil, want options mismatch")
	}
}
