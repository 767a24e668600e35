// Package api provides the public API of chartforge.
//
// chartforge compiles chart requests against tabular datasets into
// renderable chart specifications, composes up to four charts on one grid
// and exports them as png, jpeg, webp, svg, pdf or eps.
//
// # Quick Start
//
//	ds := dataset.MustNew(
//	    dataset.Strings("region", "North", "South"),
//	    dataset.Numbers("revenue", 120, 95),
//	)
//	svc, _ := api.New(api.WithDataset("sales", ds))
//
//	req := api.NewChartRequest(api.TypeBar, api.Roles{
//	    X: api.Column("region"),
//	    Y: api.Column("revenue"),
//	}, nil)
//	out, _ := svc.Export(ctx, api.Document{
//	    Dataset: "sales",
//	    Chart:   &req,
//	    Export:  &api.ExportRequest{Format: api.FormatSVG},
//	})
//
// # Documents
//
// A Document names a dataset, optional filters and sampling, and either one
// chart or a composition. Documents are read from YAML or JSON request
// files by the CLI and from request bodies by the HTTP server.
//
// # Configuration
//
// NewFromConfig assembles a service from a configuration file: dataset
// sources, the artifact store used by Publish, the export cache, logging,
// telemetry and resilience settings.
package api

import (
	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/export"
)

// Re-export chart types.
type (
	// ChartType identifies a chart family.
	ChartType = chart.Type
	// ChartRequest asks for one chart.
	ChartRequest = chart.Request
	// Roles binds dataset columns to chart roles.
	Roles = chart.Roles
	// Binding is the column binding of one role.
	Binding = chart.Binding
	// Spec is a compiled chart.
	Spec = chart.Spec
	// Composite is a compiled grid of charts.
	Composite = chart.Composite

	// ExportRequest describes one export.
	ExportRequest = export.Request
	// Format is an export encoding.
	Format = export.Format

	// ArtifactRef references a published export.
	ArtifactRef = artifact.Ref
)

// Chart types.
const (
	TypeBar             = chart.TypeBar
	TypeHistogram       = chart.TypeHistogram
	TypeBox             = chart.TypeBox
	TypeViolin          = chart.TypeViolin
	TypeScatter         = chart.TypeScatter
	TypeHeatmapCorr     = chart.TypeHeatmapCorr
	TypeHeatmapCrosstab = chart.TypeHeatmapCrosstab
	TypePie             = chart.TypePie
	TypePairplot        = chart.TypePairplot
	TypeSlope           = chart.TypeSlope
	TypeRadar           = chart.TypeRadar
	TypeDivergingBars   = chart.TypeDivergingBars
	TypeBoxViolin       = chart.TypeBoxViolin
)

// Export formats.
const (
	FormatPNG  = export.FormatPNG
	FormatJPEG = export.FormatJPEG
	FormatWEBP = export.FormatWEBP
	FormatSVG  = export.FormatSVG
	FormatPDF  = export.FormatPDF
	FormatEPS  = export.FormatEPS
)

// NewChartRequest builds a chart request. Nil options mean the type's
// defaults.
func NewChartRequest(t ChartType, roles Roles, opts chart.Options) ChartRequest {
	return chart.NewRequest(t, roles, opts)
}

// Column binds a role to one column.
func Column(name string) Binding {
	return chart.Column(name)
}

// Columns binds a role to an ordered list of columns.
func Columns(names ...string) Binding {
	return chart.ColumnList(names...)
}
