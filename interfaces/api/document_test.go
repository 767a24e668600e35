package api

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/chartforge/application"
	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/export"
)

const yamlDocument = `
dataset: sales
name: revenue-by-region
filters:
  numeric:
    - column: revenue
      min: 10
      max: 50
  categorical:
    - column: region
      values: [North, South]
sampling:
  method: random
  n: 3
chart:
  type: bar
  roles:
    x: region
    y: revenue
export:
  format: svg
  width: 640
`

const jsonDocument = `{
  "dataset": "sales",
  "compose": {
    "rows": 1,
    "cols": 2,
    "charts": [
      {"type": "bar", "roles": {"x": "region", "y": "revenue"}},
      {"type": "histogram", "roles": {"x": "units"}}
    ]
  }
}`

func TestDecodeDocument_YAML(t *testing.T) {
	t.Parallel()

	doc, err := DecodeDocument(strings.NewReader(yamlDocument), DocumentYAML)
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}

	if doc.Dataset != "sales" || doc.Name != "revenue-by-region" {
		t.Errorf("doc = %q/%q, want sales/revenue-by-region", doc.Dataset, doc.Name)
	}
	if doc.Chart == nil || doc.Chart.Type != chart.TypeBar {
		t.Fatalf("Chart = %+v, want a bar chart", doc.Chart)
	}
	if name, _ := doc.Chart.Roles.X.Name(); name != "region" {
		t.Errorf("x = %q, want region", name)
	}
	if got := len(doc.Filters.List()); got != 2 {
		t.Errorf("filters = %d, want 2", got)
	}
	if doc.Sampling.Method != application.SampleRandom || doc.Sampling.N != 3 {
		t.Errorf("Sampling = %+v, want random n=3", doc.Sampling)
	}
	if doc.Export == nil || doc.Export.Format != export.FormatSVG || doc.Export.Width != 640 {
		t.Errorf("Export = %+v, want svg 640 wide", doc.Export)
	}
	if doc.ChartType() != "bar" {
		t.Errorf("ChartType() = %q, want bar", doc.ChartType())
	}
}

func TestDecodeDocument_JSON(t *testing.T) {
	t.Parallel()

	doc, err := DecodeDocument(strings.NewReader(jsonDocument), DocumentJSON)
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}
	if doc.Compose == nil || len(doc.Compose.Charts) != 2 {
		t.Fatalf("Compose = %+v, want two charts", doc.Compose)
	}
	if doc.Compose.Charts[1].Type != chart.TypeHistogram {
		t.Errorf("second chart = %s, want histogram", doc.Compose.Charts[1].Type)
	}
	if doc.ChartType() != "composite" {
		t.Errorf("ChartType() = %q, want composite", doc.ChartType())
	}
}

func TestDecodeDocument_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		format DocumentFormat
	}{
		{name: "empty yaml", input: "dataset: sales\n", format: DocumentYAML},
		{name: "unknown yaml field", input: "dataset: sales\ncolour: red\nchart:\n  type: bar\n", format: DocumentYAML},
		{name: "unknown chart type", input: "chart:\n  type: sunburst\n", format: DocumentYAML},
		{name: "malformed json", input: "{", format: DocumentJSON},
		{name: "unknown json field", input: `{"chart": {"type": "bar"}, "extra": 1}`, format: DocumentJSON},
		{
			name:   "chart and compose",
			input:  `{"chart": {"type": "bar"}, "compose": {"charts": [{"type": "pie"}]}}`,
			format: DocumentJSON,
		},
		{name: "unsupported format", input: "{}", format: "toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeDocument(strings.NewReader(tt.input), tt.format); !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("DecodeDocument() error = %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestLoadDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "chart.yaml")
	jsonPath := filepath.Join(dir, "grid.JSON")
	if err := os.WriteFile(yamlPath, []byte(yamlDocument), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(jsonDocument), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadDocument(yamlPath)
	if err != nil {
		t.Fatalf("LoadDocument(yaml) error = %v", err)
	}
	if doc.Chart == nil {
		t.Error("LoadDocument(yaml) has no chart")
	}

	doc, err = LoadDocument(jsonPath)
	if err != nil {
		t.Fatalf("LoadDocument(json) error = %v", err)
	}
	if doc.Compose == nil {
		t.Error("LoadDocument(json) has no composition")
	}

	if _, err := LoadDocument(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadDocument(missing) error = %v, want ErrNotExist", err)
	}
}
