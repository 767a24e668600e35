package config

import (
	"errors"
	"testing"
	"time"

	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/domain/export"
)

func TestBuilder_Defaults(t *testing.T) {
	result, err := NewBuilder(domainconfig.Default()).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := export.Request{Format: export.FormatPNG, Width: 1000, Height: 600, DPI: 300}
	if result.Export != want {
		t.Errorf("Export = %+v, want %+v", result.Export, want)
	}
	if result.ExportTimeout != 30*time.Second {
		t.Errorf("ExportTimeout = %v, want 30s", result.ExportTimeout)
	}
	if result.Compose.Height != 700 || !result.Compose.ShowLegend {
		t.Errorf("Compose = %+v", result.Compose)
	}
	if result.Logging.Level != "info" || result.Logging.Format != "console" {
		t.Errorf("Logging = %+v", result.Logging)
	}
	if result.Executor.MaxConcurrent != 4 {
		t.Errorf("Executor.MaxConcurrent = %d, want 4", result.Executor.MaxConcurrent)
	}
}

func TestBuilder_Overrides(t *testing.T) {
	cfg := domainconfig.Default()
	cfg.Logging = domainconfig.LoggingConfig{Level: "debug", Format: "json"}
	cfg.Export = domainconfig.ExportConfig{Format: "jpg", Width: 800, DPI: 150, Timeout: domainconfig.Duration(5 * time.Second)}
	cfg.Compose = domainconfig.ComposeConfig{Height: 900, Title: "Ventas", HideLegend: true}
	cfg.Resilience.Bulkhead = domainconfig.BulkheadConfig{Enabled: true, MaxConcurrent: 8}
	cfg.Sources = []domainconfig.SourceConfig{{Name: "sales", Paths: []string{"sales.csv"}}}

	result, err := NewBuilder(cfg).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := export.Request{Format: export.FormatJPEG, Width: 800, Height: 600, DPI: 150}
	if result.Export != want {
		t.Errorf("Export = %+v, want %+v", result.Export, want)
	}
	if result.ExportTimeout != 5*time.Second || result.Executor.DefaultTimeout != 5*time.Second {
		t.Errorf("timeouts = %v, %v, want 5s", result.ExportTimeout, result.Executor.DefaultTimeout)
	}
	if result.Compose.Title != "Ventas" || result.Compose.Height != 900 || result.Compose.ShowLegend {
		t.Errorf("Compose = %+v", result.Compose)
	}
	if result.Logging.Level != "debug" || result.Logging.Format != "json" {
		t.Errorf("Logging = %+v", result.Logging)
	}
	if result.Executor.MaxConcurrent != 8 {
		t.Errorf("Executor.MaxConcurrent = %d, want 8", result.Executor.MaxConcurrent)
	}
	if len(result.Sources) != 1 || result.Sources[0].Name != "sales" {
		t.Errorf("Sources = %+v", result.Sources)
	}
}

func TestBuilder_InvalidExportFormat(t *testing.T) {
	cfg := domainconfig.Default()
	cfg.Export.Format = "gif"

	if _, err := NewBuilder(cfg).Build(); !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Errorf("Build() error = %v, want ErrUnsupportedFormat", err)
	}
}
