package config

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/chartforge/application"
	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/domain/export"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/infrastructure/resilience"
)

// Builder builds runtime settings from configuration.
type Builder struct {
	config *domainconfig.Config
}

// NewBuilder creates a new configuration builder.
func NewBuilder(config *domainconfig.Config) *Builder {
	return &Builder{config: config}
}

// BuildResult contains the runtime settings derived from configuration.
type BuildResult struct {
	// Logging configures the logger.
	Logging logging.Config
	// Export is the default export request.
	Export export.Request
	// ExportTimeout bounds one render.
	ExportTimeout time.Duration
	// Compose holds composite figure defaults.
	Compose application.ComposeOptions
	// Executor configures the resilience executor.
	Executor resilience.ExecutorConfig
	// Sources are the datasets to load at startup.
	Sources []domainconfig.SourceConfig
}

// Build builds the runtime settings.
func (b *Builder) Build() (*BuildResult, error) {
	result := &BuildResult{}

	result.Logging = b.buildLogging()

	if err := b.buildExport(result); err != nil {
		return nil, fmt.Errorf("building export: %w", err)
	}

	result.Compose = b.buildCompose()
	result.Executor = resilience.ConfigFrom(b.config.Resilience, result.ExportTimeout)
	result.Sources = append([]domainconfig.SourceConfig(nil), b.config.Sources...)

	return result, nil
}

func (b *Builder) buildLogging() logging.Config {
	cfg := logging.DefaultConfig()
	if b.config.Logging.Level != "" {
		cfg.Level = b.config.Logging.Level
	}
	if b.config.Logging.Format != "" {
		cfg.Format = b.config.Logging.Format
	}
	return cfg
}

func (b *Builder) buildExport(result *BuildResult) error {
	e := b.config.Export
	req := export.NewRequest(export.FormatPNG)

	if e.Format != "" {
		format, err := export.ParseFormat(e.Format)
		if err != nil {
			return err
		}
		req.Format = format
	}
	if e.Width > 0 {
		req.Width = e.Width
	}
	if e.Height > 0 {
		req.Height = e.Height
	}
	if e.DPI > 0 {
		req.DPI = e.DPI
	}

	result.Export = req
	result.ExportTimeout = e.Timeout.Duration()
	if result.ExportTimeout <= 0 {
		result.ExportTimeout = 30 * time.Second
	}
	return nil
}

func (b *Builder) buildCompose() application.ComposeOptions {
	opts := application.DefaultComposeOptions()
	c := b.config.Compose
	if c.Height > 0 {
		opts.Height = c.Height
	}
	if c.Title != "" {
		opts.Title = c.Title
	}
	opts.ShowLegend = !c.HideLegend
	return opts
}
