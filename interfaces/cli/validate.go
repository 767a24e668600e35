package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	strict       bool
	showSchema   bool
	requestPaths []string
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file and request documents",
		Long: `Validate a chartforge configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Required fields (name, version)
  - Export format and sizes
  - Dataset sources (kind, paths, dsn and query)
  - Environment variable references (in strict mode)

Request documents given with -f are decoded and checked as well.

Examples:
  # Validate a configuration file
  chartforge validate -c chartforge.yaml

  # Strict validation (fail on missing env vars)
  chartforge validate -c chartforge.yaml --strict

  # Validate request documents
  chartforge validate -f revenue.yaml -f dashboard.json

  # Show the JSON schema for configuration
  chartforge validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			return a.validate(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")
	cmd.Flags().StringArrayVarP(&opts.requestPaths, "file", "f", nil, "Request document to validate (repeatable)")

	return cmd
}

// validate validates the configuration file and request documents.
func (a *App) validate(opts *validateOptions) error {
	if a.global.configPath == "" && len(opts.requestPaths) == 0 {
		return fmt.Errorf("nothing to validate (use -c or -f)")
	}

	if a.global.configPath != "" {
		if err := a.validateConfig(opts.strict); err != nil {
			return err
		}
	}

	for _, path := range opts.requestPaths {
		doc, err := api.LoadDocument(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		_, _ = fmt.Fprintf(a.stdout, "✓ Request %s is valid (%s)\n", path, doc.ChartType())
	}
	return nil
}

func (a *App) validateConfig(strict bool) error {
	var loaderOpts []api.ConfigLoaderOption
	if strict {
		loaderOpts = append(loaderOpts, api.ConfigWithStrictEnv(true))
	}

	config, err := api.LoadConfig(a.global.configPath, loaderOpts...)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	_, _ = fmt.Fprintf(a.stdout, "  Name: %s\n", config.Name)
	_, _ = fmt.Fprintf(a.stdout, "  Version: %s\n", config.Version)

	_, _ = fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(a.stdout, "  Export: %s %dx%d at %d dpi\n",
		config.Export.Format, config.Export.Width, config.Export.Height, config.Export.DPI)
	_, _ = fmt.Fprintf(a.stdout, "  Storage: %s\n", config.Storage.Backend)

	if len(config.Sources) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Datasets: %d\n", len(config.Sources))
		for _, src := range config.Sources {
			_, _ = fmt.Fprintf(a.stdout, "    - %s\n", src.Name)
		}
	}

	if config.Cache.Enabled {
		_, _ = fmt.Fprintf(a.stdout, "  Export cache: %s\n", config.Cache.Addr)
	}
	if config.Observability.Tracing.Enabled {
		_, _ = fmt.Fprintf(a.stdout, "  Tracing: %s\n", config.Observability.Tracing.Exporter)
	}

	return nil
}

// showConfigSchema displays the JSON schema for configuration.
func (a *App) showConfigSchema() error {
	schemaJSON, err := api.ConfigSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	_, _ = fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
