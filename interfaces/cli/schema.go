package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

// newSchemaCmd creates the schema command.
func (a *App) newSchemaCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export the configuration JSON schema",
		Long: `Export the JSON Schema for chartforge configuration files.

The schema follows JSON Schema draft 2020-12 and can drive IDE validation
and autocompletion.

Examples:
  # Export schema to stdout
  chartforge schema

  # Export schema to a file
  chartforge schema -o chartforge.schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.exportSchema(outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")

	return cmd
}

// exportSchema writes the configuration JSON schema.
func (a *App) exportSchema(outputPath string) error {
	schemaJSON, err := api.ConfigSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if outputPath == "" {
		_, _ = fmt.Fprintln(a.stdout, schemaJSON)
		return nil
	}

	if err := os.WriteFile(outputPath, []byte(schemaJSON), 0o600); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "Schema exported to %s\n", outputPath)
	return nil
}
