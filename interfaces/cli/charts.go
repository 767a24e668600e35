package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartforge/domain/export"
	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

// exportOptions holds the export flags.
type exportOptions struct {
	requestOptions
	output string
	format string
	width  int
	height int
	dpi    int
}

// apply merges the export flags over the document's export settings.
func (o *exportOptions) apply(doc *api.Document) {
	if o.format == "" && o.width == 0 && o.height == 0 && o.dpi == 0 {
		return
	}
	req := export.Request{}
	if doc.Export != nil {
		req = *doc.Export
	}
	if o.format != "" {
		req.Format = export.Format(o.format)
	}
	if o.width != 0 {
		req.Width = o.width
	}
	if o.height != 0 {
		req.Height = o.height
	}
	if o.dpi != 0 {
		req.DPI = o.dpi
	}
	doc.Export = &req
}

func addRequestFlags(cmd *cobra.Command, opts *requestOptions) {
	cmd.Flags().StringVarP(&opts.requestPath, "file", "f", "", "Path to request document (required)")
	cmd.Flags().StringVarP(&opts.dataset, "dataset", "d", "", "Dataset name (overrides the request)")
	_ = cmd.MarkFlagRequired("file")
}

func addExportFlags(cmd *cobra.Command, opts *exportOptions) {
	addRequestFlags(cmd, &opts.requestOptions)
	cmd.Flags().StringVar(&opts.format, "format", "", "Export format: png, jpeg, webp, svg, pdf or eps")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Height in pixels")
	cmd.Flags().IntVar(&opts.dpi, "dpi", 0, "Resolution of raster formats")
}

// newCompileCmd creates the compile command.
func (a *App) newCompileCmd() *cobra.Command {
	opts := &requestOptions{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a chart request to a chart specification",
		Long: `Compile a single chart request and print the chart specification as JSON.

A request whose columns are missing compiles to a specification without
traces; its title explains why.

Examples:
  chartforge compile -c chartforge.yaml -f revenue.yaml
  chartforge compile --data sales=sales.csv -f revenue.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *api.Service) error {
				doc, err := opts.load(svc)
				if err != nil {
					return err
				}
				spec, err := svc.Compile(cmd.Context(), doc)
				if err != nil {
					return err
				}
				return a.writeJSON(spec)
			})
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}

// newComposeCmd creates the compose command.
func (a *App) newComposeCmd() *cobra.Command {
	opts := &requestOptions{}

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose up to four charts on a subplot grid",
		Long: `Compile a composition request and print the composite as JSON.

Examples:
  chartforge compose -c chartforge.yaml -f dashboard.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *api.Service) error {
				doc, err := opts.load(svc)
				if err != nil {
					return err
				}
				comp, err := svc.Compose(cmd.Context(), doc)
				if err != nil {
					return err
				}
				return a.writeJSON(comp)
			})
		},
	}

	addRequestFlags(cmd, opts)
	return cmd
}

// newExportCmd creates the export command.
func (a *App) newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a chart or composition to an image file",
		Long: `Compile a request and write it as png, jpeg, webp, svg, pdf or eps.

Without -o the file is named after the request and written to the current
directory. A chart without data writes nothing.

Examples:
  chartforge export -c chartforge.yaml -f revenue.yaml
  chartforge export --data sales=sales.csv -f revenue.yaml -o revenue.pdf --format pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *api.Service) error {
				doc, err := opts.load(svc)
				if err != nil {
					return err
				}
				opts.apply(&doc)
				_, err = a.exportTo(cmd.Context(), svc, doc, opts.output)
				return err
			})
		},
	}

	addExportFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: <name>.<ext>)")
	return cmd
}

// exportTo exports doc and writes the file. It returns the written path,
// or "" when the chart had no data.
func (a *App) exportTo(ctx context.Context, svc *api.Service, doc api.Document, output string) (string, error) {
	out, err := svc.Export(ctx, doc)
	if err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		_, _ = fmt.Fprintf(a.stdout, "Chart has no data; nothing written.\n")
		return "", nil
	}

	if output == "" {
		output = out.FileName
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, out.Data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "Exported %s (%s, %d bytes)\n", output, out.Request.Format, len(out.Data))
	return output, nil
}

// newPreviewCmd creates the preview command.
func (a *App) newPreviewCmd() *cobra.Command {
	opts := &requestOptions{}
	var output string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Write an interactive HTML preview of a request",
		Long: `Compile a request and write it as an interactive HTML page.

Examples:
  chartforge preview -c chartforge.yaml -f revenue.yaml -o revenue.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *api.Service) error {
				doc, err := opts.load(svc)
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := svc.Preview(cmd.Context(), doc, &buf); err != nil {
					return err
				}
				if output == "" {
					_, err = a.stdout.Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o600); err != nil {
					return fmt.Errorf("failed to write preview: %w", err)
				}
				_, _ = fmt.Fprintf(a.stdout, "Preview written to %s\n", output)
				return nil
			})
		},
	}

	addRequestFlags(cmd, opts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// newPublishCmd creates the publish command.
func (a *App) newPublishCmd() *cobra.Command {
	opts := &exportOptions{}
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Export a request to the configured artifact store",
		Long: `Export a request and store it in the artifact store configured under
storage (memory, filesystem, s3, gcs or azure).

Examples:
  chartforge publish -c chartforge.yaml -f revenue.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *api.Service) error {
				doc, err := opts.load(svc)
				if err != nil {
					return err
				}
				opts.apply(&doc)
				ref, err := svc.Publish(cmd.Context(), doc)
				if err != nil {
					return err
				}
				if jsonOutput {
					return a.writeJSON(ref)
				}
				_, _ = fmt.Fprintf(a.stdout, "Published %s\n", ref.FileName())
				_, _ = fmt.Fprintf(a.stdout, "  ID: %s\n", ref.ID)
				_, _ = fmt.Fprintf(a.stdout, "  Size: %d bytes\n", ref.Size)
				_, _ = fmt.Fprintf(a.stdout, "  Checksum: %s\n", ref.Checksum)
				return nil
			})
		},
	}

	addExportFlags(cmd, opts)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the artifact reference as JSON")
	return cmd
}
