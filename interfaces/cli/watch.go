package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartforge/infrastructure/watch"
	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

// newWatchCmd creates the watch command.
func (a *App) newWatchCmd() *cobra.Command {
	opts := &exportOptions{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-export a request whenever it or its data changes",
		Long: `Export a request, then watch the request document and the dataset files
it reads, and export again after every change until interrupted.

Examples:
  chartforge watch --data sales=sales.csv -f revenue.yaml -o revenue.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *api.Service) error {
				return a.watch(cmd.Context(), svc, opts, debounce)
			})
		},
	}

	addExportFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: <name>.<ext>)")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before re-exporting")

	return cmd
}

func (a *App) watch(ctx context.Context, svc *api.Service, opts *exportOptions, debounce time.Duration) error {
	doc, err := opts.load(svc)
	if err != nil {
		return err
	}
	opts.apply(&doc)
	if _, err := a.exportTo(ctx, svc, doc, opts.output); err != nil {
		return err
	}

	paths := append([]string{opts.requestPath}, svc.SourcePaths(doc.Dataset)...)
	w, err := watch.New(paths, watch.WithDebounce(debounce))
	if err != nil {
		return err
	}
	requestPath, err := filepath.Abs(opts.requestPath)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.stdout, "Watching %d files\n", len(w.Files()))

	return w.Run(ctx, func(ctx context.Context, changed []string) {
		for _, path := range changed {
			if path == requestPath {
				reloaded, err := opts.load(svc)
				if err != nil {
					_, _ = fmt.Fprintf(a.stderr, "Error: %v\n", err)
					return
				}
				opts.apply(&reloaded)
				doc = reloaded
				continue
			}
			svc.Invalidate(path)
		}
		if _, err := a.exportTo(ctx, svc, doc, opts.output); err != nil {
			_, _ = fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
	})
}
