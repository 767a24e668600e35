package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartforge"
	chartforgehttp "github.com/felixgeelhaar/chartforge/interfaces/http"
)

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	var addr string
	var cors bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the chartforge HTTP API until interrupted.

Examples:
  chartforge serve -c chartforge.yaml
  chartforge serve --data sales=sales.csv --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), addr, cors)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&cors, "cors", false, "Enable CORS headers")

	return cmd
}

func (a *App) serve(ctx context.Context, addr string, cors bool) error {
	svc, cfg, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(context.WithoutCancel(ctx)); cerr != nil {
			_, _ = fmt.Fprintf(a.stderr, "warning: %v\n", cerr)
		}
	}()

	serverCfg := chartforgehttp.ConfigFrom(cfg.Server)
	if addr != "" {
		serverCfg.Addr = addr
	}
	serverCfg.EnableCORS = cors
	serverCfg.Version = chartforge.Version

	return chartforgehttp.New(svc, serverCfg).Run(ctx)
}
