package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartforge"
	"github.com/felixgeelhaar/chartforge/interfaces/mcp"
)

// newMCPCmd creates the mcp command.
func (a *App) newMCPCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve chart tools over the Model Context Protocol",
		Long: `Serve the datasets as MCP tools on stdin/stdout, or over HTTP with --addr.

Examples:
  chartforge mcp -c chartforge.yaml
  chartforge mcp --data sales=sales.csv --addr :9091`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serveMCP(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Serve over HTTP on this address instead of stdio")

	return cmd
}

func (a *App) serveMCP(ctx context.Context, addr string) error {
	svc, _, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(context.WithoutCancel(ctx)); cerr != nil {
			_, _ = fmt.Fprintf(a.stderr, "warning: %v\n", cerr)
		}
	}()

	srv := mcp.New(svc, mcp.Config{
		Version:      chartforge.Version,
		Instructions: "Call list_datasets first; chart requests name their dataset in the \"dataset\" field.",
	})
	if addr != "" {
		return srv.ServeHTTP(ctx, addr)
	}
	return srv.ServeStdio(ctx)
}
