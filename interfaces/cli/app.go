// Package cli provides the chartforge command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartforge"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	data       map[string]string
	logLevel   string
}

// App is the chartforge command tree bound to its output streams.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
	global globalOptions
}

// New builds the command tree writing to the process stdout and stderr.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "chartforge",
		Short: "Compile, compose and export charts from tabular data",
		Long: `chartforge turns a dataset, a chart type and column bindings into a
chart specification, places up to four charts on a subplot grid, and exports
the result as png, jpeg, webp, svg, pdf or eps.

Datasets come from a configuration file (-c) or from --data name=path flags.
Requests are YAML or JSON documents:

  dataset: sales
  name: revenue-by-region
  chart:
    type: bar
    roles: {x: region, y: revenue}
  export:
    format: svg`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := app.root.PersistentFlags()
	flags.StringVarP(&app.global.configPath, "config", "c", "", "Path to configuration file")
	flags.StringToStringVar(&app.global.data, "data", nil, "Register a dataset file (name=path)")
	flags.StringVar(&app.global.logLevel, "log-level", "", "Log level (overrides config)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newSchemaCmd(),
		app.newDatasetsCmd(),
		app.newDescribeCmd(),
		app.newCompileCmd(),
		app.newComposeCmd(),
		app.newExportCmd(),
		app.newPreviewCmd(),
		app.newPublishCmd(),
		app.newWatchCmd(),
		app.newServeCmd(),
		app.newMCPCmd(),
	)

	return app
}

// WithOutput redirects command output, chart bytes included.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout, a.stderr = stdout, stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs os.Args until the command returns or SIGINT/SIGTERM arrives.
func (a *App) Execute(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs args instead of os.Args.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// buildInfo reports the VCS revision and commit time stamped by go build.
func buildInfo() (revision, when string) {
	revision, when = "unknown", "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return revision, when
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			when = s.Value
		}
	}
	return revision, when
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			revision, when := buildInfo()
			_, _ = fmt.Fprintf(a.stdout, "chartforge version %s\n  commit: %s\n  built:  %s\n", chartforge.Version, revision, when)
		},
	}
}
