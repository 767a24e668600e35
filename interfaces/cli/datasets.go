package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

// newDatasetsCmd creates the datasets command.
func (a *App) newDatasetsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the configured datasets",
		Long: `List the datasets of the configuration and of --data flags.

Examples:
  chartforge datasets -c chartforge.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *api.Service) error {
				infos := svc.Datasets()
				if jsonOutput {
					return a.writeJSON(infos)
				}
				if len(infos) == 0 {
					_, _ = fmt.Fprintf(a.stdout, "No datasets configured.\n")
					return nil
				}
				_, _ = fmt.Fprintf(a.stdout, "Datasets (%d):\n", len(infos))
				for _, info := range infos {
					_, _ = fmt.Fprintf(a.stdout, "  %s (%s)\n", info.Name, info.Kind)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// newDescribeCmd creates the describe command.
func (a *App) newDescribeCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "describe <dataset>",
		Short: "Summarise the columns of a dataset",
		Long: `Load a dataset and print its column kinds, null and unique counts, and
the statistics of numeric columns.

Examples:
  chartforge describe --data sales=sales.csv sales
  chartforge describe -c chartforge.yaml orders --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *api.Service) error {
				summary, err := svc.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return a.writeJSON(summary)
				}
				a.describeText(args[0], summary)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func (a *App) describeText(name string, s dataset.Summary) {
	_, _ = fmt.Fprintf(a.stdout, "Dataset %s: %d rows, %d columns\n\n", name, s.Rows, s.Columns)

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COLUMN\tKIND\tNULLS\tUNIQUE\tMIN\tMEAN\tMAX")
	for _, c := range s.Fields {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			c.Name, c.Kind, c.NullCount, c.UniqueCount, number(c.Min), number(c.Mean), number(c.Max))
	}
	_ = tw.Flush()
}

func number(f *float64) string {
	if f == nil {
		return "-"
	}
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", *f), "0"), ".")
}
