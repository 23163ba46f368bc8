package cmd

import (
	"fmt"
	"strconv"

	"example.com/backstage/foodshare/internal/render"
	"example.com/backstage/foodshare/internal/reports"

	"github.com/spf13/cobra"
)

const chartWidth = 40

var (
	reportCity string
	reportDays int
)

var reportCmd = &cobra.Command{
	Use:   "report [ID]",
	Short: "List the reports or run one",
	Long: `Without an argument, list the report catalog. With a report number
or slug, run that report and print its table, followed by a bar chart for
reports that have one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportCity, "city", "", "city for the provider contacts report")
	reportCmd.Flags().IntVar(&reportDays, "days", 0, "window in days for the near-expiry report")
}

func runReport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintln(out, render.Catalog(reports.Catalog()))
		return nil
	}

	def, err := lookupReport(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	days := reportDays
	if cmd.Flags().Changed("days") {
		if def.Takes(reports.ParamDays) {
			if err := reports.ValidateNearExpiryDays(days); err != nil {
				return err
			}
		}
	} else {
		days = cfg.Reports.NearExpiryDays
	}

	a, err := startApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := a.service.RunReport(cmd.Context(), def.ID, reports.Params{City: reportCity, Days: days})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, render.Title(def))
	fmt.Fprintln(out, render.Table(table))
	if def.Chart {
		if chart := render.BarChart(table, chartWidth); chart != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, chart)
		}
	}
	return nil
}

func lookupReport(arg string) (reports.Definition, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		return reports.Lookup(id)
	}
	return reports.LookupSlug(arg)
}
