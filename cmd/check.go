package cmd

import (
	"fmt"
	"strings"

	"example.com/backstage/foodshare/internal/render"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check references and table schemas",
	Long: `Report claims and listings that point at missing rows, and tables
whose columns differ from the declared schema. Exits non-zero when a
problem is found.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := startApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.service.CheckIntegrity(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, drift := range report.Schema {
		switch {
		case !drift.Exists:
			fmt.Fprintln(out, render.Error(fmt.Sprintf("%s: table is missing", drift.Table)))
		case !drift.Consistent():
			fmt.Fprintln(out, render.Error(fmt.Sprintf("%s: missing [%s] extra [%s]",
				drift.Table, strings.Join(drift.Missing, ", "), strings.Join(drift.Extra, ", "))))
		default:
			fmt.Fprintf(out, "%s: ok\n", drift.Table)
		}
	}

	if report.References == nil {
		fmt.Fprintln(out, "references: skipped")
	} else {
		for _, d := range report.References.Dangling {
			fmt.Fprintln(out, render.Error(fmt.Sprintf("%s %d: %s %d does not exist", d.Table, d.Key, d.Column, d.Value)))
		}
		if report.References.Consistent() {
			fmt.Fprintln(out, "references: ok")
		}
	}

	if !report.Consistent() {
		return errors.New("integrity check found problems")
	}
	return nil
}
