package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"example.com/backstage/foodshare/internal/importer"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Bulk load CSV files",
	Long: `Replace table contents from CSV files. The target table is chosen
from each file name; unrecognized files are skipped and reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files := make([]importer.File, 0, len(args))
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}
		files = append(files, importer.File{Name: filepath.Base(path), Content: content})
	}

	a, err := startApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	failed := 0
	out := cmd.OutOrStdout()
	for _, r := range a.service.Import(cmd.Context(), files...) {
		if !r.OK() {
			failed++
			fmt.Fprintf(out, "%s: %s\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(out, "%s -> %s %s\n", r.File, r.Table, r.Shape())
		if r.SchemaDrift != nil && !r.SchemaDrift.Consistent() {
			fmt.Fprintf(out, "  schema drift: missing %v, extra %v\n", r.SchemaDrift.Missing, r.SchemaDrift.Extra)
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d files failed to load", failed, len(files))
	}
	return nil
}
