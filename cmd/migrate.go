package cmd

import (
	"example.com/backstage/foodshare/internal/database"
	"example.com/backstage/foodshare/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create any missing tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		handles, err := database.Connect(cfg.DB, nil)
		if err != nil {
			return errors.Wrap(err, "failed to connect to database")
		}
		defer handles.Close()

		log.Info().Msg("Ensuring database schema...")
		if err := models.EnsureSchema(cmd.Context(), handles.Write); err != nil {
			return err
		}

		for _, table := range models.Tables() {
			drift, err := models.CheckSchema(cmd.Context(), handles.Write, table)
			if err != nil {
				return err
			}
			if !drift.Consistent() {
				log.Warn().
					Str("table", table).
					Strs("missing", drift.Missing).
					Strs("extra", drift.Extra).
					Msg("Existing table differs from declared schema")
			}
		}

		log.Info().Msg("Database schema is ready")
		return nil
	},
}
