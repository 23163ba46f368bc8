package cmd

import (
	"os"

	"example.com/backstage/foodshare/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Flags
	cfgFile string
	debug   bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "foodshare",
		Short: "Local Food Wastage Management",
		Long: `Local Food Wastage Management dashboard backend.

Functions:
- Keep providers, receivers, food listings and claims in one store
- Bulk load the four tables from CSV files
- Serve record maintenance and the sixteen fixed reports over HTTP
- Print reports and integrity checks from the command line`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(checkCmd)
}

func initLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// loadConfig reads the configuration and applies its logging section
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return config.Config{}, err
	}

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if !debug && os.Getenv("LOG_LEVEL") == "" {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil && level != zerolog.NoLevel {
			zerolog.SetGlobalLevel(level)
		}
	}

	return cfg, nil
}
