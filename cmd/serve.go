package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/foodshare/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for record maintenance, bulk imports and reports`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := startApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.Close()

	server := api.NewServer(cfg, a.service, a.collector, a.tracer, a.handles)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("API server stopped")
	return nil
}
