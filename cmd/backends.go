package cmd

import (
	"context"

	"example.com/backstage/foodshare/config"
	"example.com/backstage/foodshare/internal/cache"
	"example.com/backstage/foodshare/internal/database"
	"example.com/backstage/foodshare/internal/messaging"
	"example.com/backstage/foodshare/internal/metrics"
	"example.com/backstage/foodshare/internal/models"
	"example.com/backstage/foodshare/internal/search"
	"example.com/backstage/foodshare/internal/services"
	"example.com/backstage/foodshare/internal/storage"
	"example.com/backstage/foodshare/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// app holds everything a command needs once started
type app struct {
	cfg       config.Config
	handles   *database.Handles
	collector *metrics.MetricsCollector
	tracer    tracing.Tracer
	service   *services.DashboardService
	closers   []func() error
}

// startApp connects to storage, ensures the schema and wires the optional
// backends. Optional backends that fail to start are skipped with a warning.
func startApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, collector: metrics.NewMetricsCollector()}

	handles, err := database.Connect(cfg.DB, a.collector)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	a.handles = handles
	a.closers = append(a.closers, handles.Close)

	if err := models.EnsureSchema(ctx, handles.Write); err != nil {
		a.Close()
		return nil, err
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.NewNoopTracer()
	}
	a.tracer = tracer
	a.closers = append(a.closers, func() error { tracer.Close(); return nil })

	a.service = services.NewDashboardService(handles.Write, handles.Read, cfg, a.collector, tracer, a.options(ctx)...)
	return a, nil
}

func (a *app) options(ctx context.Context) []services.Option {
	var opts []services.Option

	redisCache, err := cache.NewRedisCache(a.cfg.Redis)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	case redisCache.Enabled():
		opts = append(opts, services.WithCache(redisCache))
		a.closers = append(a.closers, redisCache.Close)
	}

	if a.cfg.Elastic.URL != "" {
		elasticClient, err := search.NewElasticClient(a.cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
		} else {
			opts = append(opts, services.WithSearch(elasticClient))
		}
	}

	archiver, err := storage.NewS3Archiver(ctx, a.cfg.Storage)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Failed to initialize upload archive, continuing without archiving")
	case archiver.Enabled():
		opts = append(opts, services.WithArchive(archiver))
	}

	publisher, err := messaging.NewPublisher(a.cfg.Azure)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus publisher, continuing with logged events")
		publisher = messaging.NewLogPublisher()
	}
	opts = append(opts, services.WithPublisher(publisher))
	a.closers = append(a.closers, publisher.Close)

	return opts
}

// Close releases every backend in reverse start order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Failed to close backend")
		}
	}
	a.closers = nil
}
