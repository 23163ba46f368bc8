package api

import (
	"context"
	"net/http"
	"time"

	"example.com/backstage/foodshare/config"
	"example.com/backstage/foodshare/internal/api/handlers"
	"example.com/backstage/foodshare/internal/metrics"
	"example.com/backstage/foodshare/internal/services"
	"example.com/backstage/foodshare/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultShutdownTimeout = 5 * time.Second

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	service    *services.DashboardService
	metrics    *metrics.MetricsCollector
	tracer     tracing.Tracer
	db         handlers.Pinger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	service *services.DashboardService,
	collector *metrics.MetricsCollector,
	tracer tracing.Tracer,
	db handlers.Pinger,
) *Server {
	if collector == nil {
		collector = metrics.NewMetricsCollector()
	}
	if tracer == nil {
		tracer = tracing.NewNoopTracer()
	}
	server := &Server{
		config:  cfg,
		service: service,
		metrics: collector,
		tracer:  tracer,
		db:      db,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
	}

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	if app := s.tracer.Application(); app != nil {
		router.Use(nrgin.Middleware(app))
	}
	router.Use(RequestIDMiddleware())
	if s.config.Server.CorsEnabled {
		router.Use(CORSMiddleware(s.config.Server.CorsOrigins))
	}
	router.Use(LoggingMiddleware())
	if s.config.MetricsEnabled {
		router.Use(MetricsMiddleware(s.metrics))
	}

	handlers.NewMetricsHandler(s.metrics, s.db).RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	handlers.NewRecordsHandler(s.service).RegisterRoutes(v1)
	handlers.NewReportsHandler(s.service, s.config.Reports.NearExpiryDays).RegisterRoutes(v1)
	handlers.NewImportsHandler(s.service, s.config.Server.MaxUploadBytes).RegisterRoutes(v1)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Server.Address).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
