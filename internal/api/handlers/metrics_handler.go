package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"example.com/backstage/foodshare/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the storage backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsHandler handles metrics-related HTTP requests
type MetricsHandler struct {
	metrics *metrics.MetricsCollector
	db      Pinger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(collector *metrics.MetricsCollector, db Pinger) *MetricsHandler {
	return &MetricsHandler{
		metrics: collector,
		db:      db,
	}
}

// HandleGetMetrics returns all metrics
func (h *MetricsHandler) HandleGetMetrics(c *gin.Context) {
	h.metrics.SetGauge("goroutines", float64(runtime.NumGoroutine()))

	c.JSON(http.StatusOK, h.metrics.GetMetrics())
}

// HandleGetHealthCheck returns the service health, 503 when storage is
// unreachable
func (h *MetricsHandler) HandleGetHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	database := "ok"
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			database = err.Error()
		}
	}

	c.JSON(status, gin.H{
		"status":   status == http.StatusOK,
		"database": database,
		"details":  h.metrics.GetHealthStatus(),
	})
}

// RegisterRoutes registers the handler's routes
func (h *MetricsHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/metrics", h.HandleGetMetrics)
	router.GET("/health", h.HandleGetHealthCheck)
}
