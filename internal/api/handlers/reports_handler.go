package handlers

import (
	"net/http"
	"strconv"

	"example.com/backstage/foodshare/internal/reports"
	"example.com/backstage/foodshare/internal/services"

	"github.com/gin-gonic/gin"
)

// ReportsHandler serves the report catalog and report results
type ReportsHandler struct {
	service     *services.DashboardService
	defaultDays int
}

// NewReportsHandler creates a new reports handler. defaultDays is the
// near-expiry window used when a request does not give one.
func NewReportsHandler(service *services.DashboardService, defaultDays int) *ReportsHandler {
	return &ReportsHandler{service: service, defaultDays: defaultDays}
}

// HandleListReports returns the catalog
func (h *ReportsHandler) HandleListReports(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Catalog())
}

// HandleRunReport runs one report. The id may be the number or the slug.
func (h *ReportsHandler) HandleRunReport(c *gin.Context) {
	def, err := lookupReport(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	days, ok := intQuery(c, reports.ParamDays, h.defaultDays)
	if !ok {
		return
	}
	if raw, given := c.GetQuery(reports.ParamDays); given && raw != "" && def.Takes(reports.ParamDays) {
		if err := reports.ValidateNearExpiryDays(days); err != nil {
			respondError(c, err)
			return
		}
	}
	params := reports.Params{City: c.Query(reports.ParamCity), Days: days}

	table, err := h.service.RunReport(c.Request.Context(), def.ID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report": def,
		"params": params,
		"result": table,
	})
}

func lookupReport(raw string) (reports.Definition, error) {
	if id, err := strconv.Atoi(raw); err == nil {
		return reports.Lookup(id)
	}
	return reports.LookupSlug(raw)
}

// RegisterRoutes registers the handler's routes
func (h *ReportsHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/reports", h.HandleListReports)
	router.GET("/reports/:id", h.HandleRunReport)
}
