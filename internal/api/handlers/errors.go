package handlers

import (
	"net/http"
	"strconv"

	"example.com/backstage/foodshare/internal/importer"
	"example.com/backstage/foodshare/internal/reports"
	"example.com/backstage/foodshare/internal/repositories"
	"example.com/backstage/foodshare/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, reports.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, reports.ErrUnknownReport):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, importer.ErrUnrecognizedInput), errors.Is(err, importer.ErrMalformedData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrSearchDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// idParam reads a positive integer path parameter
func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// intQuery reads an optional integer query parameter, returning def when
// it is absent
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func rowsAffected(c *gin.Context, n int64) {
	c.JSON(http.StatusOK, gin.H{"rows_affected": n})
}
