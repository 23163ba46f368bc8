package handlers

import (
	"net/http"
	"strings"
	"time"

	"example.com/backstage/foodshare/internal/models"
	"example.com/backstage/foodshare/internal/repositories"
	"example.com/backstage/foodshare/internal/services"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// RecordsHandler handles create, read, update and delete of the four
// record tables
type RecordsHandler struct {
	service *services.DashboardService
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(service *services.DashboardService) *RecordsHandler {
	return &RecordsHandler{service: service}
}

// ClaimRequest is the body accepted when creating or updating a claim.
// Timestamp accepts any common date layout; empty means now.
type ClaimRequest struct {
	ClaimID    int    `json:"Claim_ID"`
	FoodID     int    `json:"Food_ID"`
	ReceiverID int    `json:"Receiver_ID"`
	Status     string `json:"Status"`
	Timestamp  string `json:"Timestamp"`
}

func (r ClaimRequest) timestamp() (time.Time, error) {
	if strings.TrimSpace(r.Timestamp) == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseLocal(strings.TrimSpace(r.Timestamp))
	if err != nil {
		return time.Time{}, errors.Wrapf(services.ErrValidation, "invalid Timestamp %q", r.Timestamp)
	}
	return t, nil
}

// HandleListProviders returns providers matching the query filters
func (h *RecordsHandler) HandleListProviders(c *gin.Context) {
	id, ok := intQuery(c, "id", 0)
	if !ok {
		return
	}
	providers, err := h.service.ListProviders(c.Request.Context(), repositories.ProviderFilter{
		ProviderID: id,
		City:       c.Query("city"),
		Type:       c.Query("type"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, providers)
}

// HandleCreateProvider appends a provider
func (h *RecordsHandler) HandleCreateProvider(c *gin.Context) {
	var provider models.Provider
	if err := c.ShouldBindJSON(&provider); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.service.CreateProvider(c.Request.Context(), &provider); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, provider)
}

// HandleDeleteProvider deletes every row with the provider id
func (h *RecordsHandler) HandleDeleteProvider(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := h.service.DeleteProvider(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	rowsAffected(c, n)
}

func (h *RecordsHandler) HandleListReceivers(c *gin.Context) {
	id, ok := intQuery(c, "id", 0)
	if !ok {
		return
	}
	receivers, err := h.service.ListReceivers(c.Request.Context(), repositories.ReceiverFilter{
		ReceiverID: id,
		City:       c.Query("city"),
		Type:       c.Query("type"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receivers)
}

func (h *RecordsHandler) HandleCreateReceiver(c *gin.Context) {
	var receiver models.Receiver
	if err := c.ShouldBindJSON(&receiver); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.service.CreateReceiver(c.Request.Context(), &receiver); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receiver)
}

func (h *RecordsHandler) HandleDeleteReceiver(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := h.service.DeleteReceiver(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	rowsAffected(c, n)
}

// HandleListListings returns listings matching the query filters
func (h *RecordsHandler) HandleListListings(c *gin.Context) {
	providerID, ok := intQuery(c, "provider_id", 0)
	if !ok {
		return
	}
	listings, err := h.service.ListListings(c.Request.Context(), repositories.FoodListingFilter{
		ProviderID: providerID,
		City:       c.Query("city"),
		MealType:   c.Query("meal_type"),
		FoodType:   c.Query("food_type"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// HandleSearchListings runs a full-text search over listings
func (h *RecordsHandler) HandleSearchListings(c *gin.Context) {
	size, ok := intQuery(c, "size", 0)
	if !ok {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		badRequest(c, errors.New("query parameter q is required"))
		return
	}
	docs, err := h.service.SearchListings(c.Request.Context(), q, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// HandleCreateListing creates a listing; an existing Food_ID conflicts
func (h *RecordsHandler) HandleCreateListing(c *gin.Context) {
	var listing models.FoodListing
	if err := c.ShouldBindJSON(&listing); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.service.CreateListing(c.Request.Context(), &listing); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// HandleUpdateListing changes quantity, expiry date and location
func (h *RecordsHandler) HandleUpdateListing(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var fields repositories.FoodListingUpdate
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.service.UpdateListing(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	rowsAffected(c, n)
}

func (h *RecordsHandler) HandleDeleteListing(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := h.service.DeleteListing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	rowsAffected(c, n)
}

func (h *RecordsHandler) HandleListClaims(c *gin.Context) {
	foodID, ok := intQuery(c, "food_id", 0)
	if !ok {
		return
	}
	receiverID, ok := intQuery(c, "receiver_id", 0)
	if !ok {
		return
	}
	claims, err := h.service.ListClaims(c.Request.Context(), repositories.ClaimFilter{
		FoodID:     foodID,
		ReceiverID: receiverID,
		Status:     c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, claims)
}

// HandleCreateClaim creates a claim; an existing Claim_ID conflicts
func (h *RecordsHandler) HandleCreateClaim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ts, err := req.timestamp()
	if err != nil {
		respondError(c, err)
		return
	}

	claim := models.Claim{
		ClaimID:    req.ClaimID,
		FoodID:     req.FoodID,
		ReceiverID: req.ReceiverID,
		Status:     req.Status,
		Timestamp:  ts,
	}
	if err := h.service.CreateClaim(c.Request.Context(), &claim); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, claim)
}

// HandleUpdateClaim changes the status and timestamp of a claim
func (h *RecordsHandler) HandleUpdateClaim(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ts, err := req.timestamp()
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := h.service.UpdateClaim(c.Request.Context(), id, repositories.ClaimUpdate{Status: req.Status, Timestamp: ts})
	if err != nil {
		respondError(c, err)
		return
	}
	rowsAffected(c, n)
}

func (h *RecordsHandler) HandleDeleteClaim(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := h.service.DeleteClaim(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	rowsAffected(c, n)
}

// RegisterRoutes registers the handler's routes
func (h *RecordsHandler) RegisterRoutes(router gin.IRouter) {
	providers := router.Group("/providers")
	providers.GET("", h.HandleListProviders)
	providers.POST("", h.HandleCreateProvider)
	providers.DELETE("/:id", h.HandleDeleteProvider)

	receivers := router.Group("/receivers")
	receivers.GET("", h.HandleListReceivers)
	receivers.POST("", h.HandleCreateReceiver)
	receivers.DELETE("/:id", h.HandleDeleteReceiver)

	listings := router.Group("/listings")
	listings.GET("", h.HandleListListings)
	listings.GET("/search", h.HandleSearchListings)
	listings.POST("", h.HandleCreateListing)
	listings.PUT("/:id", h.HandleUpdateListing)
	listings.DELETE("/:id", h.HandleDeleteListing)

	claims := router.Group("/claims")
	claims.GET("", h.HandleListClaims)
	claims.POST("", h.HandleCreateClaim)
	claims.PUT("/:id", h.HandleUpdateClaim)
	claims.DELETE("/:id", h.HandleDeleteClaim)
}
