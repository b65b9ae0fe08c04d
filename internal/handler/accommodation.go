package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"travelagent/internal/model"

	"github.com/gin-gonic/gin"
)

// AccommodationService searches places to stay
type AccommodationService interface {
	Search(ctx context.Context, filter model.AccommodationFilter) ([]model.Accommodation, error)
	Nearby(ctx context.Context, place string, radiusKm float64, accType, priceRange *string, limit int) (*model.NearbyResponse, error)
}

// AccommodationHandler handles accommodation HTTP requests
type AccommodationHandler struct {
	accommodations AccommodationService
	maxLimit       int
}

// NewAccommodationHandler creates a new accommodation handler
func NewAccommodationHandler(accommodations AccommodationService, maxLimit int) *AccommodationHandler {
	return &AccommodationHandler{
		accommodations: accommodations,
		maxLimit:       maxLimit,
	}
}

// Search handles POST /api/v1/accommodations/search
func (h *AccommodationHandler) Search(c *gin.Context) {
	var req model.AccommodationFilter
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	req.Limit = h.capLimit(req.Limit)

	results, err := h.accommodations.Search(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}
	if results == nil {
		results = []model.Accommodation{}
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// Nearby handles GET /api/v1/accommodations/nearby
func (h *AccommodationHandler) Nearby(c *gin.Context) {
	place := strings.TrimSpace(c.Query("place"))
	if place == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: place is required"})
		return
	}

	var radiusKm float64
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid radius_km"})
			return
		}
		radiusKm = r
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = h.capLimit(n)
	}

	response, err := h.accommodations.Nearby(c.Request.Context(), place, radiusKm,
		optionalQuery(c, "type"), optionalQuery(c, "price_range"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Nearby search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AccommodationHandler) capLimit(n int) int {
	if n < 0 {
		return 0
	}
	if h.maxLimit > 0 && n > h.maxLimit {
		return h.maxLimit
	}
	return n
}

func optionalQuery(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}
