package handler

import (
	"context"
	"net/http"
	"strings"

	"travelagent/internal/model"

	"github.com/gin-gonic/gin"
)

// PlaceRetriever ranks catalog places for a query
type PlaceRetriever interface {
	Retrieve(ctx context.Context, req *model.RetrieveRequest) (*model.RetrieveResponse, error)
}

// PlaceIngester adds and removes catalog places
type PlaceIngester interface {
	Add(ctx context.Context, in model.PlaceInput) (int64, error)
	Delete(ctx context.Context, name string) (int64, error)
	Clear(ctx context.Context) (int64, error)
}

// PlaceHandler handles place catalog HTTP requests
type PlaceHandler struct {
	retriever PlaceRetriever
	ingester  PlaceIngester
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(retriever PlaceRetriever, ingester PlaceIngester) *PlaceHandler {
	return &PlaceHandler{
		retriever: retriever,
		ingester:  ingester,
	}
}

// Search handles POST /api/v1/places/search
func (h *PlaceHandler) Search(c *gin.Context) {
	var req model.RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.TopK < 0 {
		req.TopK = 0
	}

	response, err := h.retriever.Retrieve(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Add handles POST /api/v1/places
func (h *PlaceHandler) Add(c *gin.Context) {
	var req model.PlaceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Place name is required"})
		return
	}

	id, err := h.ingester.Add(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add place: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, model.PlaceIngestResponse{
		ID:      id,
		Message: "Place added successfully",
	})
}

// Delete handles DELETE /api/v1/places/:name
func (h *PlaceHandler) Delete(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Place name is required"})
		return
	}

	deleted, err := h.ingester.Delete(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete place: " + err.Error()})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// Clear handles DELETE /api/v1/places
func (h *PlaceHandler) Clear(c *gin.Context) {
	deleted, err := h.ingester.Clear(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear places: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
