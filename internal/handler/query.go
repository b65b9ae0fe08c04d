package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"travelagent/internal/model"
	"travelagent/internal/service"

	"github.com/gin-gonic/gin"
)

// QueryService answers travel questions
type QueryService interface {
	Query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error)
	QueryStream(ctx context.Context, req *model.QueryRequest, callback service.QueryEventCallback) (*model.QueryResponse, error)
	ListModes() []model.ModeInfo
	ClearRouter()
}

// QueryHandler handles query-related HTTP requests
type QueryHandler struct {
	queryService QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// Query handles POST /api/v1/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.queryService.Query(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Query failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// QueryStream handles POST /api/v1/query/stream - SSE streaming query
func (h *QueryHandler) QueryStream(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"query": req.Query, "mode": req.Mode})
	flusher.Flush()

	response, err := h.queryService.QueryStream(c.Request.Context(), &req, func(event string, data any) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})

	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "result", response)
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// ListModes handles GET /api/v1/modes
func (h *QueryHandler) ListModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modes": h.queryService.ListModes()})
}

// ClearRouter handles POST /api/v1/router/clear
func (h *QueryHandler) ClearRouter(c *gin.Context) {
	h.queryService.ClearRouter()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Router cache cleared"})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	if service.IsRequestError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
