package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the travel API under /api/v1
func RegisterRoutes(router *gin.Engine, queries *QueryHandler, places *PlaceHandler, accommodations *AccommodationHandler) {
	apiV1 := router.Group("/api/v1")
	{
		// Query endpoints
		apiV1.POST("/query", queries.Query)
		apiV1.POST("/query/stream", queries.QueryStream) // Streaming query
		apiV1.GET("/modes", queries.ListModes)
		apiV1.POST("/router/clear", queries.ClearRouter)

		// Place catalog endpoints
		apiV1.POST("/places/search", places.Search)
		apiV1.POST("/places", places.Add)
		apiV1.DELETE("/places/:name", places.Delete)
		apiV1.DELETE("/places", places.Clear)

		// Accommodation endpoints
		apiV1.POST("/accommodations/search", accommodations.Search)
		apiV1.GET("/accommodations/nearby", accommodations.Nearby)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
