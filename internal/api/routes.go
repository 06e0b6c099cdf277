package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes. metricsHandler serves the
// Prometheus scrape endpoint and may be nil.
func SetupRoutes(router *gin.Engine, handler *Handler, metricsHandler http.Handler) {
	router.GET("/healthz", handler.HealthCheck)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := router.Group("/api/v1")
	{
		classifications := v1.Group("/classifications")
		{
			classifications.POST("/run", handler.RunClassification)         // POST /api/v1/classifications/run
			classifications.GET("/latest", handler.GetLatestClassification) // GET /api/v1/classifications/latest
		}

		v1.GET("/rules", handler.ListRules)           // GET /api/v1/rules
		v1.GET("/categories", handler.ListCategories) // GET /api/v1/categories

		reports := v1.Group("/reports")
		{
			reports.POST("/insights", handler.GenerateInsights) // POST /api/v1/reports/insights
		}
	}
}
