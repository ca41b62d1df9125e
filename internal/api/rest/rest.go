package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes. metrics may be nil.
func SetupRoutes(router *gin.Engine, handler Handler, metrics http.Handler) {
	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	api := router.Group("/api")
	{
		api.GET("/tokens", handler.ListTokens)
		api.GET("/tokens/:address", handler.GetToken)
		api.GET("/scans/latest", handler.LatestScanRun)
	}
}
