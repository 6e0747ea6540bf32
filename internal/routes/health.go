package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/controllers"
	"github.com/rapteehv/support-bot/internal/core"
)

// SetupHealthRoutes configures health check endpoints
func SetupHealthRoutes(router *gin.Engine, ticketing *chatwoot.Client, states *core.StateStore) {
	healthController := controllers.NewHealthController(ticketing, states)

	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	router.GET("/health", healthController.HealthCheck)
	router.GET("/health/live", healthController.Liveness)
	router.GET("/health/ready", healthController.Readiness)
}
