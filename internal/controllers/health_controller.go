package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/utils"
)

type HealthController struct {
	ticketing *chatwoot.Client
	states    *core.StateStore
}

func NewHealthController(ticketing *chatwoot.Client, states *core.StateStore) *HealthController {
	return &HealthController{ticketing: ticketing, states: states}
}

// HealthCheck reports service status and which channels are wired.
func (h *HealthController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"channels":             []string{"website", "instagram", "whatsapp"},
		"active_conversations": h.states.Count(),
		"timestamp":            time.Now().UTC(),
	})
}

// Liveness is the bare process probe.
func (h *HealthController) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// Readiness verifies the ticketing backend is reachable; the bot cannot do
// useful work without it.
func (h *HealthController) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.ticketing.Ping(ctx); err != nil {
		utils.Zlog.Error("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not ready",
			"ticketing": "down",
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"ticketing": "up",
		"timestamp": time.Now().UTC(),
	})
}
