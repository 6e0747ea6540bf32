package instagram

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/utils"
)

// Controller handles the ticketing webhook for the Instagram inbox.
type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// Webhook acknowledges the delivery immediately and processes the event in
// the background so ticketing retries are never triggered by slow answers.
// POST /webhooks/instagram
func (c *Controller) Webhook(ctx *gin.Context) {
	var event chatwoot.WebhookEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		utils.Zlog.Warn("Failed to parse Instagram webhook payload", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "received"})

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		c.service.ProcessEvent(bgCtx, &event)
	}()
}
