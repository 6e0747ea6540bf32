package whatsapp

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/utils"
)

// Controller handles the Meta webhook endpoints.
type Controller struct {
	service     *Service
	verifyToken string
}

func NewController(service *Service, verifyToken string) *Controller {
	return &Controller{service: service, verifyToken: verifyToken}
}

// VerifyWebhook answers Meta's subscription handshake.
// GET /webhooks/meta
func (c *Controller) VerifyWebhook(ctx *gin.Context) {
	mode := ctx.Query("hub.mode")
	token := ctx.Query("hub.verify_token")
	challenge := ctx.Query("hub.challenge")

	if mode == "subscribe" && token == c.verifyToken {
		utils.Zlog.Info("Meta webhook verified")
		ctx.String(http.StatusOK, challenge)
		return
	}
	ctx.Status(http.StatusForbidden)
}

// Webhook acknowledges immediately and processes the message in the
// background; Meta retries deliveries that are not answered fast.
// POST /webhooks/meta
func (c *Controller) Webhook(ctx *gin.Context) {
	var payload WebhookPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		utils.Zlog.Warn("Failed to parse Meta webhook payload", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "received"})

	msg := payload.FirstMessage()
	if msg == nil {
		return
	}

	utils.Zlog.Info("Received WhatsApp message",
		zap.String("from", msg.From),
		zap.String("type", msg.Type),
		zap.String("message_id", msg.ID))

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		c.service.ProcessMessage(bgCtx, msg)
	}()
}
