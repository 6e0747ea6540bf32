package whatsapp

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/config"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/utils"
)

// RegisterRoutes wires the Meta webhook endpoints.
func RegisterRoutes(router *gin.Engine, cfg *config.Config, ticketing *chatwoot.Client, states *core.StateStore, guard *core.Guard, sessions *core.SessionStore, responder core.Responder) {
	gateway := NewGateway(cfg.MetaPhoneNumberID, cfg.MetaAccessToken)
	handoff := core.NewHandoffCoordinator(ticketing, states, guard)
	orchestrator := core.NewOrchestrator(core.WhatsAppPolicy(), states, responder, handoff)
	orchestrator.UseStatusGate(ticketing)
	service := NewService(gateway, ticketing, orchestrator, guard, sessions, cfg.WhatsAppInboxID)
	ctrl := NewController(service, cfg.MetaVerifyToken)

	// Meta sends GET for verification, POST for messages
	router.GET("/webhooks/meta", ctrl.VerifyWebhook)
	router.POST("/webhooks/meta", ctrl.Webhook)

	utils.Zlog.Info("WhatsApp routes registered",
		zap.String("verify_endpoint", "/webhooks/meta [GET]"),
		zap.String("webhook_endpoint", "/webhooks/meta [POST]"))
}
