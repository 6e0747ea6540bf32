package instagram

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/config"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/utils"
)

// RegisterRoutes wires the Instagram webhook endpoint.
func RegisterRoutes(router *gin.Engine, cfg *config.Config, ticketing *chatwoot.Client, states *core.StateStore, guard *core.Guard, responder core.Responder) {
	sender := NewSender(ticketing, guard)
	handoff := core.NewHandoffCoordinator(ticketing, states, guard)
	orchestrator := core.NewOrchestrator(core.InstagramPolicy(cfg.WhatsAppRedirectNumber), states, responder, handoff)
	orchestrator.UseStatusGate(ticketing)
	service := NewService(ticketing, orchestrator, sender, guard, cfg.InstagramInboxID)
	ctrl := NewController(service)

	router.POST("/webhooks/instagram", ctrl.Webhook)

	utils.Zlog.Info("Instagram routes registered",
		zap.String("webhook_endpoint", "/webhooks/instagram [POST]"),
		zap.Int("inbox_id", cfg.InstagramInboxID))
}
