package website

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/config"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/realtime"
	"github.com/rapteehv/support-bot/internal/utils"
)

// RegisterRoutes wires the widget API, the ticketing webhook, and the
// websocket endpoint.
func RegisterRoutes(router *gin.Engine, cfg *config.Config, ticketing *chatwoot.Client, states *core.StateStore, guard *core.Guard, sessions *core.SessionStore, hub *realtime.Hub, responder core.Responder) {
	sender := NewSender(ticketing, guard, hub)
	handoff := core.NewHandoffCoordinator(ticketing, states, guard)
	orchestrator := core.NewOrchestrator(core.WebsitePolicy(cfg.WhatsAppRedirectNumber), states, responder, handoff)
	orchestrator.UseStatusGate(ticketing)
	service := NewService(ticketing, sessions, orchestrator, sender, guard, hub, cfg.WebsiteInboxID)
	ctrl := NewController(service, hub)

	api := router.Group("/api")
	{
		api.POST("/chat/init", ctrl.Init)
		api.POST("/chat/message", ctrl.Message)
		api.GET("/chat/messages/:conversationId", ctrl.Messages)
		api.POST("/contact/update", ctrl.ContactUpdate)
		api.POST("/support/request", ctrl.SupportForm)
	}

	router.POST("/webhooks/chatwoot", ctrl.Webhook)
	router.GET("/ws", ctrl.Socket)

	utils.Zlog.Info("Website routes registered",
		zap.String("api_prefix", "/api"),
		zap.String("webhook_endpoint", "/webhooks/chatwoot [POST]"),
		zap.String("socket_endpoint", "/ws [GET]"),
		zap.Int("inbox_id", cfg.WebsiteInboxID))
}
