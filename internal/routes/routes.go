package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapteehv/support-bot/internal/api/channels/instagram"
	"github.com/rapteehv/support-bot/internal/api/channels/website"
	"github.com/rapteehv/support-bot/internal/api/channels/whatsapp"
	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/config"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/middleware"
	"github.com/rapteehv/support-bot/internal/realtime"
)

// Dependencies carries the shared infrastructure every channel plugs into.
type Dependencies struct {
	Cfg       *config.Config
	Ticketing *chatwoot.Client
	States    *core.StateStore
	Guard     *core.Guard
	Sessions  *core.SessionStore
	Hub       *realtime.Hub

	// Per-channel answering pipelines; the DM channels use marker-based
	// intent detection, the widget uses conversation-aware JSON replies.
	WebsiteResponder   core.Responder
	InstagramResponder core.Responder
	WhatsAppResponder  core.Responder
}

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, deps *Dependencies) {
	// Apply global middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// Setup route groups
	SetupHealthRoutes(router, deps.Ticketing, deps.States)
	website.RegisterRoutes(router, deps.Cfg, deps.Ticketing, deps.States, deps.Guard, deps.Sessions, deps.Hub, deps.WebsiteResponder)
	instagram.RegisterRoutes(router, deps.Cfg, deps.Ticketing, deps.States, deps.Guard, deps.InstagramResponder)
	whatsapp.RegisterRoutes(router, deps.Cfg, deps.Ticketing, deps.States, deps.Guard, deps.Sessions, deps.WhatsAppResponder)
	Setup404Handler(router)
}

// Setup404Handler configures the 404 handler
func Setup404Handler(router *gin.Engine) {
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "The requested resource was not found",
			"path":    c.Request.URL.Path,
		})
	})
}
