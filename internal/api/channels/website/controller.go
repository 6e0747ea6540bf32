package website

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/realtime"
	"github.com/rapteehv/support-bot/internal/types"
	"github.com/rapteehv/support-bot/internal/utils"
)

// Controller handles widget HTTP requests.
type Controller struct {
	service *Service
	hub     *realtime.Hub
}

func NewController(service *Service, hub *realtime.Hub) *Controller {
	return &Controller{service: service, hub: hub}
}

func badRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, types.ErrorResponse{
		Error:     "bad_request",
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

func internalError(ctx *gin.Context, msg string) {
	ctx.JSON(http.StatusInternalServerError, types.ErrorResponse{
		Error:     "internal_error",
		Message:   msg,
		Timestamp: time.Now().UTC(),
	})
}

// Init handles POST /api/chat/init
func (c *Controller) Init(ctx *gin.Context) {
	var req InitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, err := c.service.Init(ctx.Request.Context(), &req)
	if err != nil {
		utils.Zlog.Error("Widget init failed", zap.Error(err))
		internalError(ctx, "init failed")
		return
	}

	if rid, ok := requestID(ctx); ok {
		resp.RequestID = rid
	}
	ctx.JSON(http.StatusOK, resp)
}

// Message handles POST /api/chat/message. The visitor message is recorded
// synchronously; the bot reply happens in the background so the widget gets
// its ack immediately.
func (c *Controller) Message(ctx *gin.Context) {
	var req MessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.service.RecordUserMessage(ctx.Request.Context(), &req); err != nil {
		utils.Zlog.Error("Failed to record widget message",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err))
		internalError(ctx, "send failed")
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		c.service.Respond(bgCtx, req.ConversationID, req.Message)
	}()

	ctx.JSON(http.StatusOK, types.BaseResponse{Success: true})
}

// ContactUpdate handles POST /api/contact/update
func (c *Controller) ContactUpdate(ctx *gin.Context) {
	var req ContactUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.service.UpdateContact(ctx.Request.Context(), &req); err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, types.ErrorResponse{
				Error:     "session_not_found",
				Timestamp: time.Now().UTC(),
			})
			return
		}
		utils.Zlog.Error("Contact update failed", zap.Error(err))
		internalError(ctx, "update failed")
		return
	}

	ctx.JSON(http.StatusOK, types.BaseResponse{Success: true})
}

// SupportForm handles POST /api/support/request
func (c *Controller) SupportForm(ctx *gin.Context) {
	var req SupportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.service.CompleteSupportForm(ctx.Request.Context(), &req); err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, types.ErrorResponse{
				Error:     "session_not_found",
				Timestamp: time.Now().UTC(),
			})
			return
		}
		utils.Zlog.Error("Support form failed", zap.Error(err))
		internalError(ctx, "support request failed")
		return
	}

	ctx.JSON(http.StatusOK, types.BaseResponse{Success: true})
}

// Messages handles GET /api/chat/messages/:conversationId
func (c *Controller) Messages(ctx *gin.Context) {
	conversationID := ctx.Param("conversationId")

	messages, err := c.service.Messages(ctx.Request.Context(), conversationID)
	if err != nil {
		utils.Zlog.Error("Failed to fetch transcript",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		internalError(ctx, "fetch failed")
		return
	}

	resp := MessagesResponse{
		BaseResponse: types.BaseResponse{Success: true},
		Messages:     messages,
	}
	if rid, ok := requestID(ctx); ok {
		resp.RequestID = rid
	}
	ctx.JSON(http.StatusOK, resp)
}

// Webhook handles POST /webhooks/chatwoot: acknowledged immediately, pushed
// to widgets in the background.
func (c *Controller) Webhook(ctx *gin.Context) {
	var event chatwoot.WebhookEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		utils.Zlog.Warn("Failed to parse ticketing webhook payload", zap.Error(err))
		badRequest(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "received"})
	go c.service.ProcessWebhook(&event)
}

// Socket handles GET /ws, upgrading to the realtime connection.
func (c *Controller) Socket(ctx *gin.Context) {
	c.hub.HandleConnection(ctx.Writer, ctx.Request)
}

func requestID(ctx *gin.Context) (string, bool) {
	if idVal, exists := ctx.Get("request_id"); exists {
		if rid, ok := idVal.(string); ok {
			return rid, true
		}
	}
	return "", false
}
