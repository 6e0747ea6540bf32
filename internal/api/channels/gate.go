// Package channels holds the webhook gating shared by the inbox-backed
// channel adapters.
package channels

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/utils"
)

// ConversationFetcher looks up live conversation detail, used to re-check
// status at processing time rather than trusting the webhook snapshot.
type ConversationFetcher interface {
	GetConversation(ctx context.Context, conversationID string) (*chatwoot.Conversation, error)
}

// GateResult is the outcome of evaluating a ticketing webhook event.
type GateResult struct {
	// Process is true when the event is an incoming user message the bot
	// should answer.
	Process        bool
	ConversationID string
	Content        string

	// StatusChanged carries a conversation status transition; the adapter
	// forwards it to the orchestrator.
	StatusChanged bool
	Status        string
}

// Evaluate applies the shared gating rules to a webhook event: only
// message_created events, only incoming public messages, only the channel's
// own inbox, and only while the conversation is still pending. Pending is
// checked against the live conversation, so an agent grabbing the
// conversation between delivery and processing silences the bot.
func Evaluate(ctx context.Context, fetcher ConversationFetcher, event *chatwoot.WebhookEvent, inboxID int) GateResult {
	if event.Event == "conversation_status_changed" {
		return GateResult{
			StatusChanged:  true,
			ConversationID: strconv.Itoa(event.ID),
			Status:         event.Status,
		}
	}

	if event.Event != "message_created" ||
		event.MessageType != chatwoot.MessageIncoming ||
		event.Private ||
		event.Inbox.ID != inboxID {
		return GateResult{}
	}

	conversationID := strconv.Itoa(event.Conversation.ID)
	if event.Conversation.ID == 0 || event.Content == "" {
		return GateResult{}
	}

	conversation, err := fetcher.GetConversation(ctx, conversationID)
	if err != nil {
		utils.Zlog.Error("Failed to fetch conversation for gating",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return GateResult{}
	}

	if conversation.Status != chatwoot.StatusPending {
		utils.Zlog.Debug("Skipping message, conversation not pending",
			zap.String("conversation_id", conversationID),
			zap.String("status", conversation.Status))
		return GateResult{}
	}

	return GateResult{
		Process:        true,
		ConversationID: conversationID,
		Content:        event.Content,
	}
}
