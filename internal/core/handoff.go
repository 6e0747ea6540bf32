package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/utils"
)

// HandoffCoordinator moves a conversation from the bot to a human agent:
// a visible notice, a private note with the reason, and a status flip to
// "open" so the pending-only gate silences the bot afterwards.
type HandoffCoordinator struct {
	ticketing Ticketing
	states    *StateStore
	guard     *Guard
}

func NewHandoffCoordinator(ticketing Ticketing, states *StateStore, guard *Guard) *HandoffCoordinator {
	return &HandoffCoordinator{ticketing: ticketing, states: states, guard: guard}
}

// Execute runs the handoff. The user-facing notice is sent first through the
// channel sender so channel formatting applies; the note and status change go
// straight to the ticketing backend. State is cleared even when a step fails
// partway, because a half-done handoff must still stop the bot.
func (h *HandoffCoordinator) Execute(ctx context.Context, sender Sender, conversationID, reason string) error {
	defer h.states.Clear(conversationID)

	if reason == "" {
		reason = "User requested human assistance"
	}

	notice := "I've forwarded your request to our customer support team. They will get back to you shortly to assist you further. Thank you for your patience!"
	if err := sender.Send(ctx, conversationID, notice); err != nil {
		utils.Zlog.Warn("Failed to send handoff notice",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}

	noteID, err := h.ticketing.CreateMessage(ctx, conversationID, "Bot handoff: "+reason, chatwoot.MessageOutgoing, true)
	if err != nil {
		return fmt.Errorf("failed to create handoff note: %w", err)
	}
	h.guard.MarkSent(noteID)

	if err := h.ticketing.ToggleStatus(ctx, conversationID, chatwoot.StatusOpen); err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}

	utils.Zlog.Info("Handoff completed",
		zap.String("conversation_id", conversationID),
		zap.String("reason", reason))
	return nil
}
