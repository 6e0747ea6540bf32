package instagram

import (
	"context"

	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/api/channels"
	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/utils"
)

// Service processes gated webhook events for the Instagram inbox.
type Service struct {
	ticketing    *chatwoot.Client
	orchestrator *core.Orchestrator
	sender       *Sender
	guard        *core.Guard
	inboxID      int
}

func NewService(ticketing *chatwoot.Client, orchestrator *core.Orchestrator, sender *Sender, guard *core.Guard, inboxID int) *Service {
	return &Service{
		ticketing:    ticketing,
		orchestrator: orchestrator,
		sender:       sender,
		guard:        guard,
		inboxID:      inboxID,
	}
}

// ProcessEvent runs one webhook event through the gate and, if it survives,
// through the state machine. Called from a background goroutine after the
// webhook has already been acknowledged.
func (s *Service) ProcessEvent(ctx context.Context, event *chatwoot.WebhookEvent) {
	result := channels.Evaluate(ctx, s.ticketing, event, s.inboxID)

	if result.StatusChanged {
		s.orchestrator.HandleStatusChange(result.ConversationID, result.Status)
		return
	}
	if !result.Process {
		return
	}

	// event.ID is the message id on message_created events
	if !s.guard.ShouldProcess(event.ID) {
		utils.Zlog.Debug("Dropping duplicate webhook delivery",
			zap.Int("message_id", event.ID))
		return
	}

	if err := s.orchestrator.HandleMessage(ctx, s.sender, result.ConversationID, result.Content); err != nil {
		utils.Zlog.Error("Failed to process Instagram message",
			zap.String("conversation_id", result.ConversationID),
			zap.Error(err))
	}
}
