// Package website serves the chat widget API: session bootstrap, visitor
// messages, transcript retrieval, the support form, and the ticketing
// webhook that pushes agent replies to connected widgets.
package website

import (
	"context"
	"time"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/realtime"
)

// Sender posts bot replies into the ticketing conversation and pushes them
// to connected widget clients over the realtime hub.
type Sender struct {
	ticketing *chatwoot.Client
	guard     *core.Guard
	hub       *realtime.Hub
}

func NewSender(ticketing *chatwoot.Client, guard *core.Guard, hub *realtime.Hub) *Sender {
	return &Sender{ticketing: ticketing, guard: guard, hub: hub}
}

func (s *Sender) Send(ctx context.Context, conversationID, text string) error {
	messageID, err := s.ticketing.CreateMessage(ctx, conversationID, text, chatwoot.MessageOutgoing, false)
	if err != nil {
		return err
	}
	s.guard.MarkSent(messageID)

	s.hub.Emit(conversationID, "new_message", map[string]interface{}{
		"id":        messageID,
		"type":      "bot",
		"content":   text,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	s.hub.EmitTyping(conversationID, false)
	return nil
}

func (s *Sender) SendMenu(ctx context.Context, conversationID string) error {
	return s.Send(ctx, conversationID, core.MainMenu())
}
