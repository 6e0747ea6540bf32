// Package instagram bridges Instagram DM conversations, which arrive through
// the ticketing backend's Instagram inbox, to the shared conversation logic.
package instagram

import (
	"context"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/utils"
)

// Sender posts bot replies into the ticketing conversation, which the
// ticketing backend relays to the Instagram user. Instagram does not render
// markdown, so replies are flattened to plain text first.
type Sender struct {
	ticketing *chatwoot.Client
	guard     *core.Guard
}

func NewSender(ticketing *chatwoot.Client, guard *core.Guard) *Sender {
	return &Sender{ticketing: ticketing, guard: guard}
}

func (s *Sender) Send(ctx context.Context, conversationID, text string) error {
	messageID, err := s.ticketing.CreateMessage(ctx, conversationID, utils.FlattenMarkdown(text), chatwoot.MessageOutgoing, false)
	if err != nil {
		return err
	}
	s.guard.MarkSent(messageID)
	return nil
}

func (s *Sender) SendMenu(ctx context.Context, conversationID string) error {
	return s.Send(ctx, conversationID, core.MainMenu())
}
