package whatsapp

import (
	"context"

	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/utils"
)

// Sender delivers replies over the Meta gateway and mirrors every outgoing
// message into the ticketing transcript so agents see the full exchange.
// One sender is bound to one user phone number for the duration of a message.
type Sender struct {
	gateway        *Gateway
	ticketing      *chatwoot.Client
	guard          *core.Guard
	phone          string
	conversationID string
}

func NewSender(gateway *Gateway, ticketing *chatwoot.Client, guard *core.Guard, phone, conversationID string) *Sender {
	return &Sender{
		gateway:        gateway,
		ticketing:      ticketing,
		guard:          guard,
		phone:          phone,
		conversationID: conversationID,
	}
}

func (s *Sender) Send(ctx context.Context, _ string, text string) error {
	if err := s.gateway.SendText(ctx, s.phone, text); err != nil {
		return err
	}
	s.mirror(ctx, text)
	return nil
}

func (s *Sender) SendMenu(ctx context.Context, _ string) error {
	if err := s.gateway.SendListMenu(ctx, s.phone, "Welcome to RapteeHV! How can I help you today?"); err != nil {
		return err
	}
	s.mirror(ctx, "[Bot sent Main Menu]")
	return nil
}

// SendBookingFlow satisfies core.BookingFlowSender: a confirmed booking sends
// the in-chat flow form instead of a redirect link.
func (s *Sender) SendBookingFlow(ctx context.Context, _ string) error {
	if err := s.gateway.SendBookingFlow(ctx, s.phone); err != nil {
		return err
	}
	s.mirror(ctx, "[Bot sent Booking Flow]")
	return nil
}

// mirror copies an outgoing message into the ticketing transcript. Mirror
// failures are logged and swallowed; the user already got the reply.
func (s *Sender) mirror(ctx context.Context, text string) {
	messageID, err := s.ticketing.CreateMessage(ctx, s.conversationID, text, chatwoot.MessageOutgoing, false)
	if err != nil {
		utils.Zlog.Warn("Failed to mirror WhatsApp reply to ticketing",
			zap.String("conversation_id", s.conversationID),
			zap.Error(err))
		return
	}
	s.guard.MarkSent(messageID)
}
