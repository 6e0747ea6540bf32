package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/utils"
)

// Service routes incoming Meta messages: interactive replies map onto the
// shared state machine, flow submissions confirm bookings, and free text
// either triggers a menu nudge or runs through the answering pipeline.
type Service struct {
	gateway      *Gateway
	ticketing    *chatwoot.Client
	orchestrator *core.Orchestrator
	guard        *core.Guard
	sessions     *core.SessionStore
	inboxID      int
}

func NewService(gateway *Gateway, ticketing *chatwoot.Client, orchestrator *core.Orchestrator, guard *core.Guard, sessions *core.SessionStore, inboxID int) *Service {
	return &Service{
		gateway:      gateway,
		ticketing:    ticketing,
		orchestrator: orchestrator,
		guard:        guard,
		sessions:     sessions,
		inboxID:      inboxID,
	}
}

// ProcessMessage handles one incoming message after the webhook ack.
func (s *Service) ProcessMessage(ctx context.Context, msg *IncomingMessage) {
	if !s.guard.ShouldProcessKey(msg.ID) {
		utils.Zlog.Debug("Dropping duplicate Meta delivery", zap.String("message_id", msg.ID))
		return
	}

	phone := msg.From
	conversationID, err := s.ensureConversation(ctx, phone)
	if err != nil {
		utils.Zlog.Error("Failed to sync WhatsApp conversation to ticketing",
			zap.String("phone", phone),
			zap.Error(err))
	}
	if conversationID != "" && !s.conversationPending(ctx, conversationID) {
		// an agent owns the conversation; keep the transcript complete but
		// send nothing back
		s.recordIncoming(ctx, conversationID, incomingText(msg))
		return
	}
	sender := NewSender(s.gateway, s.ticketing, s.guard, phone, conversationID)

	switch {
	case msg.Type == "text":
		s.processText(ctx, sender, conversationID, msg.Text.Body)
	case msg.Type == "interactive" && msg.Interactive.Type == "list_reply":
		s.processListReply(ctx, sender, conversationID, msg.Interactive.ListReply.ID, msg.Interactive.ListReply.Title)
	case msg.Type == "interactive" && msg.Interactive.Type == "nfm_reply":
		s.processBookingSubmission(ctx, sender, conversationID, phone, msg.Interactive.NfmReply.ResponseJSON)
	default:
		utils.Zlog.Debug("Ignoring unsupported WhatsApp message type",
			zap.String("type", msg.Type))
	}
}

func (s *Service) processText(ctx context.Context, sender *Sender, conversationID, body string) {
	s.recordIncoming(ctx, conversationID, body)

	// free-text shortcuts nudge the user to the interactive menu instead of
	// walking the numbered flow. Only from idle: mid-flow replies like
	// "where is the bangalore showroom" belong to the waiting state.
	if s.orchestrator.State(conversationID) == core.StateIdle {
		lower := strings.ToLower(body)
		if strings.Contains(lower, "book") || strings.Contains(lower, "ride") {
			s.sendMenuNudge(ctx, sender, "Great! Please select 'Book Test Ride' from the menu below.", "[Bot sent Menu for Booking]")
			return
		}
		if strings.Contains(lower, "showroom") || strings.Contains(lower, "location") || strings.Contains(lower, "where") {
			s.sendMenuNudge(ctx, sender, "You can find our locations in the menu below.", "[Bot sent Menu for Showroom]")
			return
		}
	}

	if err := s.orchestrator.HandleMessage(ctx, sender, conversationID, body); err != nil {
		utils.Zlog.Error("Failed to process WhatsApp message",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}
}

func (s *Service) processListReply(ctx context.Context, sender *Sender, conversationID, choiceID, choiceTitle string) {
	s.recordIncoming(ctx, conversationID, choiceTitle)

	var err error
	switch choiceID {
	case "menu_book":
		err = s.orchestrator.HandleMessage(ctx, sender, conversationID, "1")
	case "menu_showroom":
		err = s.orchestrator.HandleMessage(ctx, sender, conversationID, "2")
	case "menu_t30":
		err = s.orchestrator.HandleMessage(ctx, sender, conversationID, "3")
	case "menu_agent":
		err = s.orchestrator.RequestSupport(ctx, sender, conversationID)
	default:
		utils.Zlog.Warn("Unknown list choice", zap.String("choice_id", choiceID))
	}
	if err != nil {
		utils.Zlog.Error("Failed to process list reply",
			zap.String("conversation_id", conversationID),
			zap.String("choice_id", choiceID),
			zap.Error(err))
	}
}

func (s *Service) processBookingSubmission(ctx context.Context, sender *Sender, conversationID, phone, responseJSON string) {
	var submission BookingSubmission
	if err := json.Unmarshal([]byte(responseJSON), &submission); err != nil {
		utils.Zlog.Error("Failed to parse booking flow submission",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return
	}

	if submission.Name == "" {
		submission.Name = "Guest"
	}
	if submission.Phone == "" {
		submission.Phone = phone
	}
	if submission.Email == "" {
		submission.Email = "N/A"
	}

	bookingID := fmt.Sprintf("TR-%d", 10000+rand.IntN(90000))

	confirmation := fmt.Sprintf(`✅ *Booking Confirmed!*

🆔 *ID:* %s
👤 *Name:* %s
📧 *Email:* %s
📱 *Phone:* %s
📍 *City:* %s
📅 *Date:* %s
⏰ *Time:* %s

Thank you! Our team will contact you shortly to confirm the slot.`,
		bookingID, submission.Name, submission.Email, submission.Phone,
		submission.City, submission.Date, submission.Time)

	// agents see the raw details as an incoming message, then the confirmation
	agentView := fmt.Sprintf("📝 *Test Ride Booking:*\nName: %s\nPhone: %s\nEmail: %s\nCity: %s\nDate: %s\nTime: %s",
		submission.Name, submission.Phone, submission.Email, submission.City, submission.Date, submission.Time)
	s.recordIncoming(ctx, conversationID, agentView)

	if err := sender.Send(ctx, conversationID, confirmation); err != nil {
		utils.Zlog.Error("Failed to send booking confirmation",
			zap.String("conversation_id", conversationID),
			zap.String("booking_id", bookingID),
			zap.Error(err))
		return
	}

	utils.Zlog.Info("Booking confirmed",
		zap.String("conversation_id", conversationID),
		zap.String("booking_id", bookingID))
}

// conversationPending reports whether the bot still owns the conversation.
// A fetch failure counts as not owned, so the bot never talks over an agent
// it cannot see.
func (s *Service) conversationPending(ctx context.Context, conversationID string) bool {
	conversation, err := s.ticketing.GetConversation(ctx, conversationID)
	if err != nil {
		utils.Zlog.Error("Failed to fetch conversation status",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return false
	}
	if conversation.Status != chatwoot.StatusPending {
		utils.Zlog.Debug("Skipping WhatsApp message, conversation not pending",
			zap.String("conversation_id", conversationID),
			zap.String("status", conversation.Status))
		return false
	}
	return true
}

// incomingText is the transcript-worthy content of a message, if any.
func incomingText(msg *IncomingMessage) string {
	switch {
	case msg.Type == "text":
		return msg.Text.Body
	case msg.Type == "interactive" && msg.Interactive.Type == "list_reply":
		return msg.Interactive.ListReply.Title
	}
	return ""
}

// sendMenuNudge shows the list menu with custom lead-in copy.
func (s *Service) sendMenuNudge(ctx context.Context, sender *Sender, bodyText, mirrorText string) {
	if err := s.gateway.SendListMenu(ctx, sender.phone, bodyText); err != nil {
		utils.Zlog.Error("Failed to send menu nudge", zap.Error(err))
		return
	}
	sender.mirror(ctx, mirrorText)
}

// ensureConversation resolves a phone number to its ticketing conversation.
// The mapping lives in the session cache; on a miss the contact and
// conversation are created and cached for the session lifetime.
func (s *Service) ensureConversation(ctx context.Context, phone string) (string, error) {
	sessionKey := "wa:" + phone
	if sess, ok := s.sessions.Get(sessionKey); ok {
		return sess.ConversationID, nil
	}

	contactID, found, err := s.ticketing.SearchContactByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if !found {
		contactID, err = s.ticketing.CreateContact(ctx, "WhatsApp User", "", "+"+phone, "")
		if err != nil {
			return "", err
		}
	}

	conversationID, err := s.ticketing.CreateConversation(ctx, phone, s.inboxID, contactID)
	if err != nil {
		return "", err
	}

	id := strconv.Itoa(conversationID)
	if err := s.sessions.Put(sessionKey, core.Session{
		ContactID:      contactID,
		ConversationID: id,
		CreatedAt:      time.Now(),
	}); err != nil {
		utils.Zlog.Warn("Failed to cache WhatsApp session",
			zap.String("phone", phone),
			zap.Error(err))
	}
	return id, nil
}

func (s *Service) recordIncoming(ctx context.Context, conversationID, content string) {
	if conversationID == "" || content == "" {
		return
	}
	if _, err := s.ticketing.CreateMessage(ctx, conversationID, content, chatwoot.MessageIncoming, false); err != nil {
		utils.Zlog.Warn("Failed to record incoming WhatsApp message",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}
}
