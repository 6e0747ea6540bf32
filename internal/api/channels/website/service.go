package website

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/realtime"
	"github.com/rapteehv/support-bot/internal/types"
	"github.com/rapteehv/support-bot/internal/utils"
)

// Service implements the widget flows on top of the ticketing backend.
type Service struct {
	ticketing    *chatwoot.Client
	sessions     *core.SessionStore
	orchestrator *core.Orchestrator
	sender       *Sender
	guard        *core.Guard
	hub          *realtime.Hub
	inboxID      int
}

func NewService(ticketing *chatwoot.Client, sessions *core.SessionStore, orchestrator *core.Orchestrator, sender *Sender, guard *core.Guard, hub *realtime.Hub, inboxID int) *Service {
	return &Service{
		ticketing:    ticketing,
		sessions:     sessions,
		orchestrator: orchestrator,
		sender:       sender,
		guard:        guard,
		hub:          hub,
		inboxID:      inboxID,
	}
}

// Init resumes a still-valid session or provisions a new contact and
// conversation in the ticketing backend.
func (s *Service) Init(ctx context.Context, req *InitRequest) (*InitResponse, error) {
	if req.VisitorID != "" {
		if sess, ok := s.sessions.Get(req.VisitorID); ok {
			return &InitResponse{
				BaseResponse:   types.BaseResponse{Success: true},
				SessionID:      req.VisitorID,
				ContactID:      sess.ContactID,
				ConversationID: sess.ConversationID,
			}, nil
		}
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = "visitor_" + uuid.NewString()
	}

	name := req.Name
	if name == "" {
		name = "Website Visitor"
	}
	email := req.Email
	if email == "" {
		email = visitorID + "@raptee.guest"
	}

	contactID, err := s.ticketing.CreateContact(ctx, name, email, "", visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	conversationID, err := s.ticketing.CreateConversation(ctx, visitorID, s.inboxID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	conversation := strconv.Itoa(conversationID)
	if err := s.sessions.Put(visitorID, core.Session{
		ContactID:      contactID,
		ConversationID: conversation,
		CreatedAt:      time.Now(),
	}); err != nil {
		return nil, err
	}

	utils.Zlog.Info("New widget session",
		zap.String("session_id", visitorID),
		zap.Int("contact_id", contactID),
		zap.String("conversation_id", conversation))

	return &InitResponse{
		BaseResponse:   types.BaseResponse{Success: true},
		SessionID:      visitorID,
		ContactID:      contactID,
		ConversationID: conversation,
	}, nil
}

// RecordUserMessage writes the visitor message into the transcript. The bot
// reply runs separately in the background.
func (s *Service) RecordUserMessage(ctx context.Context, req *MessageRequest) error {
	_, err := s.ticketing.CreateMessage(ctx, req.ConversationID, req.Message, chatwoot.MessageIncoming, false)
	if err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}
	return nil
}

// Respond answers a visitor message if the conversation is still owned by
// the bot.
func (s *Service) Respond(ctx context.Context, conversationID, message string) {
	conversation, err := s.ticketing.GetConversation(ctx, conversationID)
	if err != nil {
		utils.Zlog.Error("Failed to fetch conversation before answering",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return
	}
	if conversation.Status != chatwoot.StatusPending {
		utils.Zlog.Debug("Skipping widget message, conversation not pending",
			zap.String("conversation_id", conversationID),
			zap.String("status", conversation.Status))
		return
	}

	s.hub.EmitTyping(conversationID, true)
	defer s.hub.EmitTyping(conversationID, false)

	if err := s.orchestrator.HandleMessage(ctx, s.sender, conversationID, message); err != nil {
		utils.Zlog.Error("Failed to process widget message",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}
}

// UpdateContact replaces the placeholder identity with the visitor's real
// details and leaves a private note for agents.
func (s *Service) UpdateContact(ctx context.Context, req *ContactUpdateRequest) error {
	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		return core.ErrSessionNotFound
	}

	if err := s.ticketing.UpdateContact(ctx, sess.ContactID, req.Name, req.Email, req.Phone); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	note := fmt.Sprintf("🚨 TICKET RAISED\nName: %s\nPhone: %s\nEmail: %s", req.Name, req.Phone, req.Email)
	noteID, err := s.ticketing.CreateMessage(ctx, sess.ConversationID, note, chatwoot.MessageOutgoing, true)
	if err != nil {
		return fmt.Errorf("failed to create contact note: %w", err)
	}
	s.guard.MarkSent(noteID)

	utils.Zlog.Info("Contact updated", zap.Int("contact_id", sess.ContactID))
	return nil
}

// CompleteSupportForm finishes the form-based support flow: store the
// contact details, then hand the conversation to an agent.
func (s *Service) CompleteSupportForm(ctx context.Context, req *SupportRequest) error {
	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		return core.ErrSessionNotFound
	}

	if err := s.ticketing.UpdateContact(ctx, sess.ContactID, req.Name, req.Email, req.Phone); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	reason := fmt.Sprintf("Support form submitted. Name: %s, Phone: %s, Email: %s", req.Name, req.Phone, req.Email)
	if req.Issue != "" {
		reason += ". Issue: " + req.Issue
	}
	return s.orchestrator.CompleteSupportForm(ctx, s.sender, sess.ConversationID, reason)
}

// systemMessagePatterns filters ticketing automation noise out of the widget
// transcript.
var systemMessagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Automation System`),
	regexp.MustCompile(`(?i)^Assigned to .* by`),
	regexp.MustCompile(`(?i)^Unassigned from .* by`),
	regexp.MustCompile(`(?i)changed the priority`),
	regexp.MustCompile(`(?i)removed the priority`),
	regexp.MustCompile(`(?i)added .* label`),
	regexp.MustCompile(`(?i)removed .* label`),
	regexp.MustCompile(`(?i)added booking`),
	regexp.MustCompile(`(?i)removed booking`),
	regexp.MustCompile(`(?i)added service`),
	regexp.MustCompile(`(?i)removed service`),
}

func isSystemMessage(content string) bool {
	if content == "" {
		return true
	}
	for _, pattern := range systemMessagePatterns {
		if pattern.MatchString(content) {
			return true
		}
	}
	return false
}

// Messages returns the transcript with activity and automation messages
// stripped.
func (s *Service) Messages(ctx context.Context, conversationID string) ([]types.ChatMessage, error) {
	raw, err := s.ticketing.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	messages := make([]types.ChatMessage, 0, len(raw))
	for _, msg := range raw {
		if msg.MessageType == 2 || isSystemMessage(msg.Content) {
			continue
		}
		kind := "user"
		if msg.MessageType == 1 {
			kind = "bot"
		}
		messages = append(messages, types.ChatMessage{
			ID:        msg.ID,
			Content:   msg.Content,
			Sender:    msg.Sender.Name,
			Type:      kind,
			Timestamp: msg.CreatedAt,
		})
	}
	return messages, nil
}

// ProcessWebhook pushes outgoing ticketing messages to connected widgets.
// Messages the bot created through the API were already pushed on send, so
// their webhook echoes are dropped; everything else is agent activity.
func (s *Service) ProcessWebhook(event *chatwoot.WebhookEvent) {
	if event.Event == "conversation_status_changed" {
		s.orchestrator.HandleStatusChange(strconv.Itoa(event.ID), event.Status)
		return
	}

	if event.Event != "message_created" || event.MessageType != chatwoot.MessageOutgoing || event.Private {
		return
	}
	if s.guard.WasSentByBot(event.ID) {
		return
	}
	s.guard.MarkSent(event.ID)

	conversationID := strconv.Itoa(event.Conversation.ID)
	s.hub.Emit(conversationID, "new_message", map[string]interface{}{
		"id":        event.ID,
		"type":      "bot",
		"content":   event.Content,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	s.hub.EmitTyping(conversationID, false)
}

// HistoryProvider adapts the ticketing transcript into model history turns.
type HistoryProvider struct {
	ticketing *chatwoot.Client
}

func NewHistoryProvider(ticketing *chatwoot.Client) *HistoryProvider {
	return &HistoryProvider{ticketing: ticketing}
}

// RecentHistory returns the last limit public messages, oldest first.
func (h *HistoryProvider) RecentHistory(ctx context.Context, conversationID string, limit int) ([]*schema.Message, error) {
	raw, err := h.ticketing.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	filtered := make([]chatwoot.Message, 0, len(raw))
	for _, msg := range raw {
		if msg.MessageType == 2 || msg.Private || msg.Content == "" {
			continue
		}
		filtered = append(filtered, msg)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt < filtered[j].CreatedAt
	})
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	turns := make([]*schema.Message, 0, len(filtered))
	for _, msg := range filtered {
		if msg.MessageType == 0 {
			turns = append(turns, schema.UserMessage(msg.Content))
		} else {
			turns = append(turns, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return turns, nil
}
