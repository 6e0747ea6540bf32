package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/utils"
)

// BookingFlowSender is implemented by channels that can collect booking
// details natively instead of redirecting to another channel.
type BookingFlowSender interface {
	SendBookingFlow(ctx context.Context, conversationID string) error
}

// ConversationFetcher looks up live conversation detail so ownership can be
// re-checked while the conversation lock is held.
type ConversationFetcher interface {
	GetConversation(ctx context.Context, conversationID string) (*chatwoot.Conversation, error)
}

const (
	bookingConfirmPrompt = "Would you like to book a test ride for the Raptee T30?\n\nPlease reply with 'yes' to continue or 'no' to cancel."
	t30ConfirmPrompt     = "Would you like to proceed with booking the Raptee T30?\n\nPlease reply with 'yes' to continue or 'no' to cancel."
	yesNoReprompt        = "Please reply with 'yes' to proceed with booking or 'no' to cancel."
	declineReply         = "No problem. Is there anything else I can help you with?\n\nType 'menu' to see all available options."
	supportConfirmPrompt = "Would you like me to connect you with our customer support to assist you better?\n\nPlease reply with 'yes' or 'no'."
	supportReprompt      = "Please reply with 'yes' to connect with our customer support team or 'no' to continue chatting with me."
	supportFormPrompt    = "Please share your name, email and phone number using the contact form so our support team can reach you, or reply 'no' to continue chatting with me."
)

// Orchestrator runs the shared conversation state machine for one channel.
// All transitions for a conversation are serialized through a keyed mutex so
// concurrent webhook deliveries cannot interleave.
type Orchestrator struct {
	policy    ChannelPolicy
	states    *StateStore
	responder Responder
	handoff   *HandoffCoordinator
	locks     *keyedMutex
	gate      ConversationFetcher
}

func NewOrchestrator(policy ChannelPolicy, states *StateStore, responder Responder, handoff *HandoffCoordinator) *Orchestrator {
	return &Orchestrator{
		policy:    policy,
		states:    states,
		responder: responder,
		handoff:   handoff,
		locks:     newKeyedMutex(),
	}
}

// UseStatusGate re-checks conversation ownership against the live ticketing
// status once the conversation lock is held. Without it, a handoff completing
// between the webhook gate and lock acquisition could let one more bot reply
// slip out.
func (o *Orchestrator) UseStatusGate(fetcher ConversationFetcher) {
	o.gate = fetcher
}

// State reports where the conversation currently sits in the machine.
func (o *Orchestrator) State(conversationID string) State {
	return o.states.Get(conversationID).State
}

func (o *Orchestrator) ownsConversation(ctx context.Context, conversationID string) bool {
	if o.gate == nil || conversationID == "" {
		return true
	}
	conversation, err := o.gate.GetConversation(ctx, conversationID)
	if err != nil {
		utils.Zlog.Warn("Failed to re-check conversation status, staying silent",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return false
	}
	return conversation.Status == chatwoot.StatusPending
}

// HandleMessage processes one incoming user message and sends whatever
// replies the state machine calls for.
func (o *Orchestrator) HandleMessage(ctx context.Context, sender Sender, conversationID, content string) error {
	unlock := o.locks.Lock(conversationID)
	defer unlock()

	if !o.ownsConversation(ctx, conversationID) {
		return nil
	}

	normalized := strings.ToLower(strings.TrimSpace(content))
	current := o.states.Get(conversationID)

	// Global override: the menu keywords reset any flow from any state.
	switch normalized {
	case "menu", "start", "hi", "hello":
		o.states.Update(conversationID, ConversationState{State: StateIdle})
		return sender.SendMenu(ctx, conversationID)
	}

	switch current.State {
	case StateAwaitingBookingConfirm:
		return o.handleBookingConfirm(ctx, sender, conversationID, normalized, "test_ride")
	case StateAwaitingT30Confirm:
		return o.handleBookingConfirm(ctx, sender, conversationID, normalized, "t30")
	case StateAwaitingShowroomCity:
		return o.handleShowroomCity(ctx, sender, conversationID, normalized)
	case StateAwaitingSupportConfirm:
		return o.handleSupportConfirm(ctx, sender, conversationID, normalized, current.SupportReason)
	case StateAwaitingSupportForm:
		return o.handleSupportFormState(ctx, sender, conversationID, normalized)
	case StateHandedOff:
		// The pending-only gate should keep these from arriving at all.
		return nil
	}

	// Menu selections only apply from idle.
	switch normalized {
	case "1":
		o.states.Update(conversationID, ConversationState{State: StateAwaitingBookingConfirm})
		return sender.Send(ctx, conversationID, bookingConfirmPrompt)
	case "2":
		o.states.Update(conversationID, ConversationState{State: StateAwaitingShowroomCity})
		return sender.Send(ctx, conversationID, o.policy.ShowroomCityMenu())
	case "3":
		o.states.Update(conversationID, ConversationState{State: StateAwaitingT30Confirm})
		return sender.Send(ctx, conversationID, t30ConfirmPrompt)
	}

	return o.answerQuery(ctx, sender, conversationID, content)
}

func (o *Orchestrator) handleBookingConfirm(ctx context.Context, sender Sender, conversationID, normalized, kind string) error {
	switch normalized {
	case "yes", "y":
		o.states.Update(conversationID, ConversationState{State: StateIdle})
		if flow, ok := sender.(BookingFlowSender); ok {
			return flow.SendBookingFlow(ctx, conversationID)
		}
		return sender.Send(ctx, conversationID, o.policy.BookingRedirect(kind))
	case "no", "n":
		o.states.Update(conversationID, ConversationState{State: StateIdle})
		return sender.Send(ctx, conversationID, declineReply)
	default:
		return sender.Send(ctx, conversationID, yesNoReprompt)
	}
}

func (o *Orchestrator) handleShowroomCity(ctx context.Context, sender Sender, conversationID, normalized string) error {
	if key, ok := o.policy.MatchShowroom(normalized); ok {
		o.states.Update(conversationID, ConversationState{State: StateIdle, Showroom: key})
		return sender.Send(ctx, conversationID, o.policy.ShowroomDetails(key))
	}
	return sender.Send(ctx, conversationID, o.invalidCityReply())
}

func (o *Orchestrator) invalidCityReply() string {
	options := make([]string, 0, len(o.policy.ShowroomOrder))
	for i, key := range o.policy.ShowroomOrder {
		options = append(options, fmt.Sprintf("%d for %s", i+1, titleCase(key)))
	}
	return fmt.Sprintf("Please select a valid option (%s).", strings.Join(options, " or "))
}

func (o *Orchestrator) handleSupportConfirm(ctx context.Context, sender Sender, conversationID, normalized, reason string) error {
	switch normalized {
	case "yes", "y":
		return o.handoff.Execute(ctx, sender, conversationID, reason)
	case "no", "n":
		o.states.Update(conversationID, ConversationState{State: StateIdle})
		return sender.Send(ctx, conversationID, "No problem! Is there anything else I can help you with?\n\nType 'menu' to see all available options.")
	default:
		return sender.Send(ctx, conversationID, supportReprompt)
	}
}

func (o *Orchestrator) handleSupportFormState(ctx context.Context, sender Sender, conversationID, normalized string) error {
	switch normalized {
	case "no", "n", "cancel":
		o.states.Update(conversationID, ConversationState{State: StateIdle})
		return sender.Send(ctx, conversationID, declineReply)
	default:
		return sender.Send(ctx, conversationID, supportFormPrompt)
	}
}

// RequestSupport starts the support flow directly, used when a channel has a
// dedicated talk-to-agent control.
func (o *Orchestrator) RequestSupport(ctx context.Context, sender Sender, conversationID string) error {
	unlock := o.locks.Lock(conversationID)
	defer unlock()
	if !o.ownsConversation(ctx, conversationID) {
		return nil
	}
	return o.promptSupport(ctx, sender, conversationID,
		"I'd be happy to connect you with our customer support team.",
		"User requested to speak with customer support.")
}

// CompleteSupportForm finishes the form-based support flow once the visitor
// has submitted their details through the widget's form endpoint.
func (o *Orchestrator) CompleteSupportForm(ctx context.Context, sender Sender, conversationID, reason string) error {
	unlock := o.locks.Lock(conversationID)
	defer unlock()
	return o.handoff.Execute(ctx, sender, conversationID, reason)
}

// HandleStatusChange reacts to ticketing status transitions. A resolved or
// closed conversation loses its state so the next message starts fresh.
func (o *Orchestrator) HandleStatusChange(conversationID, status string) {
	if status == "resolved" || status == "closed" {
		o.states.Clear(conversationID)
		utils.Zlog.Info("Cleared state for closed conversation",
			zap.String("conversation_id", conversationID),
			zap.String("status", status))
	}
}

func (o *Orchestrator) answerQuery(ctx context.Context, sender Sender, conversationID, content string) error {
	answer, err := o.responder.Answer(ctx, conversationID, content)
	if err != nil {
		utils.Zlog.Error("Answer pipeline failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return o.promptSupport(ctx, sender, conversationID,
			"I'm having trouble fetching information right now.", "Bot could not answer customer query.")
	}

	switch answer.Intent {
	case IntentBooking:
		o.states.Update(conversationID, ConversationState{State: StateAwaitingBookingConfirm})
		return sender.Send(ctx, conversationID, bookingConfirmPrompt)

	case IntentT30:
		o.states.Update(conversationID, ConversationState{State: StateAwaitingT30Confirm})
		return sender.Send(ctx, conversationID, t30ConfirmPrompt)

	case IntentShowroom:
		o.states.Update(conversationID, ConversationState{State: StateAwaitingShowroomCity})
		return sender.Send(ctx, conversationID, o.policy.ShowroomCityMenu())

	case IntentSupportDirect:
		return o.promptSupport(ctx, sender, conversationID,
			"I'd be happy to connect you with our customer support team.",
			"User requested to speak with customer support.")

	case IntentSupport:
		reason := answer.Reason
		if reason == "" {
			reason = "Customer inquiry: " + truncate(content, 100)
		}
		leadIn := "I understand you're facing an issue."
		if text := strings.TrimSpace(answer.Text); text != "" {
			leadIn = text
		}
		return o.promptSupport(ctx, sender, conversationID, leadIn, reason)

	default:
		return sender.Send(ctx, conversationID, answer.Text)
	}
}

// promptSupport moves the conversation into the support flow. leadIn is the
// informative part of the reply; the flow question appended to it is either
// the yes/no confirmation or, on form channels, the contact-form request.
func (o *Orchestrator) promptSupport(ctx context.Context, sender Sender, conversationID, leadIn, reason string) error {
	if o.policy.SupportForm {
		o.states.Update(conversationID, ConversationState{State: StateAwaitingSupportForm, SupportReason: reason})
		return sender.Send(ctx, conversationID, leadIn+"\n\n"+supportFormPrompt)
	}
	o.states.Update(conversationID, ConversationState{State: StateAwaitingSupportConfirm, SupportReason: reason})
	return sender.Send(ctx, conversationID, leadIn+"\n\n"+supportConfirmPrompt)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
