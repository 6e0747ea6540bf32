// Package core holds the channel-independent conversation logic: the state
// machine, handoff arbitration, idempotency, and the interfaces the channel
// adapters plug into.
package core

import "context"

// Channel identifies which surface a conversation lives on.
type Channel string

const (
	ChannelWebsite   Channel = "website"
	ChannelInstagram Channel = "instagram"
	ChannelWhatsApp  Channel = "whatsapp"
)

// State is the conversation state machine position.
type State string

const (
	StateIdle                   State = "IDLE"
	StateAwaitingBookingConfirm State = "AWAITING_BOOKING_CONFIRMATION"
	StateAwaitingT30Confirm     State = "AWAITING_T30_CONFIRMATION"
	StateAwaitingShowroomCity   State = "AWAITING_SHOWROOM_CITY"
	StateAwaitingSupportConfirm State = "AWAITING_SUPPORT_CONFIRMATION"
	StateAwaitingSupportForm    State = "AWAITING_SUPPORT_FORM"
	StateHandedOff              State = "HANDED_OFF"
)

// Intent is what the answering pipeline decided the user wants.
type Intent string

const (
	IntentNone          Intent = ""
	IntentBooking       Intent = "booking"
	IntentT30           Intent = "t30"
	IntentShowroom      Intent = "showroom"
	IntentSupportDirect Intent = "support_direct"
	IntentSupport       Intent = "support"
)

// Answer is the outcome of running a user query through the answering
// pipeline: the text to send plus any detected intent.
type Answer struct {
	Text   string
	Intent Intent
	// Reason is passed along to the agent note when Intent leads to handoff.
	Reason string
}

// Responder produces an answer for a free-text user query.
type Responder interface {
	Answer(ctx context.Context, conversationID, query string) (Answer, error)
}

// Sender delivers bot replies back to the user on a specific channel.
// SendMenu renders the main menu in whatever form the channel supports
// (plain numbered text, or an interactive list).
type Sender interface {
	Send(ctx context.Context, conversationID, text string) error
	SendMenu(ctx context.Context, conversationID string) error
}

// Ticketing is the slice of the ticketing backend the orchestrator needs for
// handoff: posting messages and flipping conversation status.
type Ticketing interface {
	CreateMessage(ctx context.Context, conversationID, content, messageType string, private bool) (int, error)
	ToggleStatus(ctx context.Context, conversationID, status string) error
}
