package chatwoot

// WebhookEvent is the Chatwoot-normalized webhook payload. Chatwoot reuses
// one envelope for message and status events, so fields are sparse.
type WebhookEvent struct {
	Event       string `json:"event"`
	ID          int    `json:"id"`     // conversation id on status events, message id on message events
	Status      string `json:"status"` // conversation_status_changed only
	MessageType string `json:"message_type"`
	Private     bool   `json:"private"`
	Content     string `json:"content"`
	Inbox       struct {
		ID int `json:"id"`
	} `json:"inbox"`
	Conversation struct {
		ID        int `json:"id"`
		ContactID int `json:"contact_id"`
	} `json:"conversation"`
}

// Conversation is the subset of conversation detail the bot cares about.
type Conversation struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

// Message is one entry of a conversation transcript.
type Message struct {
	ID          int    `json:"id"`
	Content     string `json:"content"`
	MessageType int    `json:"message_type"` // 0 incoming, 1 outgoing, 2 activity
	Private     bool   `json:"private"`
	CreatedAt   int64  `json:"created_at"`
	Sender      struct {
		Name string `json:"name"`
	} `json:"sender"`
}

// Statuses a conversation moves through. The bot only answers while the
// conversation is pending; open means an agent owns it.
const (
	StatusPending  = "pending"
	StatusOpen     = "open"
	StatusResolved = "resolved"
	StatusClosed   = "closed"
)

// Message directions on the create-message endpoint.
const (
	MessageIncoming = "incoming"
	MessageOutgoing = "outgoing"
)

type contactPayload struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
}

type contactResponse struct {
	Payload struct {
		Contact struct {
			ID int `json:"id"`
		} `json:"contact"`
	} `json:"payload"`
}

type contactSearchResponse struct {
	Payload []struct {
		ID int `json:"id"`
	} `json:"payload"`
}

type conversationPayload struct {
	SourceID  string `json:"source_id"`
	InboxID   int    `json:"inbox_id"`
	ContactID int    `json:"contact_id"`
}

type messagePayload struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	Private     bool   `json:"private"`
}

type messageResponse struct {
	ID int `json:"id"`
}

type messagesResponse struct {
	Payload []Message `json:"payload"`
}

type togglePayload struct {
	Status string `json:"status"`
}
