package website

import "github.com/rapteehv/support-bot/internal/types"

// InitRequest starts or resumes a widget session.
type InitRequest struct {
	VisitorID string `json:"visitorId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// InitResponse returns the session the widget should attach to.
type InitResponse struct {
	types.BaseResponse
	SessionID      string `json:"sessionId"`
	ContactID      int    `json:"contactId"`
	ConversationID string `json:"conversationId"`
}

// MessageRequest is one visitor message from the widget.
type MessageRequest struct {
	SessionID      string `json:"sessionId" binding:"required"`
	ConversationID string `json:"conversationId" binding:"required"`
	Message        string `json:"message" binding:"required"`
}

// ContactUpdateRequest fills in the visitor's real identity.
type ContactUpdateRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// SupportRequest completes the support form flow: contact details plus an
// optional description of the issue.
type SupportRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Issue     string `json:"issue"`
}

// MessagesResponse is the filtered conversation transcript.
type MessagesResponse struct {
	types.BaseResponse
	Messages []types.ChatMessage `json:"messages"`
}
