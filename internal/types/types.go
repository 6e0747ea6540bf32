package types

import "time"

// BaseResponse is embedded in JSON API responses.
type BaseResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id,omitempty"`
}

// ChatMessage is a simplified conversation entry returned to the widget.
type ChatMessage struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	Sender    string `json:"sender,omitempty"`
	Type      string `json:"type"` // user | bot
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
