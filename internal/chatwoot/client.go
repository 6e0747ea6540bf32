// Package chatwoot is the REST client for the helpdesk backend that stores
// contacts, conversations and messages, and whose status field arbitrates
// bot-versus-agent ownership of a conversation.
package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client talks to one Chatwoot account.
type Client struct {
	baseURL   string
	accountID string
	apiToken  string
	client    *http.Client
}

func NewClient(baseURL, accountID, apiToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		accountID: accountID,
		apiToken:  apiToken,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) accountURL(path string) string {
	return fmt.Sprintf("%s/api/v1/accounts/%s%s", c.baseURL, c.accountID, path)
}

// Ping verifies the backend is reachable and the token is accepted.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.accountURL(""), nil, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_access_token", c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("chatwoot API error (status %d): %v", resp.StatusCode, errBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CreateContact creates a contact and returns its id.
func (c *Client) CreateContact(ctx context.Context, name, email, phone, identifier string) (int, error) {
	var resp contactResponse
	err := c.do(ctx, http.MethodPost, c.accountURL("/contacts"), contactPayload{
		Name:        name,
		Email:       email,
		PhoneNumber: phone,
		Identifier:  identifier,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Payload.Contact.ID, nil
}

// UpdateContact patches name/email/phone on an existing contact.
func (c *Client) UpdateContact(ctx context.Context, contactID int, name, email, phone string) error {
	url := c.accountURL(fmt.Sprintf("/contacts/%d", contactID))
	return c.do(ctx, http.MethodPut, url, contactPayload{
		Name:        name,
		Email:       email,
		PhoneNumber: phone,
	}, nil)
}

// SearchContactByPhone returns the first contact matching the phone number.
func (c *Client) SearchContactByPhone(ctx context.Context, phone string) (int, bool, error) {
	var resp contactSearchResponse
	searchURL := c.accountURL("/contacts/search?q=" + url.QueryEscape(phone))
	if err := c.do(ctx, http.MethodGet, searchURL, nil, &resp); err != nil {
		return 0, false, err
	}
	if len(resp.Payload) == 0 {
		return 0, false, nil
	}
	return resp.Payload[0].ID, true, nil
}

// CreateConversation opens a conversation for a contact in an inbox and
// returns the conversation id.
func (c *Client) CreateConversation(ctx context.Context, sourceID string, inboxID, contactID int) (int, error) {
	var resp Conversation
	err := c.do(ctx, http.MethodPost, c.accountURL("/conversations"), conversationPayload{
		SourceID:  sourceID,
		InboxID:   inboxID,
		ContactID: contactID,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// GetConversation fetches conversation details, primarily for the status gate.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	var resp Conversation
	url := c.accountURL("/conversations/" + conversationID)
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateMessage posts a message into a conversation and returns the new
// message id (used as the outbound-echo fingerprint).
func (c *Client) CreateMessage(ctx context.Context, conversationID, content, messageType string, private bool) (int, error) {
	var resp messageResponse
	url := c.accountURL("/conversations/" + conversationID + "/messages")
	err := c.do(ctx, http.MethodPost, url, messagePayload{
		Content:     content,
		MessageType: messageType,
		Private:     private,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// ListMessages returns the conversation transcript, oldest first.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var resp messagesResponse
	url := c.accountURL("/conversations/" + conversationID + "/messages")
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// ToggleStatus moves a conversation to the given status.
func (c *Client) ToggleStatus(ctx context.Context, conversationID, status string) error {
	url := c.accountURL("/conversations/" + conversationID + "/toggle_status")
	return c.do(ctx, http.MethodPost, url, togglePayload{Status: status}, nil)
}
