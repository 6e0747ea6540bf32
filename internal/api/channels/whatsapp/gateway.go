// Package whatsapp serves the Meta webhook and drives the native WhatsApp
// surface: text replies, the interactive list menu, and the booking flow.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const flowTemplateName = "book_test_ride"

// Gateway sends messages through the Meta Graph API.
type Gateway struct {
	phoneNumberID string
	accessToken   string
	baseURL       string
	client        *http.Client
}

func NewGateway(phoneNumberID, accessToken string) *Gateway {
	return &Gateway{
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		baseURL:       "https://graph.facebook.com/v21.0",
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Gateway) send(ctx context.Context, payload interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", g.baseURL, g.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("meta API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// SendText delivers a plain text message to a phone number.
func (g *Gateway) SendText(ctx context.Context, phone, text string) error {
	return g.send(ctx, map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "text",
		"text":              map[string]string{"body": text},
	})
}

// SendListMenu delivers the interactive main menu. bodyText customizes the
// lead-in above the options.
func (g *Gateway) SendListMenu(ctx context.Context, phone, bodyText string) error {
	if bodyText == "" {
		bodyText = "How can I help you with the T30 today?"
	}
	return g.send(ctx, map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "interactive",
		"interactive": map[string]interface{}{
			"type":   "list",
			"header": map[string]string{"type": "text", "text": "RapteeHV Assistant"},
			"body":   map[string]string{"text": bodyText},
			"footer": map[string]string{"text": "Select an option below"},
			"action": map[string]interface{}{
				"button": "Open Menu",
				"sections": []map[string]interface{}{
					{
						"title": "Main Options",
						"rows": []map[string]string{
							{"id": "menu_book", "title": "📅 Book Test Ride", "description": "Schedule a slot"},
							{"id": "menu_showroom", "title": "📍 Showrooms", "description": "Find dealers"},
							{"id": "menu_t30", "title": "🏍 Book T30", "description": "Own the T30"},
						},
					},
					{
						"title": "Support",
						"rows": []map[string]string{
							{"id": "menu_agent", "title": "👥 Talk to Agent", "description": "Human support"},
						},
					},
				},
			},
		},
	})
}

// SendBookingFlow triggers the booking flow template; the user fills the
// form inside WhatsApp and the submission comes back as an nfm_reply.
func (g *Gateway) SendBookingFlow(ctx context.Context, phone string) error {
	return g.send(ctx, map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "template",
		"template": map[string]interface{}{
			"name":     flowTemplateName,
			"language": map[string]string{"code": "en"},
			"components": []map[string]interface{}{
				{
					"type":     "button",
					"sub_type": "flow",
					"index":    0,
					"parameters": []map[string]interface{}{
						{
							"type":   "action",
							"action": map[string]string{"flow_token": fmt.Sprintf("flow_%d", time.Now().UnixMilli())},
						},
					},
				},
			},
		},
	})
}
