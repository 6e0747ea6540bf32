package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MistralEmbedder generates query embeddings via the Mistral embeddings API.
type MistralEmbedder struct {
	apiKey      string
	client      *http.Client
	baseURL     string
	rateLimiter chan struct{} // bounds concurrent embedding requests
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// NewMistralEmbedder creates an embedder for the given API key.
func NewMistralEmbedder(apiKey string) (*MistralEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	maxConcurrentRequests := 5

	return &MistralEmbedder{
		apiKey:      apiKey,
		client:      &http.Client{Timeout: 30 * time.Second},
		baseURL:     "https://api.mistral.ai/v1",
		rateLimiter: make(chan struct{}, maxConcurrentRequests),
	}, nil
}

// EmbedText embeds a single query string.
func (m *MistralEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	select {
	case m.rateLimiter <- struct{}{}:
		defer func() { <-m.rateLimiter }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	reqBody := embeddingRequest{
		Model: "mistral-embed",
		Input: []string{text},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned from API")
	}

	return embResp.Data[0].Embedding, nil
}
