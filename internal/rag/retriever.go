package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rapteehv/support-bot/internal/embedder"
)

// Chunk is one retrieved knowledge-base fragment, ordered by relevance.
// Chunks are never persisted.
type Chunk struct {
	ID              string
	Content         string
	Title           string
	Source          string
	Tags            string
	SampleQuestions string
}

// Retriever abstracts nearest-neighbor retrieval over the knowledge store.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Chunk, error)
}

// ChromaRetriever queries a Chroma Cloud collection using Mistral query
// embeddings.
type ChromaRetriever struct {
	client     *http.Client
	baseURL    string
	tenant     string
	database   string
	collection string
	apiKey     string
	embedder   *embedder.MistralEmbedder
}

func NewChromaRetriever(tenant, database, collection, apiKey string, emb *embedder.MistralEmbedder) *ChromaRetriever {
	return &ChromaRetriever{
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.trychroma.com",
		tenant:     tenant,
		database:   database,
		collection: collection,
		apiKey:     apiKey,
		embedder:   emb,
	}
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float64 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
}

// Retrieve embeds the query and returns the top-K chunks by similarity.
func (r *ChromaRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Chunk, error) {
	if r.embedder == nil {
		return []Chunk{}, nil
	}

	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float64{embedding},
		NResults:        topK,
		Include:         []string{"documents", "metadatas"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s/collections/%s/query",
		r.baseURL, r.tenant, r.database, r.collection)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-chroma-token", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return nil, fmt.Errorf("chroma API error (status %d): %v", resp.StatusCode, errBody)
	}

	var queryResp chromaQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(queryResp.Documents) == 0 {
		return []Chunk{}, nil
	}

	docs := queryResp.Documents[0]
	chunks := make([]Chunk, 0, len(docs))
	for i, doc := range docs {
		chunk := Chunk{Content: doc}
		if len(queryResp.IDs) > 0 && i < len(queryResp.IDs[0]) {
			chunk.ID = queryResp.IDs[0][i]
		}
		if len(queryResp.Metadatas) > 0 && i < len(queryResp.Metadatas[0]) {
			meta := queryResp.Metadatas[0][i]
			chunk.Title = metaString(meta, "title")
			chunk.Source = metaString(meta, "source")
			chunk.Tags = metaString(meta, "tags")
			chunk.SampleQuestions = metaString(meta, "sample_questions")
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// NoopRetriever returns no documents; used when the knowledge store is not
// configured so the degrade path still produces a reply.
type NoopRetriever struct{}

func NewNoopRetriever() *NoopRetriever { return &NoopRetriever{} }

func (n *NoopRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Chunk, error) {
	return []Chunk{}, nil
}
