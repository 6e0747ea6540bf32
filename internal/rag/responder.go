package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/llm"
	"github.com/rapteehv/support-bot/internal/settings"
	"github.com/rapteehv/support-bot/internal/utils"
)

// Completer is the slice of the language model client the responders need.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// HistoryProvider returns recent conversation turns, oldest first, for
// context-aware answering.
type HistoryProvider interface {
	RecentHistory(ctx context.Context, conversationID string, limit int) ([]*schema.Message, error)
}

// MarkerResponder answers with a prompt that instructs the model to emit
// intent markers, then maps any marker in the output to an intent. Used by
// the DM channels.
type MarkerResponder struct {
	retriever Retriever
	completer Completer
	settings  func() settings.BotSettings
}

func NewMarkerResponder(retriever Retriever, completer Completer, botSettings func() settings.BotSettings) *MarkerResponder {
	return &MarkerResponder{
		retriever: retriever,
		completer: completer,
		settings:  botSettings,
	}
}

func (r *MarkerResponder) Answer(ctx context.Context, conversationID, query string) (core.Answer, error) {
	cfg := r.settings()

	chunks, err := r.retriever.Retrieve(ctx, query, topK(cfg))
	if err != nil {
		utils.Zlog.Warn("Retrieval failed, answering without context",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}

	prompt := markerPrompt(cfg, joinChunks(chunks), query)
	raw, err := r.completer.Complete(ctx, llm.CompletionRequest{
		Model:       "mistral-small-latest",
		Messages:    []*schema.Message{schema.UserMessage(prompt)},
		Temperature: 0.2,
	})
	if err != nil {
		return core.Answer{}, fmt.Errorf("completion failed: %w", err)
	}

	return core.Answer{
		Text:   core.StripIntentMarkers(raw),
		Intent: core.DetectIntentMarker(raw),
	}, nil
}

// StructuredResponder answers with a JSON-mode prompt and recovers the
// structured reply from the output. Used by the website widget, where the
// answer and the handoff decision travel as separate fields and the last few
// turns of the conversation feed back into the prompt.
type StructuredResponder struct {
	retriever Retriever
	completer Completer
	history   HistoryProvider
	settings  func() settings.BotSettings
}

func NewStructuredResponder(retriever Retriever, completer Completer, history HistoryProvider, botSettings func() settings.BotSettings) *StructuredResponder {
	return &StructuredResponder{
		retriever: retriever,
		completer: completer,
		history:   history,
		settings:  botSettings,
	}
}

const historyTurns = 4

func (r *StructuredResponder) Answer(ctx context.Context, conversationID, query string) (core.Answer, error) {
	cfg := r.settings()

	chunks, err := r.retriever.Retrieve(ctx, query, topK(cfg))
	if err != nil {
		return core.Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(chunks) == 0 {
		return core.Answer{
			Text:   "I apologize, but I don't have information about that specific query. I'll connect you with an agent.",
			Intent: core.IntentSupport,
			Reason: "No knowledge base coverage for customer query.",
		}, nil
	}

	historyText := ""
	if r.history != nil {
		turns, err := r.history.RecentHistory(ctx, conversationID, historyTurns)
		if err != nil {
			utils.Zlog.Warn("Failed to fetch conversation history",
				zap.String("conversation_id", conversationID),
				zap.Error(err))
		}
		historyText = renderHistory(turns)
	}

	prompt := structuredPrompt(cfg, joinChunks(chunks), query, historyText)
	raw, err := r.completer.Complete(ctx, llm.CompletionRequest{
		Model:       "mistral-medium-latest",
		Messages:    []*schema.Message{schema.UserMessage(prompt)},
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return core.Answer{}, fmt.Errorf("completion failed: %w", err)
	}

	reply, ok := llm.ParseStructuredReply(raw)
	if !ok {
		utils.Zlog.Warn("Unparseable model output, using fallback",
			zap.String("conversation_id", conversationID))
	}

	answer := core.Answer{Text: reply.Text()}
	if reply.Handoff() {
		answer.Intent = core.IntentSupport
		answer.Reason = reply.Reason
	}
	return answer, nil
}

func topK(cfg settings.BotSettings) int {
	if cfg.NResults > 0 {
		return cfg.NResults
	}
	return 5
}

func joinChunks(chunks []Chunk) string {
	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		header := fmt.Sprintf("[#%d] Raptee T30 Info", i+1)
		if c.Title != "" {
			header = fmt.Sprintf("[#%d] %s", i+1, c.Title)
		}
		parts = append(parts, header+"\n"+c.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func renderHistory(turns []*schema.Message) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		if turn == nil || turn.Content == "" {
			continue
		}
		role := "Agent"
		if turn.Role == schema.User {
			role = "User"
		}
		lines = append(lines, role+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}
