package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/llm"
	"github.com/rapteehv/support-bot/internal/settings"
)

type fakeRetriever struct {
	chunks []Chunk
	err    error
	gotK   int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Chunk, error) {
	f.gotK = topK
	return f.chunks, f.err
}

type fakeCompleter struct {
	reply   string
	err     error
	lastReq llm.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	f.lastReq = req
	return f.reply, f.err
}

type fakeHistory struct {
	turns []*schema.Message
}

func (f *fakeHistory) RecentHistory(ctx context.Context, conversationID string, limit int) ([]*schema.Message, error) {
	return f.turns, nil
}

func testSettings() func() settings.BotSettings {
	return func() settings.BotSettings {
		return settings.BotSettings{
			Introduction: "You are a test assistant.",
			Dos:          []string{"Be concise"},
			Donts:        []string{"Don't use emojis"},
			WordLimit:    50,
			NResults:     3,
		}
	}
}

func TestMarkerResponderMapsMarkersToIntent(t *testing.T) {
	retriever := &fakeRetriever{chunks: []Chunk{{Title: "Pricing", Content: "The T30 starts at 2.39L."}}}
	completer := &fakeCompleter{reply: "You can book a test ride at our showroom. INTENT_BOOKING"}
	r := NewMarkerResponder(retriever, completer, testSettings())

	answer, err := r.Answer(context.Background(), "91", "how do I book a ride?")
	require.NoError(t, err)
	require.Equal(t, core.IntentBooking, answer.Intent)
	require.Equal(t, "You can book a test ride at our showroom.", answer.Text)

	require.Equal(t, 3, retriever.gotK)
	require.Equal(t, "mistral-small-latest", completer.lastReq.Model)
	require.InDelta(t, 0.2, completer.lastReq.Temperature, 0.001)
	require.False(t, completer.lastReq.JSONMode)
}

func TestMarkerResponderPromptCarriesContextAndQuery(t *testing.T) {
	retriever := &fakeRetriever{chunks: []Chunk{
		{Title: "Range", Content: "The T30 has a 212 km range."},
		{Content: "Charging takes under an hour."},
	}}
	completer := &fakeCompleter{reply: "The range is 212 km."}
	r := NewMarkerResponder(retriever, completer, testSettings())

	_, err := r.Answer(context.Background(), "91", "what is the range?")
	require.NoError(t, err)

	prompt := completer.lastReq.Messages[0].Content
	require.Contains(t, prompt, "[#1] Range")
	require.Contains(t, prompt, "212 km range")
	require.Contains(t, prompt, "[#2] Raptee T30 Info")
	require.Contains(t, prompt, "what is the range?")
	require.Contains(t, prompt, "Don't use emojis")
}

func TestMarkerResponderAnswersWithoutContextOnRetrievalError(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("chroma down")}
	completer := &fakeCompleter{reply: "The T30 is an electric motorcycle."}
	r := NewMarkerResponder(retriever, completer, testSettings())

	answer, err := r.Answer(context.Background(), "91", "what is the T30?")
	require.NoError(t, err)
	require.Equal(t, core.IntentNone, answer.Intent)
	require.Equal(t, "The T30 is an electric motorcycle.", answer.Text)

	// the prompt says so explicitly instead of rendering an empty context
	require.Contains(t, completer.lastReq.Messages[0].Content, "CONTEXT: No relevant information found.")
}

func TestStructuredResponderParsesReply(t *testing.T) {
	retriever := &fakeRetriever{chunks: []Chunk{{Content: "The T30 has ABS."}}}
	completer := &fakeCompleter{reply: `{"answer":"Yes, the T30 has dual-channel ABS.","assistance_needed":false}`}
	r := NewStructuredResponder(retriever, completer, &fakeHistory{}, testSettings())

	answer, err := r.Answer(context.Background(), "91", "does it have ABS?")
	require.NoError(t, err)
	require.Equal(t, "Yes, the T30 has dual-channel ABS.", answer.Text)
	require.Equal(t, core.IntentNone, answer.Intent)

	require.Equal(t, "mistral-medium-latest", completer.lastReq.Model)
	require.True(t, completer.lastReq.JSONMode)
}

func TestStructuredResponderHandoffFlag(t *testing.T) {
	retriever := &fakeRetriever{chunks: []Chunk{{Content: "Warranty info."}}}
	completer := &fakeCompleter{reply: `{"answer":"Let me connect you with our team.","assistance_needed":true,"reason":"Warranty claim needs a human"}`}
	r := NewStructuredResponder(retriever, completer, &fakeHistory{}, testSettings())

	answer, err := r.Answer(context.Background(), "91", "my warranty claim was rejected")
	require.NoError(t, err)
	require.Equal(t, core.IntentSupport, answer.Intent)
	require.Equal(t, "Warranty claim needs a human", answer.Reason)
}

func TestStructuredResponderEmptyRetrievalEscalates(t *testing.T) {
	retriever := &fakeRetriever{chunks: []Chunk{}}
	completer := &fakeCompleter{reply: "should not be called"}
	r := NewStructuredResponder(retriever, completer, &fakeHistory{}, testSettings())

	answer, err := r.Answer(context.Background(), "91", "do you sell cars?")
	require.NoError(t, err)
	require.Equal(t, core.IntentSupport, answer.Intent)
	require.Contains(t, answer.Text, "connect you with an agent")
	require.Empty(t, completer.lastReq.Model)
}

func TestStructuredResponderRetrievalErrorFails(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("chroma down")}
	r := NewStructuredResponder(retriever, &fakeCompleter{}, &fakeHistory{}, testSettings())

	_, err := r.Answer(context.Background(), "91", "anything")
	require.Error(t, err)
}

func TestStructuredResponderHistoryInPrompt(t *testing.T) {
	retriever := &fakeRetriever{chunks: []Chunk{{Content: "Booking info."}}}
	completer := &fakeCompleter{reply: `{"answer":"Sure."}`}
	history := &fakeHistory{turns: []*schema.Message{
		schema.UserMessage("what colors are available?"),
		schema.AssistantMessage("The T30 comes in three colors.", nil),
	}}
	r := NewStructuredResponder(retriever, completer, history, testSettings())

	_, err := r.Answer(context.Background(), "91", "and the red one?")
	require.NoError(t, err)

	prompt := completer.lastReq.Messages[0].Content
	require.Contains(t, prompt, "User: what colors are available?")
	require.Contains(t, prompt, "Agent: The T30 comes in three colors.")
}

func TestStructuredResponderGarbageOutputFallsBack(t *testing.T) {
	retriever := &fakeRetriever{chunks: []Chunk{{Content: "Some info."}}}
	completer := &fakeCompleter{reply: "not json at all"}
	r := NewStructuredResponder(retriever, completer, &fakeHistory{}, testSettings())

	answer, err := r.Answer(context.Background(), "91", "hello")
	require.NoError(t, err)
	require.Equal(t, core.IntentSupport, answer.Intent)
	require.Contains(t, answer.Text, "connect you with someone")
}
