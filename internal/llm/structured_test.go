package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStructuredReplyDirect(t *testing.T) {
	reply, ok := ParseStructuredReply(`{"answer": "The T30 has a 150km range.", "assistance_needed": false}`)
	require.True(t, ok)
	require.Equal(t, "The T30 has a 150km range.", reply.Text())
	require.False(t, reply.Handoff())
}

func TestParseStructuredReplyAlternateFieldNames(t *testing.T) {
	reply, ok := ParseStructuredReply(`{"needs_handoff": true, "reason": "warranty dispute", "bot_response": "Let me get someone."}`)
	require.True(t, ok)
	require.Equal(t, "Let me get someone.", reply.Text())
	require.True(t, reply.Handoff())
	require.Equal(t, "warranty dispute", reply.Reason)
}

func TestParseStructuredReplyFencedBlock(t *testing.T) {
	raw := "Here is the answer:\n```json\n{\"answer\": \"Charging takes 60 minutes.\", \"assistance_needed\": false}\n```"
	reply, ok := ParseStructuredReply(raw)
	require.True(t, ok)
	require.Equal(t, "Charging takes 60 minutes.", reply.Text())
}

func TestParseStructuredReplyProseWrappedObject(t *testing.T) {
	raw := `Sure! {"answer": "The warranty covers 3 years.", "assistance_needed": false} Hope that helps.`
	reply, ok := ParseStructuredReply(raw)
	require.True(t, ok)
	require.Equal(t, "The warranty covers 3 years.", reply.Text())
}

func TestParseStructuredReplyRepairsRawNewlines(t *testing.T) {
	raw := "{\"answer\": \"Line one.\nLine two.\", \"assistance_needed\": true}"
	reply, ok := ParseStructuredReply(raw)
	require.True(t, ok)
	require.Equal(t, "Line one.\nLine two.", reply.Text())
	require.True(t, reply.Handoff())
}

func TestParseStructuredReplyFallsBackOnGarbage(t *testing.T) {
	reply, ok := ParseStructuredReply("I cannot answer in the requested format, sorry!")
	require.False(t, ok)
	require.True(t, reply.Handoff())
	require.NotEmpty(t, reply.Text())
}

func TestParseStructuredReplyEmptyObjectIsNotAReply(t *testing.T) {
	reply, ok := ParseStructuredReply(`{}`)
	require.False(t, ok)
	require.True(t, reply.Handoff())
}
