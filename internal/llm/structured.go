package llm

import (
	"encoding/json"
	"strings"
)

// StructuredReply is the shape the model is prompted to return. Two field
// namings are accepted because prompts evolved over time; either set maps
// onto the same decision.
type StructuredReply struct {
	Answer           string `json:"answer"`
	AssistanceNeeded bool   `json:"assistance_needed"`

	NeedsHandoff bool   `json:"needs_handoff"`
	Reason       string `json:"reason"`
	BotResponse  string `json:"bot_response"`
}

// Text returns the user-facing content regardless of which field naming the
// model used.
func (r StructuredReply) Text() string {
	if r.Answer != "" {
		return r.Answer
	}
	return r.BotResponse
}

// Handoff reports whether the reply asks for a human agent.
func (r StructuredReply) Handoff() bool {
	return r.AssistanceNeeded || r.NeedsHandoff
}

const fallbackApology = "I'm sorry, I wasn't able to process that. Let me connect you with someone who can help."

// FallbackReply is what callers use when the model output could not be
// recovered at all: an apology with the handoff flag raised.
func FallbackReply() StructuredReply {
	return StructuredReply{Answer: fallbackApology, AssistanceNeeded: true}
}

// ParseStructuredReply recovers a StructuredReply from raw model output.
// Models wrap JSON in prose or code fences and occasionally emit literal
// newlines inside string values, so recovery runs in tiers:
//
//  1. parse the output as-is
//  2. strip a ```json fenced block and parse the inside
//  3. take the outermost { .. } span, escape raw newlines found inside
//     string values, and parse that
//
// If every tier fails the fallback apology is returned with ok=false.
func ParseStructuredReply(raw string) (StructuredReply, bool) {
	raw = strings.TrimSpace(raw)

	if reply, ok := tryParse(raw); ok {
		return reply, true
	}

	if inner := stripFence(raw); inner != raw {
		if reply, ok := tryParse(inner); ok {
			return reply, true
		}
		raw = inner
	}

	if span := braceSpan(raw); span != "" {
		if reply, ok := tryParse(span); ok {
			return reply, true
		}
		if reply, ok := tryParse(escapeNewlinesInStrings(span)); ok {
			return reply, true
		}
	}

	return FallbackReply(), false
}

func tryParse(s string) (StructuredReply, bool) {
	var reply StructuredReply
	if err := json.Unmarshal([]byte(s), &reply); err != nil {
		return StructuredReply{}, false
	}
	if reply.Text() == "" && !reply.Handoff() {
		return StructuredReply{}, false
	}
	return reply, true
}

// stripFence removes a markdown code fence (```json ... ``` or ``` ... ```)
// wrapping the payload, returning the input unchanged when no fence is found.
func stripFence(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		// drop the language tag line, e.g. "json"
		if lang := strings.TrimSpace(rest[:nl]); lang == "" || len(lang) <= 8 && !strings.ContainsAny(lang, "{}") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// braceSpan returns the substring from the first '{' to the last '}', or ""
// when no such span exists.
func braceSpan(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// escapeNewlinesInStrings rewrites raw newlines and tabs that appear inside
// JSON string values as their escape sequences. Structure outside strings is
// left alone.
func escapeNewlinesInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			b.WriteByte(ch)
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			b.WriteByte(ch)
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
			b.WriteByte(ch)
		case '\n':
			if inString {
				b.WriteString(`\n`)
			} else {
				b.WriteByte(ch)
			}
		case '\r':
			if inString {
				b.WriteString(`\r`)
			} else {
				b.WriteByte(ch)
			}
		case '\t':
			if inString {
				b.WriteString(`\t`)
			} else {
				b.WriteByte(ch)
			}
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
