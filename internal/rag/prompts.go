package rag

import (
	"fmt"
	"strings"

	"github.com/rapteehv/support-bot/internal/settings"
)

func markerPrompt(cfg settings.BotSettings, context, userMessage string) string {
	var b strings.Builder

	intro := cfg.Introduction
	if intro == "" {
		intro = "You are RapteeHV's professional customer service assistant."
	}
	if context == "" {
		context = "No relevant information found."
	}
	fmt.Fprintf(&b, "%s\n\n", intro)
	fmt.Fprintf(&b, "CONTEXT: %s\nUSER QUERY: %s\n\n", context, userMessage)

	b.WriteString("INSTRUCTIONS:\n")
	fmt.Fprintf(&b, "- Keep responses under %d words\n", wordLimit(cfg))
	for _, rule := range cfg.Dos {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	for _, rule := range cfg.Donts {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	b.WriteString(`- If the query relates to booking a test ride, respond with: INTENT_BOOKING
- If the query relates to booking/buying T30, respond with: INTENT_T30
- If the query relates to showroom locations, respond with: INTENT_SHOWROOM
- If the query relates to support issues like booking problems, payment issues, refunds, delivery issues, service complaints, order status, cancellations, or any issue requiring customer assistance, first provide a brief helpful response about their issue, then end with: INTENT_SUPPORT
- If users explicitly ask to connect with an agent/human/staff, respond with: INTENT_SUPPORT_DIRECT
- If you cannot answer confidently about product information, respond with: ASSISTANCE_NEEDED
- Otherwise, provide a helpful answer and end with: "Type 'menu' to see all available options."`)

	return b.String()
}

func structuredPrompt(cfg settings.BotSettings, context, userMessage, history string) string {
	if history == "" {
		history = "No prior conversation available."
	}

	var b strings.Builder

	intro := cfg.Introduction
	if intro == "" {
		intro = "You are Raptee.HV's intelligent assistant for the Raptee T30 electric motorcycle."
	}
	fmt.Fprintf(&b, "%s\n\n", intro)

	b.WriteString(`CONTEXT FORMAT:
- You are given multiple knowledge chunks about Raptee T30.
- Use ONLY these chunks as your factual source of truth.

RECENT CONVERSATION:
The following is the last few messages in this conversation (oldest first, latest at the bottom):
`)
	b.WriteString(history)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString(`1. Answer ONLY about Raptee.HV and the Raptee.HV T30 motorcycle (product, app, charging, warranty, etc).
2. Answer only for what the user asks, don't give extra or little information, it should be balanced.
3. If user asks about other brands or comparisons (Ather, Ola, Revolt, Ultraviolette, etc.), reply with:
   "As a Raptee assistant ask me anything about only Raptee and its features."
4. For general greetings like "Hi", "Hello", etc., reply with a friendly greeting and ask how you can help,
   without forcing technical details.
5. If the provided CONTEXT does NOT contain enough information to confidently answer,
   say: "I don't have that specific information, I will connect you with an agent."
   and set "assistance_needed" to true.
   Do NOT mention words like "database", "context", "knowledge base" and don't use emojis in the final answer.
6. Use the recent conversation only to keep the dialogue coherent (follow-ups, pronouns like "it", etc),
   but do NOT invent new specs or policies that are not present in the CONTEXT.
`)
	fmt.Fprintf(&b, "7. Keep the answer under %d words.\n", wordLimit(cfg))
	for _, rule := range cfg.Dos {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	for _, rule := range cfg.Donts {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	b.WriteString("8. Respond ONLY in valid JSON format.\n\n")

	fmt.Fprintf(&b, "Context:\n%s\n\nUser Question:\n%s\n\n", context, userMessage)
	b.WriteString(`Required Output JSON Format:
{
  "answer": "Your friendly answer here...",
  "assistance_needed": boolean
}`)

	return b.String()
}

func wordLimit(cfg settings.BotSettings) int {
	if cfg.WordLimit > 0 {
		return cfg.WordLimit
	}
	return 100
}
