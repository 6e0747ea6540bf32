package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/rapteehv/support-bot/internal/chatwoot"
)

type fakeSender struct {
	sent      []string
	menuSends int
	flowSends int
}

func (s *fakeSender) Send(_ context.Context, _ string, text string) error {
	s.sent = append(s.sent, text)
	return nil
}

func (s *fakeSender) SendMenu(_ context.Context, _ string) error {
	s.menuSends++
	return nil
}

type fakeFlowSender struct {
	fakeSender
}

func (s *fakeFlowSender) SendBookingFlow(_ context.Context, _ string) error {
	s.flowSends++
	return nil
}

type fakeResponder struct {
	answer    Answer
	err       error
	lastQuery string
}

func (r *fakeResponder) Answer(_ context.Context, _ string, query string) (Answer, error) {
	r.lastQuery = query
	return r.answer, r.err
}

type fakeTicketing struct {
	notes    []string
	statuses []string
	nextID   int
}

func (t *fakeTicketing) CreateMessage(_ context.Context, _ string, content, _ string, private bool) (int, error) {
	if private {
		t.notes = append(t.notes, content)
	}
	t.nextID++
	return t.nextID, nil
}

func (t *fakeTicketing) ToggleStatus(_ context.Context, _ string, status string) error {
	t.statuses = append(t.statuses, status)
	return nil
}

func newTestOrchestrator(t *testing.T, policy ChannelPolicy, responder Responder) (*Orchestrator, *StateStore, *fakeTicketing) {
	t.Helper()
	states := NewStateStore(0)
	guard, err := NewGuard()
	require.NoError(t, err)
	ticketing := &fakeTicketing{}
	handoff := NewHandoffCoordinator(ticketing, states, guard)
	return NewOrchestrator(policy, states, responder, handoff), states, ticketing
}

func lastMessage(t *testing.T, s *fakeSender) string {
	t.Helper()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

func TestMenuKeywordResetsAnyState(t *testing.T) {
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), &fakeResponder{})
	sender := &fakeSender{}

	states.Update("42", ConversationState{State: StateAwaitingShowroomCity})

	require.NoError(t, orch.HandleMessage(context.Background(), sender, "42", "  MENU  "))
	require.Equal(t, 1, sender.menuSends)
	require.Equal(t, StateIdle, states.Get("42").State)

	for _, keyword := range []string{"start", "Hi", "HELLO"} {
		require.NoError(t, orch.HandleMessage(context.Background(), sender, "42", keyword))
	}
	require.Equal(t, 4, sender.menuSends)
}

func TestBookingConfirmationFlow(t *testing.T) {
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), &fakeResponder{})
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "7", "1"))
	require.Contains(t, lastMessage(t, sender), "book a test ride")
	require.Equal(t, StateAwaitingBookingConfirm, states.Get("7").State)

	// anything but yes/no reprompts and keeps the state
	require.NoError(t, orch.HandleMessage(ctx, sender, "7", "maybe"))
	require.Contains(t, lastMessage(t, sender), "reply with 'yes'")
	require.Equal(t, StateAwaitingBookingConfirm, states.Get("7").State)

	require.NoError(t, orch.HandleMessage(ctx, sender, "7", "Yes"))
	require.Contains(t, lastMessage(t, sender), "wa.me/919344313804")
	require.Contains(t, lastMessage(t, sender), "Book%20Test%20Ride")
	require.Equal(t, StateIdle, states.Get("7").State)
}

func TestBookingConfirmationDeclined(t *testing.T) {
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), &fakeResponder{})
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "7", "3"))
	require.Equal(t, StateAwaitingT30Confirm, states.Get("7").State)

	require.NoError(t, orch.HandleMessage(ctx, sender, "7", "no"))
	require.Contains(t, lastMessage(t, sender), "No problem")
	require.Equal(t, StateIdle, states.Get("7").State)
}

func TestBookingConfirmationUsesNativeFlow(t *testing.T) {
	orch, states, _ := newTestOrchestrator(t, WhatsAppPolicy(), &fakeResponder{})
	sender := &fakeFlowSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "9", "1"))
	require.NoError(t, orch.HandleMessage(ctx, sender, "9", "yes"))
	require.Equal(t, 1, sender.flowSends)
	require.Equal(t, StateIdle, states.Get("9").State)
}

func TestShowroomSelection(t *testing.T) {
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), &fakeResponder{})
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "5", "2"))
	require.Contains(t, lastMessage(t, sender), "1. Chennai")
	require.Contains(t, lastMessage(t, sender), "2. Bangalore")
	require.Equal(t, StateAwaitingShowroomCity, states.Get("5").State)

	require.NoError(t, orch.HandleMessage(ctx, sender, "5", "2"))
	require.Contains(t, lastMessage(t, sender), "Bangalore Showroom")
	require.Contains(t, lastMessage(t, sender), "456 MG Road")
	require.Equal(t, StateIdle, states.Get("5").State)
}

func TestShowroomCityNameAndAlias(t *testing.T) {
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), &fakeResponder{})
	sender := &fakeSender{}
	ctx := context.Background()

	states.Update("5", ConversationState{State: StateAwaitingShowroomCity})
	require.NoError(t, orch.HandleMessage(ctx, sender, "5", "I'm in Bangalore"))
	require.Contains(t, lastMessage(t, sender), "Bangalore Showroom")

	states.Update("6", ConversationState{State: StateAwaitingShowroomCity})
	require.NoError(t, orch.HandleMessage(ctx, sender, "6", "bengaluru please"))
	require.Contains(t, lastMessage(t, sender), "Bangalore Showroom")
}

func TestShowroomInvalidCityReprompts(t *testing.T) {
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), &fakeResponder{})
	sender := &fakeSender{}
	ctx := context.Background()

	states.Update("5", ConversationState{State: StateAwaitingShowroomCity})
	require.NoError(t, orch.HandleMessage(ctx, sender, "5", "atlantis"))
	require.Contains(t, lastMessage(t, sender), "1 for Chennai or 2 for Bangalore")
	require.Equal(t, StateAwaitingShowroomCity, states.Get("5").State)
}

func TestSupportConfirmHandsOff(t *testing.T) {
	responder := &fakeResponder{answer: Answer{Intent: IntentSupportDirect}}
	orch, states, ticketing := newTestOrchestrator(t, InstagramPolicy("919344313804"), responder)
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "11", "I want a human"))
	require.Contains(t, lastMessage(t, sender), "reply with 'yes' or 'no'")
	require.Equal(t, StateAwaitingSupportConfirm, states.Get("11").State)

	require.NoError(t, orch.HandleMessage(ctx, sender, "11", "yes"))
	require.Contains(t, lastMessage(t, sender), "forwarded your request")
	require.Len(t, ticketing.notes, 1)
	require.Contains(t, ticketing.notes[0], "Bot handoff")
	require.Equal(t, []string{"open"}, ticketing.statuses)
	require.Equal(t, StateIdle, states.Get("11").State)
}

func TestSupportConfirmDeclined(t *testing.T) {
	responder := &fakeResponder{answer: Answer{Intent: IntentSupport, Text: "Refunds take 5 days."}}
	orch, states, ticketing := newTestOrchestrator(t, InstagramPolicy("919344313804"), responder)
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "12", "my refund is stuck"))
	require.Contains(t, lastMessage(t, sender), "Refunds take 5 days.")
	require.Equal(t, StateAwaitingSupportConfirm, states.Get("12").State)
	require.Contains(t, states.Get("12").SupportReason, "my refund is stuck")

	require.NoError(t, orch.HandleMessage(ctx, sender, "12", "n"))
	require.Equal(t, StateIdle, states.Get("12").State)
	require.Empty(t, ticketing.statuses)
}

func TestResponderFailureDegradesToSupport(t *testing.T) {
	responder := &fakeResponder{err: errors.New("model timeout")}
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), responder)
	sender := &fakeSender{}

	require.NoError(t, orch.HandleMessage(context.Background(), sender, "13", "what is the range"))
	require.Contains(t, lastMessage(t, sender), "having trouble")
	require.Equal(t, StateAwaitingSupportConfirm, states.Get("13").State)
	require.Equal(t, "Bot could not answer customer query.", states.Get("13").SupportReason)
}

func TestIntentMarkersRouteToFlows(t *testing.T) {
	cases := []struct {
		intent Intent
		state  State
	}{
		{IntentBooking, StateAwaitingBookingConfirm},
		{IntentT30, StateAwaitingT30Confirm},
		{IntentShowroom, StateAwaitingShowroomCity},
	}
	for _, tc := range cases {
		responder := &fakeResponder{answer: Answer{Intent: tc.intent}}
		orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), responder)
		sender := &fakeSender{}

		require.NoError(t, orch.HandleMessage(context.Background(), sender, "20", "tell me"))
		require.Equal(t, tc.state, states.Get("20").State)
	}
}

func TestPlainAnswerPassedThrough(t *testing.T) {
	responder := &fakeResponder{answer: Answer{Text: "The T30 has a 150km range."}}
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), responder)
	sender := &fakeSender{}

	require.NoError(t, orch.HandleMessage(context.Background(), sender, "21", "what is the range?"))
	require.Equal(t, "The T30 has a 150km range.", lastMessage(t, sender))
	require.Equal(t, StateIdle, states.Get("21").State)
	require.Equal(t, "what is the range?", responder.lastQuery)
}

func TestSupportFormPolicy(t *testing.T) {
	responder := &fakeResponder{answer: Answer{Intent: IntentSupportDirect}}
	orch, states, ticketing := newTestOrchestrator(t, WebsitePolicy("919344313804"), responder)
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "30", "talk to someone"))
	require.Contains(t, lastMessage(t, sender), "contact form")
	require.Equal(t, StateAwaitingSupportForm, states.Get("30").State)

	// free text while waiting for the form reprompts
	require.NoError(t, orch.HandleMessage(ctx, sender, "30", "hello??"))
	require.Contains(t, lastMessage(t, sender), "contact form")
	require.Equal(t, StateAwaitingSupportForm, states.Get("30").State)

	require.NoError(t, orch.CompleteSupportForm(ctx, sender, "30", "Support form submitted. Name: A"))
	require.Equal(t, []string{"open"}, ticketing.statuses)
	require.Equal(t, StateIdle, states.Get("30").State)

	// declining the form drops back to idle
	states.Update("31", ConversationState{State: StateAwaitingSupportForm})
	require.NoError(t, orch.HandleMessage(ctx, sender, "31", "no"))
	require.Equal(t, StateIdle, states.Get("31").State)
}

func TestStatusChangeClearsState(t *testing.T) {
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), &fakeResponder{})

	states.Update("40", ConversationState{State: StateAwaitingSupportConfirm})
	orch.HandleStatusChange("40", "resolved")
	require.Equal(t, StateIdle, states.Get("40").State)

	states.Update("41", ConversationState{State: StateHandedOff})
	orch.HandleStatusChange("41", "closed")
	require.Equal(t, StateIdle, states.Get("41").State)

	// other transitions leave state alone
	states.Update("42", ConversationState{State: StateAwaitingBookingConfirm})
	orch.HandleStatusChange("42", "open")
	require.Equal(t, StateAwaitingBookingConfirm, states.Get("42").State)
}

type fakeConversationFetcher struct {
	status string
	err    error
}

func (f *fakeConversationFetcher) GetConversation(_ context.Context, _ string) (*chatwoot.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &chatwoot.Conversation{Status: f.status}, nil
}

func TestStatusGateSilencesAgentOwnedConversation(t *testing.T) {
	responder := &fakeResponder{answer: Answer{Text: "The range is 212 km."}}
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), responder)
	gate := &fakeConversationFetcher{status: chatwoot.StatusOpen}
	orch.UseStatusGate(gate)
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "60", "what is the range?"))
	require.Empty(t, sender.sent)
	require.Empty(t, responder.lastQuery)

	// menu keywords and the agent shortcut stay silent too
	require.NoError(t, orch.HandleMessage(ctx, sender, "60", "menu"))
	require.Zero(t, sender.menuSends)
	require.NoError(t, orch.RequestSupport(ctx, sender, "60"))
	require.Empty(t, sender.sent)
	require.Equal(t, StateIdle, states.Get("60").State)

	// back to pending, the bot talks again
	gate.status = chatwoot.StatusPending
	require.NoError(t, orch.HandleMessage(ctx, sender, "60", "what is the range?"))
	require.Equal(t, "The range is 212 km.", lastMessage(t, sender))
}

func TestStatusGateFetchFailureStaysSilent(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), &fakeResponder{})
	orch.UseStatusGate(&fakeConversationFetcher{err: errors.New("ticketing down")})
	sender := &fakeSender{}

	require.NoError(t, orch.HandleMessage(context.Background(), sender, "61", "hello"))
	require.Empty(t, sender.sent)
	require.Zero(t, sender.menuSends)
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	long := strings.Repeat("🏍", 120)
	out := truncate(long, 100)
	require.True(t, utf8.ValidString(out))
	require.Equal(t, 100, len([]rune(out)))

	require.Equal(t, "short", truncate("short", 100))
}

func TestEndToEndBookingConversation(t *testing.T) {
	responder := &fakeResponder{answer: Answer{Intent: IntentBooking}}
	orch, states, _ := newTestOrchestrator(t, InstagramPolicy("919344313804"), responder)
	sender := &fakeSender{}
	ctx := context.Background()

	require.NoError(t, orch.HandleMessage(ctx, sender, "50", "hi"))
	require.Equal(t, 1, sender.menuSends)

	require.NoError(t, orch.HandleMessage(ctx, sender, "50", "can I try the bike somewhere?"))
	require.Equal(t, StateAwaitingBookingConfirm, states.Get("50").State)

	require.NoError(t, orch.HandleMessage(ctx, sender, "50", "y"))
	require.True(t, strings.Contains(lastMessage(t, sender), "continue on WhatsApp"))
	require.Equal(t, StateIdle, states.Get("50").State)
}
