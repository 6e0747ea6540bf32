package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/core"
)

// fakeChatwoot serves the conversation-status and message endpoints the
// service touches.
type fakeChatwoot struct {
	mu       sync.Mutex
	status   string
	messages []string
	nextID   int
}

func (f *fakeChatwoot) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/conversations/42"):
			fmt.Fprintf(w, `{"id":42,"status":%q}`, f.status)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/messages"):
			var body struct {
				Content string `json:"content"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.messages = append(f.messages, body.Content)
			f.nextID++
			fmt.Fprintf(w, `{"id":%d}`, f.nextID)
		default:
			w.Write([]byte(`{}`))
		}
	}
}

func (f *fakeChatwoot) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeMeta struct {
	mu       sync.Mutex
	payloads []string
}

func (f *fakeMeta) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.payloads = append(f.payloads, string(body))
		f.mu.Unlock()
		w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}
}

func (f *fakeMeta) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.payloads...)
}

type countingResponder struct {
	mu    sync.Mutex
	calls int
	reply core.Answer
}

func (r *countingResponder) Answer(_ context.Context, _ string, _ string) (core.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.reply, nil
}

func (r *countingResponder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestService(t *testing.T, cw *fakeChatwoot, meta *fakeMeta, responder core.Responder) (*Service, *core.StateStore) {
	t.Helper()

	cwSrv := httptest.NewServer(cw.handler())
	t.Cleanup(cwSrv.Close)
	metaSrv := httptest.NewServer(meta.handler())
	t.Cleanup(metaSrv.Close)

	ticketing := chatwoot.NewClient(cwSrv.URL, "1", "tok")
	gateway := NewGateway("555", "token")
	gateway.baseURL = metaSrv.URL

	states := core.NewStateStore(0)
	guard, err := core.NewGuard()
	require.NoError(t, err)
	sessions, err := core.NewSessionStore()
	require.NoError(t, err)
	require.NoError(t, sessions.Put("wa:919876543210", core.Session{
		ContactID:      7,
		ConversationID: "42",
		CreatedAt:      time.Now(),
	}))

	handoff := core.NewHandoffCoordinator(ticketing, states, guard)
	orchestrator := core.NewOrchestrator(core.WhatsAppPolicy(), states, responder, handoff)
	orchestrator.UseStatusGate(ticketing)

	return NewService(gateway, ticketing, orchestrator, guard, sessions, 4), states
}

func textMessage(id, body string) *IncomingMessage {
	msg := &IncomingMessage{From: "919876543210", ID: id, Type: "text"}
	msg.Text.Body = body
	return msg
}

func TestAgentOwnedConversationGetsNoReply(t *testing.T) {
	cw := &fakeChatwoot{status: chatwoot.StatusOpen}
	meta := &fakeMeta{}
	responder := &countingResponder{reply: core.Answer{Text: "should never be sent"}}
	svc, _ := newTestService(t, cw, meta, responder)

	svc.ProcessMessage(context.Background(), textMessage("wamid.1", "what is the range?"))

	require.Zero(t, responder.callCount())
	require.Empty(t, meta.recorded())
	// the user message still lands in the transcript for the agent
	require.Equal(t, []string{"what is the range?"}, cw.recorded())
}

func TestPendingConversationGetsAnswered(t *testing.T) {
	cw := &fakeChatwoot{status: chatwoot.StatusPending}
	meta := &fakeMeta{}
	responder := &countingResponder{reply: core.Answer{Text: "The T30 covers 212 km."}}
	svc, _ := newTestService(t, cw, meta, responder)

	svc.ProcessMessage(context.Background(), textMessage("wamid.2", "what is the range?"))

	require.Equal(t, 1, responder.callCount())
	payloads := meta.recorded()
	require.Len(t, payloads, 1)
	require.Contains(t, payloads[0], "The T30 covers 212 km.")
}

func TestShortcutsOnlyFireFromIdle(t *testing.T) {
	cw := &fakeChatwoot{status: chatwoot.StatusPending}
	meta := &fakeMeta{}
	svc, states := newTestService(t, cw, meta, &countingResponder{})

	// mid-flow, a city reply containing "where" goes to the state machine
	states.Update("42", core.ConversationState{State: core.StateAwaitingShowroomCity})
	svc.ProcessMessage(context.Background(), textMessage("wamid.3", "where is the bangalore showroom"))

	payloads := meta.recorded()
	require.Len(t, payloads, 1)
	require.Contains(t, payloads[0], "456 MG Road")
	require.Equal(t, core.StateIdle, states.Get("42").State)

	// from idle the same words trigger the menu nudge
	svc.ProcessMessage(context.Background(), textMessage("wamid.4", "i want to book a ride"))

	payloads = meta.recorded()
	require.Len(t, payloads, 2)
	require.Contains(t, payloads[1], "Book Test Ride")
	require.Contains(t, payloads[1], "interactive")
}
