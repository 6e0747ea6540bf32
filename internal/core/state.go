package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/utils"
)

const (
	// DefaultStateTimeout is how long an untouched conversation keeps its
	// state before the sweeper resets it to idle.
	DefaultStateTimeout = 30 * time.Minute
	sweepInterval       = 5 * time.Minute
)

// ConversationState is everything remembered about an in-flight conversation.
type ConversationState struct {
	State State
	// Showroom is the chosen showroom key, set after city selection.
	Showroom string
	// SupportReason is carried into the agent note when a pending support
	// confirmation turns into a handoff.
	SupportReason string
	UpdatedAt     time.Time
}

// StateStore keeps per-conversation state in memory. Reads refresh the
// activity timestamp; a background sweeper drops entries idle past their
// timeout. Typed in-memory map rather than a byte cache because Update merges
// partial fields and Sweep enumerates entries, neither of which a
// serialize-only cache supports cleanly.
type StateStore struct {
	mu      sync.Mutex
	states  map[string]*ConversationState
	timeout time.Duration
}

func NewStateStore(timeout time.Duration) *StateStore {
	if timeout <= 0 {
		timeout = DefaultStateTimeout
	}
	return &StateStore{
		states:  make(map[string]*ConversationState),
		timeout: timeout,
	}
}

// Get returns the state for a conversation, creating an idle entry when none
// exists. The activity timestamp is refreshed on every call.
func (s *StateStore) Get(conversationID string) ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[conversationID]
	if !ok {
		entry = &ConversationState{State: StateIdle}
		s.states[conversationID] = entry
	}
	entry.UpdatedAt = time.Now()
	return *entry
}

// Update merges the given fields into the conversation's state. Empty fields
// are left as they were.
func (s *StateStore) Update(conversationID string, update ConversationState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[conversationID]
	if !ok {
		entry = &ConversationState{State: StateIdle}
		s.states[conversationID] = entry
	}
	if update.State != "" {
		entry.State = update.State
	}
	if update.Showroom != "" {
		entry.Showroom = update.Showroom
	}
	if update.SupportReason != "" {
		entry.SupportReason = update.SupportReason
	}
	entry.UpdatedAt = time.Now()
}

// Clear resets a conversation back to idle.
func (s *StateStore) Clear(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, conversationID)
}

// Count returns how many conversations currently hold state.
func (s *StateStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Sweep drops every entry idle longer than the timeout and returns how many
// were removed.
func (s *StateStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.timeout)
	removed := 0
	for id, entry := range s.states {
		if entry.UpdatedAt.Before(cutoff) {
			delete(s.states, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on a fixed interval until ctx is cancelled.
func (s *StateStore) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Sweep(); removed > 0 {
					utils.Zlog.Debug("Swept stale conversation states", zap.Int("removed", removed))
				}
			}
		}
	}()
}
