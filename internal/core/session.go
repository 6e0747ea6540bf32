package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

const sessionLife = 24 * time.Hour

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Session ties a channel identity (website session id, WhatsApp phone) to the
// ticketing backend contact and conversation created for it.
type Session struct {
	ContactID      int       `json:"contact_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionStore keeps sessions for a day. Values are JSON blobs in a byte
// cache so the store stays allocation-friendly under churn.
type SessionStore struct {
	cache *bigcache.BigCache
}

func NewSessionStore() (*SessionStore, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(sessionLife))
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &SessionStore{cache: cache}, nil
}

func (s *SessionStore) Get(sessionID string) (Session, bool) {
	raw, err := s.cache.Get(sessionID)
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, false
	}
	return sess, true
}

func (s *SessionStore) Put(sessionID string, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.cache.Set(sessionID, raw); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(sessionID string) {
	_ = s.cache.Delete(sessionID)
}
