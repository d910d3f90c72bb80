package memory

import (
	"context"
	"encoding/json"
	"sync"

	"voice-quiz-service/internal/app"
	"voice-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository. Sessions are
// stored encoded so callers never share a live pointer with the store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string][]byte),
	}
}

func (s *SessionStore) Get(_ context.Context, conversationID string) (*app.Session, error) {
	s.mu.RLock()
	raw, ok := s.sessions[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var session app.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) Save(_ context.Context, session *app.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ConversationID] = raw
	return nil
}

func (s *SessionStore) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, conversationID)
	return nil
}

// Len reports the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
