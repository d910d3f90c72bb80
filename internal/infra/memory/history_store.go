package memory

import (
	"context"
	"encoding/json"
	"sync"

	"voice-quiz-service/internal/domain"
)

// HistoryStore keeps per-user question history in process memory.
type HistoryStore struct {
	mu        sync.RWMutex
	histories map[string][]byte
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{histories: make(map[string][]byte)}
}

func (s *HistoryStore) Load(_ context.Context, userID string) (*domain.History, error) {
	s.mu.RLock()
	raw, ok := s.histories[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrHistoryNotFound
	}
	var h domain.History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *HistoryStore) Save(_ context.Context, userID string, history *domain.History) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.histories[userID] = raw
	s.mu.Unlock()
	return nil
}

func (s *HistoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.histories, userID)
	s.mu.Unlock()
	return nil
}
