package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"voice-quiz-service/internal/domain"
)

// HistoryStore keeps per-user question history in Redis. A zero ttl keeps it forever.
type HistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHistoryStore(client *redis.Client, ttl time.Duration) *HistoryStore {
	return &HistoryStore{client: client, ttl: ttl}
}

func (s *HistoryStore) Load(ctx context.Context, userID string) (*domain.History, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrHistoryNotFound
	}
	if err != nil {
		return nil, err
	}
	var h domain.History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *HistoryStore) Save(ctx context.Context, userID string, history *domain.History) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userID), raw, s.ttl).Err()
}

func (s *HistoryStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *HistoryStore) key(userID string) string {
	return "quiz:history:" + userID
}
