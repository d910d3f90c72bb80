package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"voice-quiz-service/internal/domain"
)

// HistoryStore persists per-user question history as JSONB, one row per user.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) Load(ctx context.Context, userID string) (*domain.History, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM user_histories WHERE user_id=$1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var h domain.History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return &h, nil
}

func (s *HistoryStore) Save(ctx context.Context, userID string, history *domain.History) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO user_histories (user_id, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		userID, raw)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *HistoryStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM user_histories WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
