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

// DatasetLoader loads quiz dataset JSONB from Postgres.
type DatasetLoader struct {
	pool *pgxpool.Pool
}

func NewDatasetLoader(pool *pgxpool.Pool) *DatasetLoader {
	return &DatasetLoader{pool: pool}
}

func (l *DatasetLoader) LoadDataset(ctx context.Context, datasetID string) (*domain.Dataset, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM datasets WHERE id=$1`, datasetID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load dataset %q: %w", datasetID, domain.ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	var ds domain.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("unmarshal dataset: %w", err)
	}
	if err := ds.Normalize(); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, err)
	}
	ds.ID = datasetID
	return &ds, nil
}
