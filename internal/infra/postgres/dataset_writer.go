package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"voice-quiz-service/internal/domain"
)

// DatasetRow is the datasets table as seen by bun.
type DatasetRow struct {
	bun.BaseModel `bun:"table:datasets"`

	ID        string          `bun:"id,pk"`
	Data      json.RawMessage `bun:"data,type:jsonb"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// DatasetWriter upserts quiz content; the serving path only reads it through DatasetLoader.
type DatasetWriter struct {
	db *bun.DB
}

func NewDatasetWriter(db *bun.DB) *DatasetWriter {
	return &DatasetWriter{db: db}
}

func (w *DatasetWriter) SaveDataset(ctx context.Context, ds *domain.Dataset) error {
	if ds.ID == "" {
		return fmt.Errorf("save dataset: %w: empty id", domain.ErrInvalidDataset)
	}
	raw, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	row := &DatasetRow{ID: ds.ID, Data: raw, UpdatedAt: time.Now().UTC()}
	_, err = w.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save dataset %q: %w", ds.ID, err)
	}
	return nil
}

// ListDatasets returns stored dataset ids, newest first.
func (w *DatasetWriter) ListDatasets(ctx context.Context) ([]string, error) {
	var ids []string
	err := w.db.NewSelect().
		Model((*DatasetRow)(nil)).
		Column("id").
		Order("updated_at DESC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return ids, nil
}
