package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"voice-quiz-service/internal/domain"
)

// DatasetLoader fetches quiz content from a backing store (file, Postgres, ...).
type DatasetLoader interface {
	LoadDataset(ctx context.Context, datasetID string) (*domain.Dataset, error)
}

// Hash fields of a cached dataset. Each holds one JSON-encoded section.
const (
	fieldQuestions = "questions"
	fieldAnswers   = "answers"
	fieldMisc      = "misc"
)

// DatasetRepository caches datasets in Redis (one hash per dataset) so several instances
// share one load, and falls back to a loader on cache miss.
// Stored as: HSET quiz:dataset:{datasetID} questions {json} answers {json} misc {json}
type DatasetRepository struct {
	client *redis.Client
	loader DatasetLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewDatasetRepository(client *redis.Client, loader DatasetLoader, ttl time.Duration) *DatasetRepository {
	return &DatasetRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *DatasetRepository) GetDataset(ctx context.Context, datasetID string) (*domain.Dataset, error) {
	key := r.key(datasetID)
	if ds, ok := r.fromCache(ctx, key, datasetID); ok {
		return ds, nil
	}

	result, err, _ := r.sf.Do(datasetID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if ds, ok := r.fromCache(ctx, key, datasetID); ok {
			return ds, nil
		}

		ds, err := r.loader.LoadDataset(ctx, datasetID)
		if err != nil {
			return nil, err
		}
		if err := r.store(ctx, key, ds); err != nil {
			return nil, err
		}
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Dataset), nil
}

// LoadDataset lets the Redis cache sit behind the in-process cache as its loader.
func (r *DatasetRepository) LoadDataset(ctx context.Context, datasetID string) (*domain.Dataset, error) {
	return r.GetDataset(ctx, datasetID)
}

// Invalidate drops the cached dataset for every instance.
func (r *DatasetRepository) Invalidate(ctx context.Context, datasetID string) error {
	return r.client.Del(ctx, r.key(datasetID)).Err()
}

func (r *DatasetRepository) fromCache(ctx context.Context, key, datasetID string) (*domain.Dataset, bool) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	ds, err := buildDatasetFromCache(datasetID, fields)
	if err != nil {
		return nil, false
	}
	return ds, true
}

func (r *DatasetRepository) store(ctx context.Context, key string, ds *domain.Dataset) error {
	sections := map[string]any{
		fieldQuestions: ds.Questions,
		fieldAnswers:   ds.Answers,
		fieldMisc:      ds.Misc,
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	for field, v := range sections {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode dataset %s: %w", field, err)
		}
		pipe.HSet(ctx, key, field, raw)
	}
	if ttl := r.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	// A failed cache write only costs a reload.
	_, _ = pipe.Exec(ctx)
	return nil
}

func (r *DatasetRepository) key(datasetID string) string {
	return "quiz:dataset:" + datasetID
}

func buildDatasetFromCache(datasetID string, fields map[string]string) (*domain.Dataset, error) {
	ds := &domain.Dataset{ID: datasetID}
	targets := map[string]any{
		fieldQuestions: &ds.Questions,
		fieldAnswers:   &ds.Answers,
		fieldMisc:      &ds.Misc,
	}
	for field, target := range targets {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(raw), target); err != nil {
			return nil, err
		}
	}
	if err := ds.Normalize(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *DatasetRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
