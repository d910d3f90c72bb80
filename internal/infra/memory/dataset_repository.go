package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"voice-quiz-service/internal/domain"
)

// DatasetLoader fetches quiz content from a backing store (file, Postgres, ...).
type DatasetLoader interface {
	LoadDataset(ctx context.Context, datasetID string) (*domain.Dataset, error)
}

// DatasetRepository caches datasets with TTL so content is not reloaded per turn.
type DatasetRepository struct {
	loader DatasetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDataset
}

type cachedDataset struct {
	dataset   *domain.Dataset
	expiresAt time.Time
}

// NewDatasetRepository caches forever when ttl is zero.
func NewDatasetRepository(loader DatasetLoader, ttl time.Duration) *DatasetRepository {
	return &DatasetRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDataset),
	}
}

func (r *DatasetRepository) GetDataset(ctx context.Context, datasetID string) (*domain.Dataset, error) {
	if ds, ok := r.cached(datasetID); ok {
		return ds, nil
	}

	result, err, _ := r.sf.Do(datasetID, func() (interface{}, error) {
		if ds, ok := r.cached(datasetID); ok {
			return ds, nil
		}
		ds, err := r.loader.LoadDataset(ctx, datasetID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[datasetID] = cachedDataset{
			dataset:   ds,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Dataset), nil
}

// Invalidate drops a cached dataset so the next read reloads it.
func (r *DatasetRepository) Invalidate(datasetID string) {
	r.mu.Lock()
	delete(r.cache, datasetID)
	r.mu.Unlock()
}

func (r *DatasetRepository) cached(datasetID string) (*domain.Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[datasetID]
	if !ok {
		return nil, false
	}
	if r.ttl > 0 && !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.dataset, true
}

func (r *DatasetRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
