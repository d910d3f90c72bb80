package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"voice-quiz-service/internal/domain"
)

// StaticDatasetLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticDatasetLoader struct {
	datasets map[string]*domain.Dataset
}

func NewStaticDatasetLoader(datasets map[string]*domain.Dataset) *StaticDatasetLoader {
	return &StaticDatasetLoader{datasets: datasets}
}

func (l *StaticDatasetLoader) LoadDataset(_ context.Context, datasetID string) (*domain.Dataset, error) {
	if ds, ok := l.datasets[datasetID]; ok {
		return ds, nil
	}
	return nil, domain.ErrDatasetNotFound
}

// FileDatasetLoader reads a dataset from a JSON file. The dataset id is informational.
type FileDatasetLoader struct {
	path string
}

func NewFileDatasetLoader(path string) *FileDatasetLoader {
	return &FileDatasetLoader{path: path}
}

func (l *FileDatasetLoader) LoadDataset(_ context.Context, datasetID string) (*domain.Dataset, error) {
	ds, err := ReadDatasetFile(l.path)
	if err != nil {
		return nil, err
	}
	if ds.ID == "" {
		ds.ID = datasetID
	}
	return ds, nil
}

// ReadDatasetFile decodes and normalizes a dataset JSON document.
func ReadDatasetFile(path string) (*domain.Dataset, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, domain.ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds domain.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := ds.Normalize(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return &ds, nil
}
