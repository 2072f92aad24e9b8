package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/digit-collector/internal/dataset"
	"github.com/jo-hoe/digit-collector/internal/imaging"
	"github.com/jo-hoe/digit-collector/internal/storage"
)

// CoreService owns the storage backend and the dataset views derived from it.
// It is constructed once at startup and injected into every handler; there is
// no other process-wide state.
type CoreService struct {
	store      storage.ObjectStore
	aggregator *dataset.Aggregator
}

// NewCoreService initializes the storage backend selected by the config.
// Storage is the sole source of truth, so failing to reach it at startup is
// fatal.
func NewCoreService(config *ServiceConfig) *CoreService {
	store, err := getObjectStore(config)
	if err != nil {
		slog.Error("failed to initialize object store", "error", err)
		panic(err)
	}
	return NewCoreServiceWithStore(store)
}

// NewCoreServiceWithStore wraps an already-constructed store. Tests use it to
// run the service against temporary backends.
func NewCoreServiceWithStore(store storage.ObjectStore) *CoreService {
	return &CoreService{
		store:      store,
		aggregator: dataset.NewAggregator(store),
	}
}

// SaveSample validates the label, normalizes the uploaded image to the
// canonical grayscale form and stores it under its label partition. The
// returned sample carries the generated filename and storage key.
func (service *CoreService) SaveSample(ctx context.Context, imageData []byte, labelValue string) (*dataset.Sample, error) {
	label, err := dataset.ParseLabel(labelValue)
	if err != nil {
		return nil, err
	}

	normalized, err := imaging.Normalize(imageData)
	if err != nil {
		return nil, err
	}

	sample, err := dataset.NewSample(label, time.Now())
	if err != nil {
		return nil, err
	}

	if err := service.store.Put(ctx, sample.Key, normalized, "image/png"); err != nil {
		return nil, fmt.Errorf("failed to store sample %s: %w", sample.Key, err)
	}

	slog.Info("sample stored", "key", sample.Key, "label", label, "size_bytes", len(normalized))
	return sample, nil
}

// DatasetStats returns per-label and total sample counts.
func (service *CoreService) DatasetStats(ctx context.Context) (*dataset.Stats, error) {
	return service.aggregator.Stats(ctx)
}

// ListFiles returns every stored filename, keyed by label.
func (service *CoreService) ListFiles(ctx context.Context) (map[string][]string, error) {
	return service.aggregator.ListFiles(ctx)
}

// ExportZip builds a fresh archive of the whole corpus.
func (service *CoreService) ExportZip(ctx context.Context) ([]byte, error) {
	return service.aggregator.BuildZip(ctx)
}

// ExportNumpy builds a fresh packed-array container of the whole corpus.
func (service *CoreService) ExportNumpy(ctx context.Context) ([]byte, error) {
	return service.aggregator.BuildNumpy(ctx)
}

// Close releases the storage backend.
func (service *CoreService) Close() error {
	return service.store.Close()
}

func getObjectStore(config *ServiceConfig) (storage.ObjectStore, error) {
	store, err := storage.NewObjectStore(context.Background(), &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	slog.Info("storage backend initialized", "type", config.Storage.Type)
	return store, nil
}
