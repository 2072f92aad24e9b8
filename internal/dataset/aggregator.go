package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jo-hoe/digit-collector/internal/imaging"
	"github.com/jo-hoe/digit-collector/internal/storage"
)

// ErrEmptyDataset indicates that no samples have been collected yet.
var ErrEmptyDataset = errors.New("no images found in dataset")

// Stats summarizes the collected samples per digit class.
type Stats struct {
	PerLabel map[string]int `json:"stats"`
	Total    int            `json:"total"`
}

// Aggregator derives dataset-wide views by walking all ten label partitions
// of the object store. Every operation runs fresh against the store; nothing
// is cached between requests.
type Aggregator struct {
	store storage.ObjectStore
}

// NewAggregator creates an aggregator on top of the given store.
func NewAggregator(store storage.ObjectStore) *Aggregator {
	return &Aggregator{store: store}
}

// Stats counts stored samples per label and in total.
func (a *Aggregator) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{PerLabel: make(map[string]int, LabelCount)}
	for label := 0; label < LabelCount; label++ {
		names, err := a.store.List(ctx, strconv.Itoa(label))
		if err != nil {
			return nil, fmt.Errorf("failed to list label %d: %w", label, err)
		}
		stats.PerLabel[strconv.Itoa(label)] = len(names)
		stats.Total += len(names)
	}
	return stats, nil
}

// ListFiles returns the filenames of every stored sample, keyed by label.
// Labels without samples map to an empty list.
func (a *Aggregator) ListFiles(ctx context.Context) (map[string][]string, error) {
	result := make(map[string][]string, LabelCount)
	for label := 0; label < LabelCount; label++ {
		names, err := a.store.List(ctx, strconv.Itoa(label))
		if err != nil {
			return nil, fmt.Errorf("failed to list label %d: %w", label, err)
		}
		result[strconv.Itoa(label)] = names
	}
	return result, nil
}

// BuildZip packs every stored sample into a deflate-compressed archive,
// preserving the label/filename layout. A single failed fetch aborts the
// whole export; no partial archive is returned.
func (a *Aggregator) BuildZip(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	count := 0
	for label := 0; label < LabelCount; label++ {
		prefix := strconv.Itoa(label)
		names, err := a.store.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list label %d: %w", label, err)
		}
		for _, name := range names {
			key := prefix + "/" + name
			data, err := a.store.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to get %s: %w", key, err)
			}
			w, err := zw.Create(key)
			if err != nil {
				return nil, fmt.Errorf("zip create %s: %w", key, err)
			}
			if _, err := w.Write(data); err != nil {
				return nil, fmt.Errorf("zip write %s: %w", key, err)
			}
			count++
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	slog.Debug("built zip export", "samples", count, "size_bytes", buf.Len())
	return buf.Bytes(), nil
}

// BuildNumpy fetches every sample, decodes its pixels and packs the dataset
// into an npz container of X (stacked pixel grids) and y (parallel labels).
// Returns ErrEmptyDataset when nothing has been collected.
func (a *Aggregator) BuildNumpy(ctx context.Context) ([]byte, error) {
	var pixels []byte
	var labels []int64

	for label := 0; label < LabelCount; label++ {
		prefix := strconv.Itoa(label)
		names, err := a.store.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list label %d: %w", label, err)
		}
		for _, name := range names {
			key := prefix + "/" + name
			data, err := a.store.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to get %s: %w", key, err)
			}
			samplePixels, err := imaging.GrayPixels(data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", key, err)
			}
			pixels = append(pixels, samplePixels...)
			labels = append(labels, int64(label))
		}
	}

	if len(labels) == 0 {
		return nil, ErrEmptyDataset
	}

	slog.Debug("built numpy export", "samples", len(labels))
	return packNpz(pixels, labels)
}
