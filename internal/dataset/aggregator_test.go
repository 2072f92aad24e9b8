package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/jo-hoe/digit-collector/internal/imaging"
	"github.com/jo-hoe/digit-collector/internal/storage"
)

// canonicalSample encodes a 28x28 grayscale PNG with every pixel set to value
func canonicalSample(t *testing.T, value uint8) []byte {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, imaging.CanonicalWidth, imaging.CanonicalHeight))
	for i := range img.Pix {
		img.Pix[i] = value
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test sample: %v", err)
	}
	return buf.Bytes()
}

func newTestAggregator(t *testing.T) (*Aggregator, storage.ObjectStore) {
	t.Helper()

	store, err := storage.NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return NewAggregator(store), store
}

func mustPut(t *testing.T, store storage.ObjectStore, key string, data []byte) {
	t.Helper()
	if err := store.Put(context.Background(), key, data, "image/png"); err != nil {
		t.Fatalf("Failed to put %s: %v", key, err)
	}
}

func TestAggregator_Stats(t *testing.T) {
	agg, store := newTestAggregator(t)
	sample := canonicalSample(t, 128)
	mustPut(t, store, "3/a.png", sample)
	mustPut(t, store, "3/b.png", sample)
	mustPut(t, store, "7/c.png", sample)

	stats, err := agg.Stats(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(stats.PerLabel) != LabelCount {
		t.Errorf("Expected %d label entries, got %d", LabelCount, len(stats.PerLabel))
	}
	if stats.PerLabel["3"] != 2 {
		t.Errorf("Expected 2 samples for label 3, got %d", stats.PerLabel["3"])
	}
	if stats.PerLabel["7"] != 1 {
		t.Errorf("Expected 1 sample for label 7, got %d", stats.PerLabel["7"])
	}
	if stats.PerLabel["0"] != 0 {
		t.Errorf("Expected 0 samples for label 0, got %d", stats.PerLabel["0"])
	}
	if stats.Total != 3 {
		t.Errorf("Expected total 3, got %d", stats.Total)
	}
}

func TestAggregator_StatsEmptyDataset(t *testing.T) {
	agg, _ := newTestAggregator(t)

	stats, err := agg.Stats(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if stats.Total != 0 {
		t.Errorf("Expected total 0, got %d", stats.Total)
	}
	for label, count := range stats.PerLabel {
		if count != 0 {
			t.Errorf("Expected 0 samples for label %s, got %d", label, count)
		}
	}
}

func TestAggregator_ListFiles(t *testing.T) {
	agg, store := newTestAggregator(t)
	sample := canonicalSample(t, 128)
	mustPut(t, store, "4/a.png", sample)
	mustPut(t, store, "4/b.png", sample)

	files, err := agg.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(files) != LabelCount {
		t.Errorf("Expected %d label entries, got %d", LabelCount, len(files))
	}
	if len(files["4"]) != 2 {
		t.Errorf("Expected 2 filenames for label 4, got %v", files["4"])
	}
	// Empty partitions must still serialize as lists, not null.
	if files["8"] == nil {
		t.Error("Expected empty partition to map to an empty list, got nil")
	}
}

func TestAggregator_BuildZip(t *testing.T) {
	agg, store := newTestAggregator(t)
	first := canonicalSample(t, 10)
	second := canonicalSample(t, 200)
	mustPut(t, store, "2/x.png", first)
	mustPut(t, store, "9/z.png", second)

	data, err := agg.BuildZip(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Expected valid zip archive, got %v", err)
	}

	entries := make(map[string][]byte)
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = content
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 archive entries, got %d", len(entries))
	}
	if !bytes.Equal(entries["2/x.png"], first) {
		t.Error("Expected entry 2/x.png to be byte-identical to stored content")
	}
	if !bytes.Equal(entries["9/z.png"], second) {
		t.Error("Expected entry 9/z.png to be byte-identical to stored content")
	}
}

func TestAggregator_BuildZipEmptyDataset(t *testing.T) {
	agg, _ := newTestAggregator(t)

	data, err := agg.BuildZip(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Expected valid zip archive, got %v", err)
	}
	if len(reader.File) != 0 {
		t.Errorf("Expected empty archive, got %d entries", len(reader.File))
	}
}

func TestAggregator_BuildNumpy(t *testing.T) {
	agg, store := newTestAggregator(t)
	mustPut(t, store, "1/a.png", canonicalSample(t, 0))
	mustPut(t, store, "1/b.png", canonicalSample(t, 0))
	mustPut(t, store, "5/c.png", canonicalSample(t, 255))

	data, err := agg.BuildNumpy(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Expected valid npz container, got %v", err)
	}

	arrays := make(map[string][]byte)
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		arrays[f.Name] = content
	}

	xRaw, ok := arrays["X.npy"]
	if !ok {
		t.Fatal("Expected X.npy entry in npz container")
	}
	yRaw, ok := arrays["y.npy"]
	if !ok {
		t.Fatal("Expected y.npy entry in npz container")
	}

	pixelCount := imaging.CanonicalWidth * imaging.CanonicalHeight

	xHeader, xData := parseNpy(t, xRaw)
	if !strings.Contains(xHeader, "'shape': (3, 28, 28)") {
		t.Errorf("Expected X shape (3, 28, 28), got header %q", xHeader)
	}
	if len(xData) != 3*pixelCount {
		t.Fatalf("Expected %d pixel bytes, got %d", 3*pixelCount, len(xData))
	}
	for i := 0; i < pixelCount; i++ {
		if xData[i] != 0 {
			t.Fatalf("Expected first sample pixels to be 0, got %d at index %d", xData[i], i)
		}
	}
	for i := 2 * pixelCount; i < 3*pixelCount; i++ {
		if xData[i] != 255 {
			t.Fatalf("Expected last sample pixels to be 255, got %d at index %d", xData[i], i)
		}
	}

	yHeader, yData := parseNpy(t, yRaw)
	if !strings.Contains(yHeader, "'shape': (3,)") {
		t.Errorf("Expected y shape (3,), got header %q", yHeader)
	}
	if !bytes.Equal(yData, int64LEBytes([]int64{1, 1, 5})) {
		t.Errorf("Expected labels [1 1 5], got %v", yData)
	}
}

func TestAggregator_BuildNumpyEmptyDataset(t *testing.T) {
	agg, _ := newTestAggregator(t)

	_, err := agg.BuildNumpy(context.Background())
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("Expected ErrEmptyDataset, got %v", err)
	}
}

func TestAggregator_BuildNumpyRejectsCorruptSample(t *testing.T) {
	agg, store := newTestAggregator(t)
	mustPut(t, store, "3/bad.png", []byte("not image data"))

	if _, err := agg.BuildNumpy(context.Background()); err == nil {
		t.Error("Expected error for corrupt sample, got nil")
	}
}

// failingGetStore lists normally but fails every fetch.
type failingGetStore struct {
	storage.ObjectStore
}

func (f failingGetStore) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.New("backend unavailable")
}

func TestAggregator_ExportsAbortOnFetchFailure(t *testing.T) {
	_, store := newTestAggregator(t)
	mustPut(t, store, "6/a.png", canonicalSample(t, 128))

	agg := NewAggregator(failingGetStore{ObjectStore: store})

	if _, err := agg.BuildZip(context.Background()); err == nil {
		t.Error("Expected zip export to abort on fetch failure, got nil")
	}
	if _, err := agg.BuildNumpy(context.Background()); err == nil {
		t.Error("Expected numpy export to abort on fetch failure, got nil")
	}
}
