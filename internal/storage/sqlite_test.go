package storage

import (
	"context"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	runObjectStoreContract(t, newTestSQLiteStore(t))
}

func TestSQLiteStore_EmptyConnectionString(t *testing.T) {
	_, err := NewSQLiteStore("")
	if err == nil {
		t.Fatal("Expected error for empty connection string, got nil")
	}
}

func TestSQLiteStore_ListDoesNotCrossPartitions(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	// "1/x.png" must not leak into the "1x" prefix or vice versa.
	if err := store.Put(ctx, "1/x.png", []byte("one"), "image/png"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := store.Put(ctx, "10/y.png", []byte("ten"), "image/png"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	names, err := store.List(ctx, "1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(names) != 1 || names[0] != "x.png" {
		t.Errorf("Expected [x.png] under prefix 1, got %v", names)
	}
}
