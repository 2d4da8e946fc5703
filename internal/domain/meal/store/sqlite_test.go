package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"calotrack-server-go/internal/platform/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := storage.OpenMemory(fmt.Sprintf("refstore-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	store, err := NewSQLite(db, Config{Key: "posted_meal_id"})
	if err != nil {
		t.Fatalf("NewSQLite error: %v", err)
	}

	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("expected empty store, found=%v err=%v", found, err)
	}

	if err := store.Save(ctx, "meal-sqlite"); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	id, found, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !found || id != "meal-sqlite" {
		t.Fatalf("unexpected reference: id=%q found=%v", id, found)
	}

	// Overwrite keeps a single row per key.
	if err := store.Save(ctx, "meal-next"); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if id, _, _ := store.Load(ctx); id != "meal-next" {
		t.Fatalf("expected overwritten reference, got %q", id)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, found, _ := store.Load(ctx); found {
		t.Fatal("expected no reference after clear")
	}
}

func TestSQLiteStoreRequiresHandle(t *testing.T) {
	if _, err := NewSQLite(nil, Config{}); err == nil {
		t.Fatal("expected error for missing database handle")
	}
}
