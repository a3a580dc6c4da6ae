package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSetGetDelete(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "token", "def"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, ok, err := store.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || value != "def" {
		t.Fatalf("expected 'def', got %q (ok=%v)", value, ok)
	}

	if err := store.Delete(ctx, "token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "token"); ok {
		t.Fatalf("expected key to be deleted")
	}
	if err := store.Delete(ctx, "token"); err != nil {
		t.Fatalf("delete of missing key should not fail: %v", err)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazytodo.db")
	ctx := context.Background()

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := NewStore(first).Set(ctx, "token", "persisted"); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	value, ok, err := NewStore(second).Get(ctx, "token")
	if err != nil || !ok || value != "persisted" {
		t.Fatalf("expected persisted token, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected empty path to be rejected")
	}
}

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewStore(db), func() {
		_ = db.Close()
	}
}
