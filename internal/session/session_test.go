package session

import (
	"os"
	"testing"
)

func TestFileStore(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "session_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	store, err := NewFileStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create FileStore: %v", err)
	}

	key := "planmymeals:meal-plans:view-state"

	t.Run("MissingKeyReadsAbsent", func(t *testing.T) {
		if _, ok := store.Get(key); ok {
			t.Error("expected absent key")
		}
	})

	t.Run("SetThenGet", func(t *testing.T) {
		if err := store.Set(key, []byte(`{"a":1}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		data, ok := store.Get(key)
		if !ok || string(data) != `{"a":1}` {
			t.Errorf("Get = (%q, %v), want ({\"a\":1}, true)", data, ok)
		}
	})

	t.Run("DeleteRemovesKey", func(t *testing.T) {
		if err := store.Delete(key); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok := store.Get(key); ok {
			t.Error("expected key to be gone after Delete")
		}
	})

	t.Run("DeleteAbsentKeyIsNoError", func(t *testing.T) {
		if err := store.Delete("planmymeals:never-written"); err != nil {
			t.Errorf("Delete of absent key returned error: %v", err)
		}
	})

	t.Run("ResetRemovesEverything", func(t *testing.T) {
		store.Set("planmymeals:one", []byte("1"))
		store.Set("planmymeals:two", []byte("2"))
		if err := store.Reset(); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		if _, ok := store.Get("planmymeals:one"); ok {
			t.Error("expected store to be empty after Reset")
		}
		if _, ok := store.Get("planmymeals:two"); ok {
			t.Error("expected store to be empty after Reset")
		}
	})
}
