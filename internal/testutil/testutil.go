// Package testutil provides shared test helpers for setting up content trees and indexes.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/atelier/internal/index"
	"github.com/starford/atelier/internal/storage"
)

// WriteTree writes files, keyed by slash-separated path, under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for p, body := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// ContentRoot creates a temporary content root holding files.
func ContentRoot(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, files)
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// TestDB creates a temporary SQLite index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SyncedContent creates a content root from files and an index already
// synced with it.
func SyncedContent(t *testing.T, files map[string]string) (string, *storage.FS, *index.DB) {
	t.Helper()
	root, store := ContentRoot(t, files)
	db := TestDB(t)
	if err := index.Sync(db, store, nil); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return root, store, db
}
