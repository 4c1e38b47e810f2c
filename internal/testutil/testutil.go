// Package testutil provides shared test helpers for setting up stores,
// transfer directories and catalogs.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/cinesuite/internal/catalog"
	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/slot"
	"github.com/starford/cinesuite/internal/storage"
)

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestCatalog creates a temporary SQLite catalog that is automatically cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cinesuite-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFiles creates a temporary transfer directory with a storage.Provider.
func TestFiles(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = files.Close() })
	return dir, files
}

// TestStore opens a store over an in-memory slot. The store starts with the
// demo project.
func TestStore(t *testing.T, opts ...projectstore.Option) (*projectstore.Store, *slot.Memory) {
	t.Helper()
	sl := slot.NewMemory()
	opts = append([]projectstore.Option{projectstore.WithLogger(QuietLogger())}, opts...)
	st, err := projectstore.Open(context.Background(), sl, codec.Store{}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return st, sl
}
