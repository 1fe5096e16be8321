package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/attendance-client/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated client state store backed by a temporary
// SQLite file.
type SQLiteHarness struct {
	Store *sqlite.Store
	Path  string
}

// NewSQLiteHarness opens a store in tb.TempDir. The store is closed when tb
// finishes.
func NewSQLiteHarness(tb testing.TB, opts ...sqlite.Option) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "attendance-client.db")
	store, err := sqlite.Open(context.Background(), path, opts...)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return &SQLiteHarness{Store: store, Path: path}
}
