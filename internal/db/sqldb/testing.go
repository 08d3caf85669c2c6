package sqldb

import (
	"context"
	"testing"
)

// NewMemoryForTest opens a migrated in-memory SQLite database closed with t.
func NewMemoryForTest(t testing.TB) *DB {
	t.Helper()
	d, err := Open(context.Background(), Config{Dialect: SQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}
