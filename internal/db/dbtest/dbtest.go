// Package dbtest opens throwaway databases for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
)

// Open returns an in-memory sqlite database with the schema applied.
func Open(t testing.TB) *db.DB {
	t.Helper()
	d, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("dbtest.Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}
