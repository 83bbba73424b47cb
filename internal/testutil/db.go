// Package testutil provides fixtures shared by the package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"inventory/m/internal/database"
	"inventory/m/internal/migrations"
)

// NewDB returns a migrated in-memory sqlite database closed with the test.
func NewDB(t testing.TB) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uuid.NewString())
	db, err := database.Open(database.SQLite, dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
