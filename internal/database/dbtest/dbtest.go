// Package dbtest opens throwaway databases for tests
package dbtest

import (
	"path/filepath"
	"testing"

	"wellness-bot/internal/database"

	"gorm.io/gorm"
)

// Open opens a migrated SQLite database in t.TempDir
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "bot_test.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
