package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"peerprep/captcha/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	}
	migrateSchema      = func(db *gorm.DB) error { return db.AutoMigrate(&models.Attempt{}) }
	dropAttemptTableFn = func(db *gorm.DB) error { return db.Migrator().DropTable(&models.Attempt{}) }
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// subtest names contain '/', which sqlite would read as a path
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// DropAttemptTable removes the attempts table to force recorder errors.
func DropAttemptTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := dropAttemptTableFn(db); err != nil {
		panic(fmt.Sprintf("failed to drop attempt table: %v", err))
	}
}
