// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"educafric-tracking/internal/infrastructure/database/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormLogger "gorm.io/gorm/logger"
)

// NewTestDB returns a migrated, isolated in-memory SQLite database that is
// closed when the test ends.
func NewTestDB(t *testing.T) *postgres.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := postgres.Open(sqlite.Open(dsn), gormLogger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate())

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
