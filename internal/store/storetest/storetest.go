// Package storetest opens throwaway stores for tests in other packages.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clubhouse/membership/internal/store/gormstore"
	"github.com/clubhouse/membership/pkg/tool"
)

// NewSQLite returns a migrated store on a private in-memory SQLite database.
func NewSQLite(t testing.TB) *gormstore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", tool.GenerateUUIDV7())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := gormstore.New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}
