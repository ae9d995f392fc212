package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clubhouse/membership/internal/models"
	"github.com/clubhouse/membership/internal/store"
	cfgpkg "github.com/clubhouse/membership/pkg/config"
)

func TestNewStore_SQLite(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := &cfgpkg.Config{Database: cfgpkg.DBConfig{Driver: cfgpkg.DriverSQLite, DSN: "file:dbtest?mode=memory&cache=shared"}}

	s, err := NewStore(lc, zap.NewNop().Sugar(), cfg)
	require.NoError(t, err)
	Migrate(lc, zap.NewNop().Sugar(), s)

	lc.RequireStart()
	require.NoError(t, s.Ping(context.Background()))
	_, err = s.GetByEmail(context.Background(), models.NormalizeEmail(" Nobody@UBC.ca "))
	require.ErrorIs(t, err, store.ErrNotFound)
	lc.RequireStop()
}

func TestOpenGorm_EmptyDSN(t *testing.T) {
	_, err := OpenGorm(zap.NewNop().Sugar(), cfgpkg.DBConfig{Driver: cfgpkg.DriverPostgres})
	require.ErrorIs(t, err, gorm.ErrInvalidDB)
}
