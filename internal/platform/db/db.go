package db

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clubhouse/membership/internal/store"
	"github.com/clubhouse/membership/internal/store/gormstore"
	"github.com/clubhouse/membership/internal/store/mongostore"
	cfgpkg "github.com/clubhouse/membership/pkg/config"
	gormzap "github.com/clubhouse/membership/pkg/gormlog"
)

// NewStore opens the backend selected by database.driver.
func NewStore(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *cfgpkg.Config) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Database.Driver {
	case cfgpkg.DriverMongo:
		s, err = mongostore.Connect(context.Background(), cfg.Database.MongoURI, cfg.Database.MongoDatabase)
		if err == nil {
			l.Infow("connected to mongo", "database", cfg.Database.MongoDatabase)
		}
	case cfgpkg.DriverPostgres, cfgpkg.DriverSQLite:
		var gdb *gorm.DB
		gdb, err = OpenGorm(l, cfg.Database)
		if err == nil {
			s = gormstore.New(gdb)
		}
	default:
		err = fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
	if err != nil {
		l.Errorf("failed to open store: %v", err)
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Infow("closing store", "driver", cfg.Database.Driver)
			return s.Close(ctx)
		},
	})
	return s, nil
}

// OpenGorm connects the postgres or sqlite driver with the zap query logger.
func OpenGorm(l *zap.SugaredLogger, c cfgpkg.DBConfig) (*gorm.DB, error) {
	if c.DSN == "" {
		l.Error("database DSN is empty")
		return nil, gorm.ErrInvalidDB
	}
	var dialector gorm.Dialector
	if c.Driver == cfgpkg.DriverSQLite {
		dialector = sqlite.Open(c.DSN)
	} else {
		dialector = postgres.Open(c.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormzap.New(l), TranslateError: true})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to database via DSN", "driver", c.Driver)
	return db, nil
}

// Migrate creates tables or indexes on startup.
func Migrate(lc fx.Lifecycle, l *zap.SugaredLogger, s store.Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.Migrate(ctx); err != nil {
				l.Errorf("migrate failed: %v", err)
				return err
			}
			l.Infow("migrate completed")
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Invoke(Migrate),
)
