package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"amparo/internal/config"
	"amparo/internal/logging"
)

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		logging.Warn().Msg("using in-memory store, data is lost on restart")
		return NewMemoryStore(), nil
	case "postgres":
		return openGorm(ctx, postgres.Open(cfg.PostgresURI), cfg, false)
	case "sqlite":
		dsn, inMemory := sqliteDSN(cfg.SQLitePath)
		return openGorm(ctx, sqlite.Open(dsn), cfg, inMemory)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// sqliteDSN enables foreign keys so the donation request cascade holds.
func sqliteDSN(path string) (string, bool) {
	inMemory := path == ":memory:"
	if inMemory {
		path = "file::memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)", inMemory
}

func openGorm(ctx context.Context, dialector gorm.Dialector, cfg config.DatabaseConfig, inMemory bool) (*GormStore, error) {
	name := dialector.Name()
	zl := logging.Logger().With().Str("component", "gorm").Str("driver", name).Logger()
	gormLogger := logger.New(&zl, logger.Config{
		SlowThreshold:             cfg.SlowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}

	store := NewGormStore(db)
	if cfg.AutoMigrate || inMemory {
		if err := store.AutoMigrate(); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logging.Info().Str("driver", name).Msg("database migrated")
	}
	return store, nil
}
