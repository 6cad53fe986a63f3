package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/gormrepo"
)

// OpenStore connects the configured backend and optionally migrates it.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) (*repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := NewSQLite(cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store := gormrepo.NewStore(db)
		if migrate {
			if err := MigrateSQLite(db, logger); err != nil {
				store.Close()
				return nil, err
			}
		}
		return store, nil
	case config.DriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if migrate {
			if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return repository.NewPostgresStore(pg.PoolHandle()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}
