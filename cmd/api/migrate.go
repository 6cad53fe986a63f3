package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := persistence.OpenStore(context.Background(), cfg, true, logger)
	if err != nil {
		logger.Error("migrate failed", zap.Error(err))
		return err
	}
	store.Close()
	logger.Info("migrate up: ok", zap.String("db_driver", cfg.Database.Driver))
	return nil
}
