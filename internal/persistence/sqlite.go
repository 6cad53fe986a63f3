package persistence

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// NewSQLite opens the SQLite database at the configured path.
func NewSQLite(cfg config.SQLiteConfig, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	dsn := cfg.Path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := OpenGorm(sqlite.Open(dsn))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers.
	sqlDB.SetMaxOpenConns(1)

	logger.Info("opened sqlite database", zap.String("path", cfg.Path))
	return db, nil
}

// OpenGorm opens a gorm handle with the settings the repositories rely on.
func OpenGorm(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
