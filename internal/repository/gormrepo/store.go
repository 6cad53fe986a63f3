// Package gormrepo implements the repository interfaces on gorm, used for
// SQLite deployments and for tests.
package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// NewStore wires every gorm repository around one handle.
func NewStore(db *gorm.DB) *repository.Store {
	return &repository.Store{
		Users:    &userRepository{db: db},
		Profiles: &profileRepository{db: db},
		Tickets:  &ticketRepository{db: db},
		History:  &historyRepository{db: db},
		Forms:    &formRepository{db: db},
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	}
	return err
}
