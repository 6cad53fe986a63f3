package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresStore wires every pgx repository around one pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:    NewUserRepository(pool),
		Profiles: NewProfileRepository(pool),
		Tickets:  NewTicketRepository(pool),
		History:  NewTicketHistoryRepository(pool),
		Forms:    NewFormRepository(pool),
		Ping:     pool.Ping,
		Close:    pool.Close,
	}
}

// Healthy reports whether the backing database answers.
func (s *Store) Healthy(ctx context.Context) error {
	if s == nil || s.Ping == nil {
		return errors.New("store not configured")
	}
	return s.Ping(ctx)
}
