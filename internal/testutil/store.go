// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/gormrepo"
)

var dbSeq atomic.Int64

// NewStore returns a migrated store backed by a private in-memory SQLite database.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))
	db, err := persistence.OpenGorm(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gormrepo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := gormrepo.NewStore(db)
	t.Cleanup(store.Close)
	return store
}

// CreateUser inserts a user with the given role.
func CreateUser(t testing.TB, store *repository.Store, name string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:         name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := store.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

// CreateProfile inserts a profile holding the given "resource:action" grants.
func CreateProfile(t testing.TB, store *repository.Store, name string, grants ...string) *domain.AccessProfile {
	t.Helper()
	ctx := context.Background()
	profile := &domain.AccessProfile{Name: name}
	if err := store.Profiles.Create(ctx, profile); err != nil {
		t.Fatalf("create profile %s: %v", name, err)
	}
	for _, raw := range grants {
		perm, err := domain.ParsePermission(raw)
		if err != nil {
			t.Fatalf("parse grant %q: %v", raw, err)
		}
		resource, action := perm.Parse()
		grant := domain.Grant{ProfileID: profile.ID, Resource: resource, Action: action}
		if err := store.Profiles.AddGrant(ctx, grant); err != nil {
			t.Fatalf("add grant %q: %v", raw, err)
		}
	}
	return profile
}

// CreateTicket inserts a ticket created at the given instant.
func CreateTicket(t testing.TB, store *repository.Store, requester int64, number int, status domain.TicketStatus, createdAt time.Time) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		TicketNumber: number,
		RequesterID:  requester,
		Title:        fmt.Sprintf("ticket %d", number),
		Status:       status,
		Priority:     domain.TicketPriorityMedium,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := store.Tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

// FixedClock is a settable clock for tests.
type FixedClock struct {
	now atomic.Pointer[time.Time]
}

// NewFixedClock returns a clock reading at.
func NewFixedClock(at time.Time) *FixedClock {
	c := &FixedClock{}
	c.Set(at)
	return c
}

// Now returns the current reading.
func (c *FixedClock) Now() time.Time { return *c.now.Load() }

// Set moves the clock.
func (c *FixedClock) Set(at time.Time) { c.now.Store(&at) }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }
