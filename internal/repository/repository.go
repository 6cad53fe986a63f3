package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Sentinel errors shared by every storage backend.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
}

// ProfileRepository persists access profiles, their grants, page allowlists
// and user membership.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.AccessProfile) error
	Update(ctx context.Context, profile *domain.AccessProfile) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.AccessProfile, error)
	List(ctx context.Context) ([]domain.AccessProfile, error)

	ListGrants(ctx context.Context, profileID int64) ([]domain.Grant, error)
	// AddGrant ignores a grant the profile already holds.
	AddGrant(ctx context.Context, grant domain.Grant) error
	RemoveGrant(ctx context.Context, grant domain.Grant) error
	ReplaceGrants(ctx context.Context, profileID int64, grants []domain.Grant) error

	ListPages(ctx context.Context, profileID int64) ([]int64, error)
	ReplacePages(ctx context.Context, profileID int64, pageIDs []int64) error

	// LinkUser ignores an existing membership.
	LinkUser(ctx context.Context, userID, profileID int64) error
	UnlinkUser(ctx context.Context, userID, profileID int64) error
	ListForUser(ctx context.Context, userID int64) ([]domain.AccessProfile, error)
	ListMemberIDs(ctx context.Context, profileID int64) ([]int64, error)
	ListGrantsForUser(ctx context.Context, userID int64) ([]domain.Grant, error)
}

// TicketFilter captures listing parameters.
type TicketFilter struct {
	RequesterID *int64
	AssigneeID  *int64
	Statuses    []domain.TicketStatus
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts the ticket and stores the generated id on it.
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// Update writes every mutable column, updated_at included, in one statement.
	Update(ctx context.Context, ticket *domain.Ticket) error

	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	// ListByTicketNumber returns every ticket carrying number, newest first.
	ListByTicketNumber(ctx context.Context, number int) ([]domain.TicketRef, error)

	// TransitionStatus moves a ticket from one status to another and reports
	// whether a row matched both the id and the expected current status.
	TransitionStatus(ctx context.Context, id int64, from, to domain.TicketStatus, now time.Time) (bool, error)
	// ResolveClosedBefore resolves every closed ticket last updated before
	// cutoff and returns the affected ids.
	ResolveClosedBefore(ctx context.Context, cutoff, now time.Time) ([]int64, error)
}

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

// FormRepository reads intake form routing.
type FormRepository interface {
	Create(ctx context.Context, form *domain.Form) error
	GetByID(ctx context.Context, id int64) (*domain.Form, error)
}

// Store bundles every repository of one backend.
type Store struct {
	Users    UserRepository
	Profiles ProfileRepository
	Tickets  TicketRepository
	History  TicketHistoryRepository
	Forms    FormRepository
	Ping     func(ctx context.Context) error
	Close    func()
}
