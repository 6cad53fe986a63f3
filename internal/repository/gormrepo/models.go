package gormrepo

import (
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type userModel struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type profileModel struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (profileModel) TableName() string { return "access_profiles" }

type grantModel struct {
	ProfileID int64  `gorm:"primaryKey;autoIncrement:false"`
	Resource  string `gorm:"primaryKey;size:32"`
	Action    string `gorm:"primaryKey;size:16"`
}

func (grantModel) TableName() string { return "profile_grants" }

type profilePageModel struct {
	ProfileID int64 `gorm:"primaryKey;autoIncrement:false"`
	PageID    int64 `gorm:"primaryKey;autoIncrement:false"`
}

func (profilePageModel) TableName() string { return "profile_pages" }

type membershipModel struct {
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	ProfileID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

func (membershipModel) TableName() string { return "user_access_profiles" }

type formModel struct {
	ID              int64  `gorm:"primaryKey"`
	Name            string `gorm:"size:255;not null"`
	ApprovalUserID  *int64
	ApprovalGroupID *int64
}

func (formModel) TableName() string { return "forms" }

// Timestamps are written by the services, never by gorm hooks.
type ticketModel struct {
	ID           int64  `gorm:"primaryKey"`
	TicketNumber int    `gorm:"not null;index"`
	RequesterID  int64  `gorm:"not null;index"`
	AssigneeID   *int64 `gorm:"index"`
	FormID       *int64
	Title        string `gorm:"size:255;not null"`
	Description  string `gorm:"type:text"`
	Status       string `gorm:"size:32;not null;index"`
	Priority     string `gorm:"size:16;not null"`
	ScheduledAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false;index"`
}

func (ticketModel) TableName() string { return "tickets" }

type historyModel struct {
	ID         int64  `gorm:"primaryKey"`
	TicketID   int64  `gorm:"not null;index"`
	ChangedBy  *int64
	ChangeType string    `gorm:"size:32;not null"`
	OldValue   string    `gorm:"type:text"`
	NewValue   string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false"`
}

func (historyModel) TableName() string { return "ticket_history" }

// Migrate creates or updates every table used by the store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&profileModel{},
		&grantModel{},
		&profilePageModel{},
		&membershipModel{},
		&formModel{},
		&ticketModel{},
		&historyModel{},
	)
}

// dbTime normalizes timestamps so SQLite's textual comparison orders them correctly.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func dbTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := dbTime(*t)
	return &v
}

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (m *profileModel) toDomain() domain.AccessProfile {
	return domain.AccessProfile{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (m *ticketModel) toDomain() domain.Ticket {
	return domain.Ticket{
		ID:           m.ID,
		TicketNumber: m.TicketNumber,
		RequesterID:  m.RequesterID,
		AssigneeID:   m.AssigneeID,
		FormID:       m.FormID,
		Title:        m.Title,
		Description:  m.Description,
		Status:       domain.TicketStatus(m.Status),
		Priority:     domain.TicketPriority(m.Priority),
		ScheduledAt:  m.ScheduledAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ticketFromDomain(t *domain.Ticket) *ticketModel {
	return &ticketModel{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		RequesterID:  t.RequesterID,
		AssigneeID:   t.AssigneeID,
		FormID:       t.FormID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		ScheduledAt:  dbTimePtr(t.ScheduledAt),
		CreatedAt:    dbTime(t.CreatedAt),
		UpdatedAt:    dbTime(t.UpdatedAt),
	}
}
