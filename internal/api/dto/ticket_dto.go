package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	FormID      *int64                `json:"form_id"`
	AssigneeID  *int64                `json:"assignee_id"`
}

// UpdateTicketRequest payload for the generic editor. Absent fields are left
// unchanged; clear_assignee removes the assignee.
type UpdateTicketRequest struct {
	Title         *string                `json:"title"`
	Description   *string                `json:"description"`
	Status        *domain.TicketStatus   `json:"status"`
	Priority      *domain.TicketPriority `json:"priority"`
	AssigneeID    *int64                 `json:"assignee_id"`
	ClearAssignee bool                   `json:"clear_assignee"`
}

// ScheduleTicketRequest payload.
type ScheduleTicketRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// TicketResponse is the public ticket representation. Code is the composite
// identifier built from the creation date and the per-day number.
type TicketResponse struct {
	ID           int64                 `json:"id"`
	TicketNumber int                   `json:"ticket_number"`
	Code         string                `json:"code"`
	RequesterID  int64                 `json:"requester_id"`
	AssigneeID   *int64                `json:"assignee_id"`
	FormID       *int64                `json:"form_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	ScheduledAt  *time.Time            `json:"scheduled_at"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketHistoryResponse entry.
type TicketHistoryResponse struct {
	ID         int64                   `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	ChangedBy  *int64                  `json:"changed_by"`
	OldValue   string                  `json:"old_value"`
	NewValue   string                  `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}
