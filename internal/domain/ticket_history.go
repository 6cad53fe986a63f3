package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "status_change"
	ChangeTypeSchedule TicketChangeType = "schedule_change"
	ChangeTypeAssignee TicketChangeType = "assignee_change"
	ChangeTypePriority TicketChangeType = "priority_change"
)

// TicketHistory is an immutable audit trail entry. ChangedBy is nil for
// system-driven changes such as the closed ticket sweep.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ChangedBy  *int64
	ChangeType TicketChangeType
	OldValue   string
	NewValue   string
	CreatedAt  time.Time
}
