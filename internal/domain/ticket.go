package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusScheduled       TicketStatus = "scheduled"
	TicketStatusPendingApproval TicketStatus = "pending_approval"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
	TicketStatusRejected        TicketStatus = "rejected"
)

// TicketStatuses lists statuses in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusScheduled,
	TicketStatusPendingApproval,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusRejected,
}

// Valid reports enum membership.
func (s TicketStatus) Valid() bool {
	for _, known := range TicketStatuses {
		if known == s {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports enum membership.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
//
// TicketNumber restarts at 1 every civil day, so it is only unique together
// with the creation date. ID is the store-assigned global key.
type Ticket struct {
	ID           int64
	TicketNumber int
	RequesterID  int64
	AssigneeID   *int64
	FormID       *int64
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	ScheduledAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TicketRef is the minimal projection used to reverse composite identifiers.
type TicketRef struct {
	ID           int64
	TicketNumber int
	CreatedAt    time.Time
}
