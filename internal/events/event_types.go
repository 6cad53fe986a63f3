package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketScheduled     EventType = "ticket_scheduled"
	EventProfileChanged      EventType = "profile_changed"
)

// Event represents a domain event emitted by services. ActorID is nil for
// changes made by the system itself.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id,omitempty"`
	ProfileID int64     `json:"profile_id,omitempty"`
	ActorID   *int64    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewTicketEvent stamps a ticket event with a fresh id.
func NewTicketEvent(eventType EventType, ticketID int64, actorID *int64, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: at,
		Payload:   payload,
	}
}

// NewProfileEvent stamps a profile event with a fresh id.
func NewProfileEvent(profileID int64, actorID *int64, at time.Time, payload ProfileChangedPayload) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventProfileChanged,
		ProfileID: profileID,
		ActorID:   actorID,
		Timestamp: at,
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Code     string                `json:"code"`
	Status   domain.TicketStatus   `json:"status"`
	Priority domain.TicketPriority `json:"priority"`
	Title    string                `json:"title"`
	FormID   *int64                `json:"form_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketScheduledPayload payload. ScheduledAt is nil when a schedule is cleared.
type TicketScheduledPayload struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// ProfileChangedPayload describes a profile mutation.
type ProfileChangedPayload struct {
	Change string `json:"change"`
	UserID *int64 `json:"user_id,omitempty"`
}
