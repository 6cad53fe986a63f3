package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/ticketid"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// LifecycleService applies ticket status transitions. Permission checks
// happen before it is called; it only enforces transition legality.
type LifecycleService struct {
	tickets       repository.TicketRepository
	history       repository.TicketHistoryRepository
	codec         *ticketid.Codec
	dispatcher    events.Dispatcher
	now           Clock
	closedResolve time.Duration
	logger        *zap.Logger
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Codec       *ticketid.Codec
	Dispatcher  events.Dispatcher
	Clock       Clock
	// ClosedResolveAfter is how long a ticket stays closed before the sweep resolves it.
	ClosedResolveAfter time.Duration
	Logger             *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	closedResolve := deps.ClosedResolveAfter
	if closedResolve <= 0 {
		closedResolve = 24 * time.Hour
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		tickets:       deps.TicketRepo,
		history:       deps.HistoryRepo,
		codec:         deps.Codec,
		dispatcher:    deps.Dispatcher,
		now:           clockOrNow(deps.Clock),
		closedResolve: closedResolve,
		logger:        logger,
	}
}

// Approve moves a pending_approval ticket to open.
func (s *LifecycleService) Approve(ctx context.Context, actorID int64, ref string) (*domain.Ticket, error) {
	return s.decide(ctx, actorID, ref, domain.TicketStatusOpen)
}

// Reject moves a pending_approval ticket to rejected.
func (s *LifecycleService) Reject(ctx context.Context, actorID int64, ref string) (*domain.Ticket, error) {
	return s.decide(ctx, actorID, ref, domain.TicketStatusRejected)
}

func (s *LifecycleService) decide(ctx context.Context, actorID int64, ref string, to domain.TicketStatus) (*domain.Ticket, error) {
	id, err := resolveTicketRef(ctx, s.codec, ref)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.tickets.TransitionStatus(ctx, id, domain.TicketStatusPendingApproval, to, now)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "ticket", map[string]any{"id": ref})
	}
	if !ok {
		return nil, errorutil.NewInvalidTransition("ticket is not pending approval", map[string]any{
			"status": ticket.Status,
		})
	}

	s.afterStatusChange(ctx, &actorID, ticket.ID, domain.TicketStatusPendingApproval, to, now)
	return ticket, nil
}

// Schedule sets scheduled_at and moves the ticket to scheduled from any status.
func (s *LifecycleService) Schedule(ctx context.Context, actorID int64, ref string, at time.Time) (*domain.Ticket, error) {
	now := s.now()
	if at.IsZero() || !at.After(now) {
		return nil, errorutil.NewValidationError("scheduled_at must be in the future", map[string]any{
			"scheduled_at": at,
		})
	}
	ticket, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	old := ticket.Status
	scheduled := at
	ticket.ScheduledAt = &scheduled
	ticket.Status = domain.TicketStatusScheduled
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, repoError(err, "ticket", map[string]any{"id": ref})
	}

	s.recordHistory(ctx, &actorID, ticket.ID, domain.ChangeTypeSchedule, "", at.Format(time.RFC3339), now)
	s.publish(ctx, events.NewTicketEvent(events.EventTicketScheduled, ticket.ID, &actorID, now,
		events.TicketScheduledPayload{ScheduledAt: &scheduled}))
	if old != domain.TicketStatusScheduled {
		s.afterStatusChange(ctx, &actorID, ticket.ID, old, domain.TicketStatusScheduled, now)
	}
	return ticket, nil
}

// Unschedule clears scheduled_at and resets the ticket to open.
func (s *LifecycleService) Unschedule(ctx context.Context, actorID int64, ref string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.now()
	old := ticket.Status
	var previous string
	if ticket.ScheduledAt != nil {
		previous = ticket.ScheduledAt.Format(time.RFC3339)
	}
	ticket.ScheduledAt = nil
	ticket.Status = domain.TicketStatusOpen
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, repoError(err, "ticket", map[string]any{"id": ref})
	}

	s.recordHistory(ctx, &actorID, ticket.ID, domain.ChangeTypeSchedule, previous, "", now)
	s.publish(ctx, events.NewTicketEvent(events.EventTicketScheduled, ticket.ID, &actorID, now,
		events.TicketScheduledPayload{}))
	if old != domain.TicketStatusOpen {
		s.afterStatusChange(ctx, &actorID, ticket.ID, old, domain.TicketStatusOpen, now)
	}
	return ticket, nil
}

// TicketUpdateInput lists the fields the generic editor may change. Nil
// fields are left alone; ClearAssignee removes the assignee.
type TicketUpdateInput struct {
	Title         *string
	Description   *string
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	AssigneeID    *int64
	ClearAssignee bool
}

// UpdateTicket is the permissive editor: any enumerated status may be set
// directly, without consulting the transition graph.
func (s *LifecycleService) UpdateTicket(ctx context.Context, actorID int64, ref string, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, errorutil.NewValidationError("unknown status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, errorutil.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
	}
	if input.Title != nil && *input.Title == "" {
		return nil, errorutil.NewValidationError("title must not be empty", nil)
	}

	ticket, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	before := *ticket

	if input.Title != nil {
		ticket.Title = *input.Title
	}
	if input.Description != nil {
		ticket.Description = *input.Description
	}
	if input.Status != nil {
		ticket.Status = *input.Status
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	switch {
	case input.ClearAssignee:
		ticket.AssigneeID = nil
	case input.AssigneeID != nil:
		assignee := *input.AssigneeID
		ticket.AssigneeID = &assignee
	}

	now := s.now()
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, repoError(err, "ticket", map[string]any{"id": ref})
	}

	if before.Priority != ticket.Priority {
		s.recordHistory(ctx, &actorID, ticket.ID, domain.ChangeTypePriority, string(before.Priority), string(ticket.Priority), now)
	}
	if idString(before.AssigneeID) != idString(ticket.AssigneeID) {
		s.recordHistory(ctx, &actorID, ticket.ID, domain.ChangeTypeAssignee, idString(before.AssigneeID), idString(ticket.AssigneeID), now)
	}
	if before.Status != ticket.Status {
		s.afterStatusChange(ctx, &actorID, ticket.ID, before.Status, ticket.Status, now)
	}
	return ticket, nil
}

// ResolveStaleClosed resolves every ticket that has stayed closed longer than
// the configured threshold. It is safe to run at any cadence, concurrently.
func (s *LifecycleService) ResolveStaleClosed(ctx context.Context) ([]int64, error) {
	now := s.now()
	ids, err := s.tickets.ResolveClosedBefore(ctx, now.Add(-s.closedResolve), now)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s.afterStatusChange(ctx, nil, id, domain.TicketStatusClosed, domain.TicketStatusResolved, now)
	}
	return ids, nil
}

func (s *LifecycleService) load(ctx context.Context, ref string) (*domain.Ticket, error) {
	id, err := resolveTicketRef(ctx, s.codec, ref)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "ticket", map[string]any{"id": ref})
	}
	return ticket, nil
}

func (s *LifecycleService) afterStatusChange(ctx context.Context, actorID *int64, ticketID int64, from, to domain.TicketStatus, now time.Time) {
	s.recordHistory(ctx, actorID, ticketID, domain.ChangeTypeStatus, string(from), string(to), now)
	s.publish(ctx, events.NewTicketEvent(events.EventTicketStatusChanged, ticketID, actorID, now,
		events.TicketStatusChangedPayload{OldStatus: from, NewStatus: to}))
}

// History entries are written after the ticket row commits; a failure is
// logged and does not undo the transition.
func (s *LifecycleService) recordHistory(ctx context.Context, actorID *int64, ticketID int64, change domain.TicketChangeType, oldValue, newValue string, now time.Time) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangedBy:  actorID,
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  now,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("record ticket history",
			zap.Int64("ticket_id", ticketID),
			zap.String("change_type", string(change)),
			zap.Error(err),
		)
	}
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
