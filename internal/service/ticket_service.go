package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/ticketid"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket intake and reads.
type TicketService struct {
	tickets    repository.TicketRepository
	forms      repository.FormRepository
	history    repository.TicketHistoryRepository
	codec      *ticketid.Codec
	dispatcher events.Dispatcher
	now        Clock
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	FormRepo    repository.FormRepository
	HistoryRepo repository.TicketHistoryRepository
	Codec       *ticketid.Codec
	Dispatcher  events.Dispatcher
	Clock       Clock
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	FormID      *int64
	AssigneeID  *int64
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	AssigneeID *int64
	Limit      int
	Offset     int
}

// Viewer identifies who is reading tickets. Non-staff viewers only see
// tickets they requested.
type Viewer struct {
	UserID int64
	Role   domain.Role
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		forms:      deps.FormRepo,
		history:    deps.HistoryRepo,
		codec:      deps.Codec,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
		logger:     logger,
	}
}

// CreateTicket creates a ticket for a requester. A form with an approval
// target starts the ticket in pending_approval.
func (s *TicketService) CreateTicket(ctx context.Context, requesterID int64, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errorutil.NewValidationError("title is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, errorutil.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	var form *domain.Form
	if input.FormID != nil {
		f, err := s.forms.GetByID(ctx, *input.FormID)
		if err != nil {
			return nil, repoError(err, "form", map[string]any{"id": *input.FormID})
		}
		form = f
	}

	number, err := s.codec.NextTicketNumber(ctx)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	now := s.now()
	ticket := &domain.Ticket{
		TicketNumber: number,
		RequesterID:  requesterID,
		AssigneeID:   input.AssigneeID,
		FormID:       input.FormID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.InitialTicketStatus(form),
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, repoError(err, "ticket", nil)
	}

	s.publish(ctx, events.NewTicketEvent(events.EventTicketCreated, ticket.ID, &requesterID, now,
		events.TicketCreatedPayload{
			Code:     s.Code(ticket),
			Status:   ticket.Status,
			Priority: ticket.Priority,
			Title:    ticket.Title,
			FormID:   ticket.FormID,
		}))
	return ticket, nil
}

// Code returns the composite identifier of a ticket.
func (s *TicketService) Code(ticket *domain.Ticket) string {
	return s.codec.Encode(ticket.CreatedAt, ticket.TicketNumber)
}

// GetTicket loads a ticket by composite code or raw id.
func (s *TicketService) GetTicket(ctx context.Context, viewer Viewer, ref string) (*domain.Ticket, error) {
	id, err := resolveTicketRef(ctx, s.codec, ref)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "ticket", map[string]any{"id": ref})
	}
	if !viewer.Role.IsStaff() && ticket.RequesterID != viewer.UserID {
		return nil, errorutil.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListTickets returns tickets newest first.
func (s *TicketService) ListTickets(ctx context.Context, viewer Viewer, filter TicketListFilter) ([]domain.Ticket, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, errorutil.NewValidationError("unknown status", map[string]any{"status": st})
		}
	}
	repoFilter := repository.TicketFilter{
		AssigneeID: filter.AssigneeID,
		Statuses:   filter.Statuses,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if !viewer.Role.IsStaff() {
		requester := viewer.UserID
		repoFilter.RequesterID = &requester
	}
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return tickets, nil
}

// ListHistory returns the audit trail of a ticket, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, viewer Viewer, ref string) ([]domain.TicketHistory, error) {
	ticket, err := s.GetTicket(ctx, viewer, ref)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return entries, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func idString(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
