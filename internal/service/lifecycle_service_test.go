package service_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var base = time.Date(2026, 1, 22, 15, 0, 0, 0, time.UTC)

func ref(id int64) string { return strconv.FormatInt(id, 10) }

func TestApproveAndReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, base)
	user := testutil.CreateUser(t, f.store, "Requester", domain.RoleUser)
	approver := testutil.CreateUser(t, f.store, "Approver", domain.RoleAgent)
	a := testutil.CreateTicket(t, f.store, user.ID, 1, domain.TicketStatusPendingApproval, base.Add(-time.Hour))
	b := testutil.CreateTicket(t, f.store, user.ID, 2, domain.TicketStatusPendingApproval, base.Add(-time.Hour))

	got, err := f.lifecycle.Approve(ctx, approver.ID, ref(a.ID))
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.TicketStatusOpen || !got.UpdatedAt.Equal(base) {
		t.Fatalf("unexpected ticket after approve %+v", got)
	}

	code := f.codec.Encode(b.CreatedAt, b.TicketNumber)
	got, err = f.lifecycle.Reject(ctx, approver.ID, code)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.TicketStatusRejected {
		t.Fatalf("expected rejected, got %s", got.Status)
	}

	history, err := f.store.History.ListByTicket(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].OldValue != "pending_approval" || history[0].NewValue != "open" {
		t.Fatalf("unexpected history %+v", history)
	}
	if history[0].ChangedBy == nil || *history[0].ChangedBy != approver.ID {
		t.Fatal("history should record the approver")
	}
}

func TestApproveRequiresPendingApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, base)
	user := testutil.CreateUser(t, f.store, "Requester", domain.RoleUser)
	created := base.Add(-time.Hour)
	ticket := testutil.CreateTicket(t, f.store, user.ID, 1, domain.TicketStatusOpen, created)

	_, err := f.lifecycle.Approve(ctx, user.ID, ref(ticket.ID))
	if !errorutil.HasCode(err, errorutil.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
	if de := errorutil.ToDomainError(err); de.Details["status"] != domain.TicketStatusOpen {
		t.Fatalf("expected current status in details, got %v", de.Details)
	}
	_, err = f.lifecycle.Reject(ctx, user.ID, ref(ticket.ID))
	if !errorutil.HasCode(err, errorutil.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION on reject, got %v", err)
	}

	stored, err := f.store.Tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.UpdatedAt.Equal(created) {
		t.Fatalf("updated_at changed: %v", stored.UpdatedAt)
	}
}

func TestTransitionsOnMissingTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, base)

	for name, call := range map[string]func() error{
		"approve": func() error { _, err := f.lifecycle.Approve(ctx, 1, "999"); return err },
		"decode":  func() error { _, err := f.lifecycle.Reject(ctx, 1, "20260122001"); return err },
		"junk":    func() error { _, err := f.lifecycle.Unschedule(ctx, 1, "abc"); return err },
	} {
		if err := call(); !errorutil.HasCode(err, errorutil.CodeNotFound) {
			t.Errorf("%s: expected NOT_FOUND, got %v", name, err)
		}
	}
}

func TestScheduleAndUnschedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, base)
	user := testutil.CreateUser(t, f.store, "Requester", domain.RoleUser)
	ticket := testutil.CreateTicket(t, f.store, user.ID, 1, domain.TicketStatusResolved, base.Add(-time.Hour))

	if _, err := f.lifecycle.Schedule(ctx, user.ID, ref(ticket.ID), base.Add(-time.Minute)); !errorutil.HasCode(err, errorutil.CodeValidation) {
		t.Fatalf("past schedule should fail validation, got %v", err)
	}

	at := base.Add(48 * time.Hour)
	got, err := f.lifecycle.Schedule(ctx, user.ID, ref(ticket.ID), at)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.TicketStatusScheduled || got.ScheduledAt == nil {
		t.Fatalf("unexpected scheduled ticket %+v", got)
	}
	stored, _ := f.store.Tickets.GetByID(ctx, ticket.ID)
	if stored.ScheduledAt == nil || !stored.ScheduledAt.Equal(at) || !stored.UpdatedAt.Equal(base) {
		t.Fatalf("schedule not persisted: %+v", stored)
	}

	f.clock.Advance(time.Hour)
	got, err = f.lifecycle.Unschedule(ctx, user.ID, ref(ticket.ID))
	if err != nil {
		t.Fatal(err)
	}
	stored, _ = f.store.Tickets.GetByID(ctx, ticket.ID)
	if got.Status != domain.TicketStatusOpen || stored.ScheduledAt != nil || stored.Status != domain.TicketStatusOpen {
		t.Fatalf("unschedule not persisted: %+v", stored)
	}
	if !stored.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("updated_at not refreshed: %v", stored.UpdatedAt)
	}
}

func TestUpdateTicketIsPermissive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, base)
	user := testutil.CreateUser(t, f.store, "Requester", domain.RoleUser)
	agent := testutil.CreateUser(t, f.store, "Agent", domain.RoleAgent)
	ticket := testutil.CreateTicket(t, f.store, user.ID, 1, domain.TicketStatusRejected, base.Add(-time.Hour))

	pending := domain.TicketStatusPendingApproval
	high := domain.TicketPriorityHigh
	got, err := f.lifecycle.UpdateTicket(ctx, agent.ID, ref(ticket.ID), service.TicketUpdateInput{
		Status:     &pending,
		Priority:   &high,
		AssigneeID: &agent.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != pending || got.Priority != high || got.AssigneeID == nil || *got.AssigneeID != agent.ID {
		t.Fatalf("unexpected ticket %+v", got)
	}

	history, _ := f.store.History.ListByTicket(ctx, ticket.ID)
	if len(history) != 3 {
		t.Fatalf("expected priority, assignee and status entries, got %+v", history)
	}

	bogus := domain.TicketStatus("archived")
	if _, err := f.lifecycle.UpdateTicket(ctx, agent.ID, ref(ticket.ID), service.TicketUpdateInput{Status: &bogus}); !errorutil.HasCode(err, errorutil.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveStaleClosedThreshold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, base)
	user := testutil.CreateUser(t, f.store, "Requester", domain.RoleUser)
	recent := testutil.CreateTicket(t, f.store, user.ID, 1, domain.TicketStatusClosed, base.Add(-23*time.Hour))
	stale := testutil.CreateTicket(t, f.store, user.ID, 2, domain.TicketStatusClosed, base.Add(-25*time.Hour))

	ids, err := f.lifecycle.ResolveStaleClosed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Fatalf("expected only the stale ticket, got %v", ids)
	}

	got, _ := f.store.Tickets.GetByID(ctx, stale.ID)
	if got.Status != domain.TicketStatusResolved || !got.UpdatedAt.Equal(base) {
		t.Fatalf("stale ticket not resolved: %+v", got)
	}
	untouched, _ := f.store.Tickets.GetByID(ctx, recent.ID)
	if untouched.Status != domain.TicketStatusClosed || !untouched.UpdatedAt.Equal(base.Add(-23*time.Hour)) {
		t.Fatalf("recent ticket touched: %+v", untouched)
	}

	history, _ := f.store.History.ListByTicket(ctx, stale.ID)
	if len(history) != 1 || history[0].ChangedBy != nil {
		t.Fatalf("expected one system history entry, got %+v", history)
	}
}

func TestResolveStaleClosedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, base)
	user := testutil.CreateUser(t, f.store, "Requester", domain.RoleUser)
	stale := testutil.CreateTicket(t, f.store, user.ID, 1, domain.TicketStatusClosed, base.Add(-48*time.Hour))

	if _, err := f.lifecycle.ResolveStaleClosed(ctx); err != nil {
		t.Fatal(err)
	}
	first, _ := f.store.Tickets.GetByID(ctx, stale.ID)

	f.clock.Advance(time.Minute)
	ids, err := f.lifecycle.ResolveStaleClosed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("second run resolved %v", ids)
	}
	second, _ := f.store.Tickets.GetByID(ctx, stale.ID)
	if second.Status != first.Status || !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("second run changed the ticket: %+v vs %+v", first, second)
	}
}
