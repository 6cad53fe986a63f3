package gormrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
)

func TestUsersDuplicateEmail(t *testing.T) {
	store := testutil.NewStore(t)
	testutil.CreateUser(t, store, "Ana", domain.RoleUser)

	err := store.Users.Create(context.Background(), &domain.User{
		Name: "Ana Again", Email: "ana@example.com", PasswordHash: "x", Role: domain.RoleUser,
	})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, err := store.Users.GetByID(context.Background(), 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileGrantsAndMembership(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.CreateUser(t, store, "Bruno", domain.RoleUser)
	profile := testutil.CreateProfile(t, store, "Suporte", "tickets:view", "tickets:edit")

	// Re-adding an existing grant is a no-op.
	if err := store.Profiles.AddGrant(ctx, domain.Grant{ProfileID: profile.ID, Resource: domain.ResourceTickets, Action: domain.ActionView}); err != nil {
		t.Fatalf("add duplicate grant: %v", err)
	}
	grants, err := store.Profiles.ListGrants(ctx, profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(grants))
	}

	if err := store.Profiles.LinkUser(ctx, user.ID, profile.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.Profiles.LinkUser(ctx, user.ID, profile.ID); err != nil {
		t.Fatalf("relink: %v", err)
	}
	userGrants, err := store.Profiles.ListGrantsForUser(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(userGrants) != 2 {
		t.Fatalf("expected 2 user grants, got %d", len(userGrants))
	}
	members, err := store.Profiles.ListMemberIDs(ctx, profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0] != user.ID {
		t.Fatalf("unexpected members %v", members)
	}

	if err := store.Profiles.UnlinkUser(ctx, user.ID, profile.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.Profiles.UnlinkUser(ctx, user.ID, profile.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second unlink, got %v", err)
	}
}

func TestProfileDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.CreateUser(t, store, "Carla", domain.RoleUser)
	profile := testutil.CreateProfile(t, store, "Temp", "reports:view")
	if err := store.Profiles.LinkUser(ctx, user.ID, profile.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.Profiles.ReplacePages(ctx, profile.ID, []int64{3, 1, 3}); err != nil {
		t.Fatal(err)
	}
	pages, err := store.Profiles.ListPages(ctx, profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 3 {
		t.Fatalf("unexpected pages %v", pages)
	}

	if err := store.Profiles.Delete(ctx, profile.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Profiles.GetByID(ctx, profile.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	grants, err := store.Profiles.ListGrantsForUser(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 0 {
		t.Fatalf("expected no grants after delete, got %v", grants)
	}
	if err := store.Profiles.Delete(ctx, profile.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTicketTransitionStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.CreateUser(t, store, "Davi", domain.RoleUser)
	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	ticket := testutil.CreateTicket(t, store, user.ID, 1, domain.TicketStatusPendingApproval, created)

	now := created.Add(time.Hour)
	ok, err := store.Tickets.TransitionStatus(ctx, ticket.ID, domain.TicketStatusPendingApproval, domain.TicketStatusOpen, now)
	if err != nil || !ok {
		t.Fatalf("first transition: ok=%v err=%v", ok, err)
	}
	ok, err = store.Tickets.TransitionStatus(ctx, ticket.ID, domain.TicketStatusPendingApproval, domain.TicketStatusRejected, now)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second transition should not match")
	}

	got, err := store.Tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.TicketStatusOpen {
		t.Fatalf("expected open, got %s", got.Status)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, got.UpdatedAt)
	}
}

func TestTicketResolveClosedBefore(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	user := testutil.CreateUser(t, store, "Eva", domain.RoleUser)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	stale := testutil.CreateTicket(t, store, user.ID, 1, domain.TicketStatusClosed, cutoff.Add(-time.Minute))
	fresh := testutil.CreateTicket(t, store, user.ID, 2, domain.TicketStatusClosed, cutoff.Add(time.Minute))
	open := testutil.CreateTicket(t, store, user.ID, 3, domain.TicketStatusOpen, cutoff.Add(-time.Hour))

	ids, err := store.Tickets.ResolveClosedBefore(ctx, cutoff, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Fatalf("expected only %d resolved, got %v", stale.ID, ids)
	}

	for id, want := range map[int64]domain.TicketStatus{
		stale.ID: domain.TicketStatusResolved,
		fresh.ID: domain.TicketStatusClosed,
		open.ID:  domain.TicketStatusOpen,
	} {
		got, err := store.Tickets.GetByID(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != want {
			t.Errorf("ticket %d: expected %s, got %s", id, want, got.Status)
		}
	}

	ids, err = store.Tickets.ResolveClosedBefore(ctx, cutoff, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("second sweep should be a no-op, got %v", ids)
	}
}

func TestTicketListAndNumberLookup(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	alice := testutil.CreateUser(t, store, "Alice", domain.RoleUser)
	bob := testutil.CreateUser(t, store, "Bob", domain.RoleUser)
	day1 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	older := testutil.CreateTicket(t, store, alice.ID, 1, domain.TicketStatusOpen, day1)
	newer := testutil.CreateTicket(t, store, bob.ID, 1, domain.TicketStatusOpen, day2)
	testutil.CreateTicket(t, store, alice.ID, 2, domain.TicketStatusClosed, day2)

	refs, err := store.Tickets.ListByTicketNumber(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 || refs[0].ID != newer.ID || refs[1].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", refs)
	}

	count, err := store.Tickets.CountCreatedBetween(ctx, day2, day2.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 tickets on day2, got %d", count)
	}

	list, err := store.Tickets.List(ctx, repository.TicketFilter{
		RequesterID: &alice.ID,
		Statuses:    []domain.TicketStatus{domain.TicketStatusOpen},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != older.ID {
		t.Fatalf("unexpected filtered list %+v", list)
	}
}
