package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventProfileChanged, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), NewTicketEvent(EventTicketCreated, 1, nil, time.Now(), nil))
	if err == nil {
		t.Fatal("expected joined handler error")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestNewEventsCarryIDs(t *testing.T) {
	a := NewTicketEvent(EventTicketStatusChanged, 7, nil, time.Now(), TicketStatusChangedPayload{})
	b := NewProfileEvent(3, nil, time.Now(), ProfileChangedPayload{Change: "deleted"})
	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct event ids, got %q and %q", a.ID, b.ID)
	}
	if b.Type != EventProfileChanged || b.ProfileID != 3 {
		t.Fatalf("unexpected profile event %+v", b)
	}
}
