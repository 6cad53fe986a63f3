package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func TestNotificationServiceLogsEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "https://hooks.example.com/helpdesk",
	})

	types := notifications.RegisterHandlers()
	if len(types) != 4 {
		t.Fatalf("expected 4 subscriptions, got %v", types)
	}

	ctx := context.Background()
	now := time.Date(2026, 1, 22, 15, 0, 0, 0, time.UTC)
	err := dispatcher.Publish(ctx, events.NewTicketEvent(events.EventTicketCreated, 42, nil, now,
		events.TicketCreatedPayload{Code: "20260122001", Status: domain.TicketStatusOpen}))
	if err != nil {
		t.Fatal(err)
	}

	if n := logs.FilterMessage("TicketCreated").Len(); n != 1 {
		t.Fatalf("expected one TicketCreated entry, got %d", n)
	}
	if n := logs.FilterMessage("sendEmailNotificationStub").Len(); n != 1 {
		t.Fatalf("expected email stub, got %d", n)
	}
	if n := logs.FilterMessage("sendWebhookNotificationStub").Len(); n != 1 {
		t.Fatalf("expected webhook stub, got %d", n)
	}
	entry := logs.FilterMessage("TicketCreated").All()[0]
	if got := entry.ContextMap()["ticket_id"]; got != int64(42) {
		t.Fatalf("expected ticket_id 42, got %v", got)
	}
}

func TestNotificationServiceWithoutDispatcher(t *testing.T) {
	notifications := service.NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{})
	if types := notifications.RegisterHandlers(); types != nil {
		t.Fatalf("expected no subscriptions, got %v", types)
	}
}
