package worker

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func TestStartNotificationWorker(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	StartNotificationWorker(nil, logger)
	if logs.FilterMessage("notification service missing; events will not be announced").Len() != 1 {
		t.Fatalf("expected warning for missing service")
	}

	notifications := service.NewNotificationService(events.NewInMemoryDispatcher(), logger, config.NotificationConfig{})
	StartNotificationWorker(notifications, logger)
	entries := logs.FilterMessage("notification handlers registered").All()
	if len(entries) != 1 {
		t.Fatalf("expected registration log")
	}
	names, ok := entries[0].ContextMap()["events"].([]interface{})
	if !ok || len(names) != 4 {
		t.Fatalf("unexpected events field %v", entries[0].ContextMap()["events"])
	}
}
