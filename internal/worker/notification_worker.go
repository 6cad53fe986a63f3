package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to the
// in-process dispatcher.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		logger.Warn("notification service missing; events will not be announced")
		return
	}
	types := notifications.RegisterHandlers()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	logger.Info("notification handlers registered", zap.Strings("events", names))
}
