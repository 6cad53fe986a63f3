package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/access"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/ticketid"
)

// components holds every long-lived dependency of the process.
type components struct {
	cfg           *config.Config
	logger        *zap.Logger
	metrics       *observability.Metrics
	store         *repository.Store
	redis         *persistence.Redis
	resolver      *access.Resolver
	tickets       *service.TicketService
	lifecycle     *service.LifecycleService
	profiles      *service.ProfileService
	auth          *service.AuthService
	notifications *service.NotificationService
}

func buildComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*components, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	store, err := persistence.OpenStore(ctx, cfg, migrate, logger)
	if err != nil {
		return nil, err
	}
	redis := persistence.NewRedis(ctx, cfg.Redis, logger)

	var seq ticketid.Sequencer
	switch cfg.Tickets.Numbering {
	case config.NumberingRedis:
		if redis == nil {
			store.Close()
			return nil, fmt.Errorf("TICKET_NUMBERING=redis requires REDIS_ADDR")
		}
		seq = ticketid.NewRedisSequencer(redis.Handle(), store.Tickets)
	default:
		seq = ticketid.NewCountSequencer(store.Tickets)
	}
	codec := ticketid.NewCodec(store.Tickets, seq, loc, nil)

	dispatcher := events.NewInMemoryDispatcher()
	resolver := access.NewResolver(store.Users, store.Profiles, access.NewCache(cfg.Access.CacheTTL(), nil), logger)

	return &components{
		cfg:      cfg,
		logger:   logger,
		metrics:  observability.NewMetrics(),
		store:    store,
		redis:    redis,
		resolver: resolver,
		tickets: service.NewTicketService(service.TicketDependencies{
			TicketRepo:  store.Tickets,
			FormRepo:    store.Forms,
			HistoryRepo: store.History,
			Codec:       codec,
			Dispatcher:  dispatcher,
			Logger:      logger,
		}),
		lifecycle: service.NewLifecycleService(service.LifecycleDependencies{
			TicketRepo:         store.Tickets,
			HistoryRepo:        store.History,
			Codec:              codec,
			Dispatcher:         dispatcher,
			ClosedResolveAfter: cfg.Tickets.ClosedResolveAfter(),
			Logger:             logger,
		}),
		profiles: service.NewProfileService(service.ProfileDependencies{
			ProfileRepo: store.Profiles,
			UserRepo:    store.Users,
			Invalidator: resolver,
			Dispatcher:  dispatcher,
			Logger:      logger,
		}),
		auth:          service.NewAuthService(cfg.Auth, store.Users),
		notifications: service.NewNotificationService(dispatcher, logger, cfg.Notification),
	}, nil
}

func (c *components) Close() {
	c.redis.Close()
	c.store.Close()
}

// meteredSweep counts resolved tickets on the way through.
type meteredSweep struct {
	lifecycle *service.LifecycleService
	metrics   *observability.Metrics
}

func (m meteredSweep) ResolveStaleClosed(ctx context.Context) ([]int64, error) {
	ids, err := m.lifecycle.ResolveStaleClosed(ctx)
	m.metrics.RecordSweep(len(ids))
	return ids, err
}
