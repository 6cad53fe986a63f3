package service_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/access"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
	"github.com/spec-kit/helpdesk-service/internal/ticketid"
)

type fixture struct {
	store      *repository.Store
	clock      *testutil.FixedClock
	codec      *ticketid.Codec
	resolver   *access.Resolver
	dispatcher events.Dispatcher
	tickets    *service.TicketService
	lifecycle  *service.LifecycleService
	profiles   *service.ProfileService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatal(err)
	}
	logger := zaptest.NewLogger(t)
	store := testutil.NewStore(t)
	clock := testutil.NewFixedClock(now)
	codec := ticketid.NewCodec(store.Tickets, nil, loc, clock.Now)
	resolver := access.NewResolver(store.Users, store.Profiles, access.NewCache(5*time.Minute, clock.Now), logger)
	dispatcher := events.NewInMemoryDispatcher()

	return &fixture{
		store:      store,
		clock:      clock,
		codec:      codec,
		resolver:   resolver,
		dispatcher: dispatcher,
		tickets: service.NewTicketService(service.TicketDependencies{
			TicketRepo:  store.Tickets,
			FormRepo:    store.Forms,
			HistoryRepo: store.History,
			Codec:       codec,
			Dispatcher:  dispatcher,
			Clock:       clock.Now,
			Logger:      logger,
		}),
		lifecycle: service.NewLifecycleService(service.LifecycleDependencies{
			TicketRepo:         store.Tickets,
			HistoryRepo:        store.History,
			Codec:              codec,
			Dispatcher:         dispatcher,
			Clock:              clock.Now,
			ClosedResolveAfter: 24 * time.Hour,
			Logger:             logger,
		}),
		profiles: service.NewProfileService(service.ProfileDependencies{
			ProfileRepo: store.Profiles,
			UserRepo:    store.Users,
			Invalidator: resolver,
			Dispatcher:  dispatcher,
			Clock:       clock.Now,
			Logger:      logger,
		}),
	}
}
