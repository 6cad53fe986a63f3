package access_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/access"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type fakeStore struct {
	mu     sync.Mutex
	roles  map[int64]domain.Role
	grants map[int64][]domain.Grant
	err    error
	loads  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{roles: map[int64]domain.Role{}, grants: map[int64][]domain.Grant{}}
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.User{ID: id, Role: role}, nil
}

func (f *fakeStore) ListGrantsForUser(_ context.Context, userID int64) ([]domain.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Grant(nil), f.grants[userID]...), nil
}

func (f *fakeStore) grant(userID int64, r domain.Resource, a domain.Action) {
	f.mu.Lock()
	f.grants[userID] = append(f.grants[userID], domain.Grant{Resource: r, Action: a})
	f.mu.Unlock()
}

func (f *fakeStore) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func newResolver(t *testing.T, store *fakeStore, clock *testutil.FixedClock) *access.Resolver {
	t.Helper()
	cache := access.NewCache(5*time.Minute, clock.Now)
	return access.NewResolver(store, store, cache, zaptest.NewLogger(t))
}

func TestAdminHoldsEveryPermission(t *testing.T) {
	store := newFakeStore()
	store.roles[1] = domain.RoleAdmin
	r := newResolver(t, store, testutil.NewFixedClock(time.Now()))

	for _, res := range domain.Resources {
		for _, act := range domain.Actions {
			ok, err := r.HasPermission(context.Background(), 1, res, act)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatalf("admin lacks %s:%s", res, act)
			}
		}
	}
}

func TestUnknownUserHasEmptySet(t *testing.T) {
	r := newResolver(t, newFakeStore(), testutil.NewFixedClock(time.Now()))

	perms, err := r.EffectivePermissions(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 0 {
		t.Fatalf("expected empty set, got %v", perms.Sorted())
	}
}

func TestInvalidateExposesNewGrant(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.roles[7] = domain.RoleUser
	store.grant(7, domain.ResourceTickets, domain.ActionView)
	r := newResolver(t, store, testutil.NewFixedClock(time.Now()))

	ok, _ := r.HasPermission(ctx, 7, domain.ResourceTickets, domain.ActionDelete)
	if ok {
		t.Fatal("unexpected tickets:delete")
	}

	store.grant(7, domain.ResourceTickets, domain.ActionDelete)
	ok, _ = r.HasPermission(ctx, 7, domain.ResourceTickets, domain.ActionDelete)
	if ok {
		t.Fatal("expected stale cached answer before invalidation")
	}

	r.Invalidate(7)
	ok, err := r.HasPermission(ctx, 7, domain.ResourceTickets, domain.ActionDelete)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected tickets:delete after invalidation")
	}
}

func TestInvalidateAllRecomputesEveryone(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.roles[1] = domain.RoleUser
	store.roles[2] = domain.RoleUser
	r := newResolver(t, store, testutil.NewFixedClock(time.Now()))

	_, _ = r.EffectivePermissions(ctx, 1)
	_, _ = r.EffectivePermissions(ctx, 2)
	store.grant(1, domain.ResourceReports, domain.ActionView)
	store.grant(2, domain.ResourceReports, domain.ActionView)
	r.InvalidateAll()

	for _, id := range []int64{1, 2} {
		ok, err := r.HasPermission(ctx, id, domain.ResourceReports, domain.ActionView)
		if err != nil || !ok {
			t.Fatalf("user %d: ok=%v err=%v", id, ok, err)
		}
	}
}

func TestExpiredEntryIsRecomputed(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.roles[3] = domain.RoleUser
	clock := testutil.NewFixedClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	r := newResolver(t, store, clock)

	_, _ = r.EffectivePermissions(ctx, 3)
	store.grant(3, domain.ResourceAgenda, domain.ActionEdit)

	clock.Advance(4 * time.Minute)
	ok, _ := r.HasPermission(ctx, 3, domain.ResourceAgenda, domain.ActionEdit)
	if ok {
		t.Fatal("entry should still be fresh at 4 minutes")
	}

	clock.Advance(time.Minute)
	ok, _ = r.HasPermission(ctx, 3, domain.ResourceAgenda, domain.ActionEdit)
	if !ok {
		t.Fatal("entry at TTL must be recomputed")
	}
	if got := store.loadCount(); got != 2 {
		t.Fatalf("expected 2 loads, got %d", got)
	}
}

func TestLookupFailureDenies(t *testing.T) {
	store := newFakeStore()
	store.roles[5] = domain.RoleUser
	store.err = errors.New("connection reset")
	r := newResolver(t, store, testutil.NewFixedClock(time.Now()))

	ok, err := r.HasPermission(context.Background(), 5, domain.ResourceTickets, domain.ActionView)
	if ok {
		t.Fatal("lookup failure must not allow")
	}
	if !errors.Is(err, access.ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}

	err = r.Authorize(context.Background(), 5, domain.RoleUser, domain.NewPermission(domain.ResourceTickets, domain.ActionView))
	if err == nil {
		t.Fatal("authorize must deny on lookup failure")
	}
	if r.Cache().Len() != 0 {
		t.Fatal("failed lookups must not be cached")
	}
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.roles[8] = domain.RoleAgent
	store.grant(8, domain.ResourceApprove, domain.ActionApprove)
	r := newResolver(t, store, testutil.NewFixedClock(time.Now()))

	if err := r.Authorize(ctx, 8, domain.RoleAgent,
		domain.NewPermission(domain.ResourceTickets, domain.ActionApprove),
		domain.NewPermission(domain.ResourceApprove, domain.ActionApprove),
	); err != nil {
		t.Fatalf("expected any-of match, got %v", err)
	}

	err := r.Authorize(ctx, 8, domain.RoleAgent, domain.NewPermission(domain.ResourceProfiles, domain.ActionDelete))
	if !errorutil.HasCode(err, errorutil.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	de := errorutil.ToDomainError(err)
	if req, _ := de.Details["required"].([]string); len(req) != 1 || req[0] != "profiles:delete" {
		t.Fatalf("unexpected details %v", de.Details)
	}

	// The principal role short-circuits without touching storage.
	before := store.loadCount()
	if err := r.Authorize(ctx, 99, domain.RoleAdmin, domain.NewPermission(domain.ResourceBackups, domain.ActionDelete)); err != nil {
		t.Fatal(err)
	}
	if store.loadCount() != before {
		t.Fatal("admin authorize should not load permissions")
	}
}

func TestConcurrentMissesLoadOnce(t *testing.T) {
	store := newFakeStore()
	store.roles[9] = domain.RoleUser
	r := newResolver(t, store, testutil.NewFixedClock(time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.EffectivePermissions(context.Background(), 9); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	perms, err := r.EffectivePermissions(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if perms == nil {
		t.Fatal("expected cached set")
	}
	if got := store.loadCount(); got < 1 || got > 32 {
		t.Fatalf("unexpected load count %d", got)
	}
}

// gatedStore reads grants, then holds the result until released.
type gatedStore struct {
	*fakeStore
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		fakeStore: newFakeStore(),
		entered:   make(chan struct{}, 4),
		release:   make(chan struct{}),
	}
}

func (g *gatedStore) ListGrantsForUser(ctx context.Context, userID int64) ([]domain.Grant, error) {
	grants, err := g.fakeStore.ListGrantsForUser(ctx, userID)
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return grants, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitEntered(t *testing.T, g *gatedStore) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("load never started")
	}
}

type lookup struct {
	perms access.PermissionSet
	err   error
}

func lookupAsync(ctx context.Context, r *access.Resolver, userID int64) <-chan lookup {
	out := make(chan lookup, 1)
	go func() {
		perms, err := r.EffectivePermissions(ctx, userID)
		out <- lookup{perms, err}
	}()
	return out
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	store := newGatedStore()
	store.roles[7] = domain.RoleUser
	store.grant(7, domain.ResourceTickets, domain.ActionView)
	r := access.NewResolver(store, store, access.NewCache(5*time.Minute, nil), zaptest.NewLogger(t))

	ctxA, cancelA := context.WithCancel(context.Background())
	first := lookupAsync(ctxA, r, 7)
	waitEntered(t, store)
	second := lookupAsync(context.Background(), r, 7)
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case res := <-first:
		if !errors.Is(res.err, access.ErrLookup) || !errors.Is(res.err, context.Canceled) {
			t.Fatalf("cancelled caller: expected ErrLookup wrapping context.Canceled, got %v", res.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting on the shared load")
	}

	close(store.release)
	select {
	case res := <-second:
		if res.err != nil {
			t.Fatalf("live caller failed: %v", res.err)
		}
		if !res.perms.Has(domain.NewPermission(domain.ResourceTickets, domain.ActionView)) {
			t.Fatalf("unexpected set %v", res.perms.Sorted())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("live caller never returned")
	}
	if _, ok := r.Cache().Get(7); !ok {
		t.Fatal("shared load should still populate the cache")
	}
}

func TestCallerAfterInvalidationStartsFreshLoad(t *testing.T) {
	for name, invalidate := range map[string]func(*access.Resolver){
		"one user": func(r *access.Resolver) { r.Invalidate(7) },
		"everyone": func(r *access.Resolver) { r.InvalidateAll() },
	} {
		t.Run(name, func(t *testing.T) {
			store := newGatedStore()
			store.roles[7] = domain.RoleUser
			r := access.NewResolver(store, store, access.NewCache(5*time.Minute, nil), zaptest.NewLogger(t))
			edit := domain.NewPermission(domain.ResourceTickets, domain.ActionEdit)

			before := lookupAsync(context.Background(), r, 7)
			waitEntered(t, store)

			store.grant(7, domain.ResourceTickets, domain.ActionEdit)
			invalidate(r)
			after := lookupAsync(context.Background(), r, 7)
			waitEntered(t, store)

			close(store.release)
			if res := <-before; res.err != nil || res.perms.Has(edit) {
				t.Fatalf("pre-invalidation load: err=%v set=%v", res.err, res.perms.Sorted())
			}
			if res := <-after; res.err != nil || !res.perms.Has(edit) {
				t.Fatalf("post-invalidation caller got a stale set: err=%v set=%v", res.err, res.perms.Sorted())
			}
			perms, ok := r.Cache().Get(7)
			if !ok || !perms.Has(edit) {
				t.Fatal("expected the fresh set to be cached")
			}
		})
	}
}
