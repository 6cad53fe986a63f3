// Package access resolves effective permissions for users and decides
// whether a principal may perform a guarded operation.
package access

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ErrLookup wraps storage failures met while resolving permissions.
var ErrLookup = errors.New("permission lookup failed")

// fillTimeout bounds a shared load, which runs detached from the callers
// waiting on it.
const fillTimeout = 10 * time.Second

// UserReader loads the stored coarse role.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// GrantReader lists the grants reachable through a user's profiles.
type GrantReader interface {
	ListGrantsForUser(ctx context.Context, userID int64) ([]domain.Grant, error)
}

var allPermissions = func() []domain.Permission {
	perms := make([]domain.Permission, 0, len(domain.Resources)*len(domain.Actions))
	for _, r := range domain.Resources {
		for _, a := range domain.Actions {
			perms = append(perms, domain.NewPermission(r, a))
		}
	}
	return perms
}()

// Resolver computes and caches effective permission sets.
type Resolver struct {
	users  UserReader
	grants GrantReader
	cache  *Cache
	group  singleflight.Group
	logger *zap.Logger
}

// NewResolver builds a resolver over the given stores and cache.
func NewResolver(users UserReader, grants GrantReader, cache *Cache, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{users: users, grants: grants, cache: cache, logger: logger}
}

// Cache exposes the underlying cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// EffectivePermissions returns the union of the user's profile grants, plus
// every permission when the stored role is admin. Unknown users get an empty set.
//
// Concurrent misses for one user share a single load. Each caller waits on
// its own ctx, so one caller giving up does not fail the others. Loads are
// keyed by cache generation: a caller arriving after an invalidation starts a
// fresh load instead of joining one that read pre-mutation rows.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64) (PermissionSet, error) {
	if perms, ok := r.cache.Get(userID); ok {
		return perms, nil
	}

	gen := r.cache.Generation()
	key := strconv.FormatInt(userID, 10) + "@" + strconv.FormatUint(gen, 10)
	ch := r.group.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()
		perms, err := r.load(fillCtx, userID)
		if err != nil {
			return nil, err
		}
		r.cache.SetIfGeneration(userID, perms, gen)
		return perms, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(PermissionSet), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: user %d: %w", ErrLookup, userID, ctx.Err())
	}
}

func (r *Resolver) load(ctx context.Context, userID int64) (PermissionSet, error) {
	grants, err := r.grants.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: grants for user %d: %w", ErrLookup, userID, err)
	}
	perms := make(PermissionSet, len(grants))
	for _, g := range grants {
		perms[g.Permission()] = struct{}{}
	}

	user, err := r.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return PermissionSet{}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: user %d: %w", ErrLookup, userID, err)
	}
	if user.Role == domain.RoleAdmin {
		for _, p := range allPermissions {
			perms[p] = struct{}{}
		}
	}
	return perms, nil
}

// HasPermission reports whether the user's effective set holds resource:action.
// It returns false together with any lookup error.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, resource domain.Resource, action domain.Action) (bool, error) {
	return r.HasAnyPermission(ctx, userID, domain.NewPermission(resource, action))
}

// HasAnyPermission reports whether the user holds at least one of perms.
func (r *Resolver) HasAnyPermission(ctx context.Context, userID int64, perms ...domain.Permission) (bool, error) {
	set, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if set.Has(p) {
			return true, nil
		}
	}
	return false, nil
}

// Authorize returns nil when the principal may act with any of required.
// Admins pass without a lookup. Lookup failures deny.
func (r *Resolver) Authorize(ctx context.Context, userID int64, role domain.Role, required ...domain.Permission) error {
	if role == domain.RoleAdmin {
		return nil
	}
	ok, err := r.HasAnyPermission(ctx, userID, required...)
	if err != nil {
		r.logger.Error("permission lookup failed; denying",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return errorutil.NewInternalError(err)
	}
	if !ok {
		names := make([]string, 0, len(required))
		for _, p := range required {
			names = append(names, string(p))
		}
		return errorutil.NewPermissionDenied(names...)
	}
	return nil
}

// Invalidate drops the cached set of one user. Loads already in flight keep
// serving the callers that joined them but no longer accept new ones.
func (r *Resolver) Invalidate(userID int64) {
	r.cache.Invalidate(userID)
}

// InvalidateAll drops every cached set, with the same effect on in-flight
// loads as Invalidate.
func (r *Resolver) InvalidateAll() {
	r.cache.InvalidateAll()
}

// RunJanitor evicts expired entries every period until ctx is done.
func (r *Resolver) RunJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.cache.SweepExpired(); n > 0 {
				r.logger.Debug("evicted expired permission sets", zap.Int("count", n))
			}
		}
	}
}
