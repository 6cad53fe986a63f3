package access

import (
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// PermissionSet is a user's effective set of "resource:action" permissions.
type PermissionSet map[domain.Permission]struct{}

// Has reports whether the set contains p.
func (s PermissionSet) Has(p domain.Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the permissions in lexical order.
func (s PermissionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// Cache holds computed permission sets per user id for a fixed TTL.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[int64]cacheEntry
	ttl        time.Duration
	now        func() time.Time
	generation uint64
}

type cacheEntry struct {
	perms    PermissionSet
	storedAt time.Time
}

// NewCache returns an empty cache. A nil now uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[int64]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached set for userID if it is younger than the TTL.
func (c *Cache) Get(userID int64) (PermissionSet, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok || c.expired(entry, c.now()) {
		return nil, false
	}
	return entry.perms, true
}

// Set stores perms for userID, stamped with the current time.
func (c *Cache) Set(userID int64, perms PermissionSet) {
	c.mu.Lock()
	c.entries[userID] = cacheEntry{perms: perms, storedAt: c.now()}
	c.mu.Unlock()
}

// Generation returns a counter bumped by every invalidation.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// SetIfGeneration stores perms only if no invalidation happened since gen was
// read, so a fill computed from pre-mutation rows never lands afterwards.
func (c *Cache) SetIfGeneration(userID int64, perms PermissionSet, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.entries[userID] = cacheEntry{perms: perms, storedAt: c.now()}
	return true
}

// Invalidate evicts one user. Evicting an absent user is a no-op.
func (c *Cache) Invalidate(userID int64) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.generation++
	c.mu.Unlock()
}

// InvalidateAll evicts every user.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[int64]cacheEntry)
	c.generation++
	c.mu.Unlock()
}

// SweepExpired evicts entries older than the TTL and returns how many were removed.
func (c *Cache) SweepExpired() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) expired(entry cacheEntry, now time.Time) bool {
	return now.Sub(entry.storedAt) >= c.ttl
}
