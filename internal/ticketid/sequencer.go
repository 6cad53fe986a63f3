package ticketid

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CountSequencer counts the tickets already created on the day and adds one.
// Concurrent callers on the same day can receive the same number.
type CountSequencer struct {
	lookup Lookup
}

// NewCountSequencer returns a count-then-insert sequencer.
func NewCountSequencer(lookup Lookup) *CountSequencer {
	return &CountSequencer{lookup: lookup}
}

// Next implements Sequencer.
func (s *CountSequencer) Next(ctx context.Context, day Day) (int, error) {
	count, err := s.lookup.CountCreatedBetween(ctx, day.Start, day.End)
	if err != nil {
		return 0, fmt.Errorf("count tickets for %s: %w", day.Key(), err)
	}
	return count + 1, nil
}

const (
	redisKeyPrefix = "helpdesk:ticket_seq:"
	redisKeyTTL    = 48 * time.Hour
)

// RedisSequencer increments a per-day counter in Redis, so concurrent
// creations always get distinct numbers. A missing counter is seeded from
// the day's ticket count.
type RedisSequencer struct {
	client redis.Cmdable
	lookup Lookup
}

// NewRedisSequencer returns an atomic per-day sequencer.
func NewRedisSequencer(client redis.Cmdable, lookup Lookup) *RedisSequencer {
	return &RedisSequencer{client: client, lookup: lookup}
}

// Next implements Sequencer.
func (s *RedisSequencer) Next(ctx context.Context, day Day) (int, error) {
	key := redisKeyPrefix + day.Key()

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("check sequence %s: %w", key, err)
	}
	if exists == 0 {
		count, err := s.lookup.CountCreatedBetween(ctx, day.Start, day.End)
		if err != nil {
			return 0, fmt.Errorf("seed sequence %s: %w", key, err)
		}
		if err := s.client.SetNX(ctx, key, count, redisKeyTTL).Err(); err != nil {
			return 0, fmt.Errorf("seed sequence %s: %w", key, err)
		}
	}

	next, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", key, err)
	}
	return int(next), nil
}
