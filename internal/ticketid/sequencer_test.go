package ticketid_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/ticketid"
)

type fakeLookup struct {
	count int
}

func (f fakeLookup) CountCreatedBetween(context.Context, time.Time, time.Time) (int, error) {
	return f.count, nil
}

func (fakeLookup) ListByTicketNumber(context.Context, int) ([]domain.TicketRef, error) { return nil, nil }

// fakeRedis implements the three commands the sequencer issues.
type fakeRedis struct {
	redis.Cmdable
	mu     sync.Mutex
	values map[string]int64
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewBoolCmd(ctx)
	if _, ok := f.values[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	f.values[key] = int64(value.(int))
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(f.values[key])
	return cmd
}

func TestRedisSequencerSeedsAndIsDistinct(t *testing.T) {
	client := &fakeRedis{values: map[string]int64{}}
	seq := ticketid.NewRedisSequencer(client, fakeLookup{count: 4})
	day := ticketid.DayOf(time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC), time.UTC)

	var (
		mu   sync.Mutex
		seen = map[int]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(context.Background(), day)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 10 {
		t.Fatalf("expected 10 distinct numbers, got %d", len(seen))
	}
	for n := 5; n <= 14; n++ {
		if !seen[n] {
			t.Fatalf("missing number %d in %v", n, seen)
		}
	}
}

func TestCountSequencer(t *testing.T) {
	seq := ticketid.NewCountSequencer(fakeLookup{count: 2})
	n, err := seq.Next(context.Background(), ticketid.DayOf(time.Now(), time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}
