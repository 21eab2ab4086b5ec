package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/shared"
)

const sequenceKeySegment = "invoice_seq:"

// reserveScript adds ARGV[1] to the counter unless that would pass ARGV[2]
// (0 = no limit). Returns the new value, or -1 when the range is exhausted.
var reserveScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local last = current + tonumber(ARGV[1])
local max = tonumber(ARGV[2])
if max > 0 and last > max then
	return -1
end
redis.call('SET', KEYS[1], last)
return last
`)

// SequenceSeeder reports the highest sequence value already issued for a year
type SequenceSeeder interface {
	HighestSequence(ctx context.Context, year int) (int64, error)
}

// RedisNumberAllocator hands out invoice numbers from a per-year Redis counter.
// The reservation runs as one script, so concurrent servers sharing the
// Redis instance never receive the same value.
type RedisNumberAllocator struct {
	client    redis.Cmdable
	keyPrefix string
	format    invoicing.NumberFormat
	seeder    SequenceSeeder
	now       func() time.Time

	mu     sync.Mutex
	seeded map[int]bool
}

// RedisAllocatorOption is a functional option for RedisNumberAllocator
type RedisAllocatorOption func(*RedisNumberAllocator)

// WithSequenceSeeder initialises an absent year counter from stored invoices
func WithSequenceSeeder(seeder SequenceSeeder) RedisAllocatorOption {
	return func(a *RedisNumberAllocator) {
		a.seeder = seeder
	}
}

// NewRedisNumberAllocator creates a new RedisNumberAllocator.
// Keys look like <keyPrefix>invoice_seq:INV-2026-.
func NewRedisNumberAllocator(client redis.Cmdable, keyPrefix string, format invoicing.NumberFormat, opts ...RedisAllocatorOption) *RedisNumberAllocator {
	a := &RedisNumberAllocator{
		client:    client,
		keyPrefix: keyPrefix,
		format:    format,
		now:       time.Now,
		seeded:    make(map[int]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *RedisNumberAllocator) key(year int) string {
	return a.keyPrefix + sequenceKeySegment + a.format.YearPrefix(year)
}

// Next reserves count consecutive numbers of the current year
func (a *RedisNumberAllocator) Next(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	year := a.now().Year()
	key := a.key(year)

	if err := a.ensureSeeded(ctx, key, year); err != nil {
		return nil, fmt.Errorf("allocate invoice number: %w", err)
	}

	last, err := reserveScript.Run(ctx, a.client, []string{key}, count, a.format.Max).Int64()
	if err != nil {
		return nil, fmt.Errorf("allocate invoice number: %w", err)
	}
	if last < 0 {
		return nil, shared.ErrAllocatorExhausted
	}

	numbers := make([]string, 0, count)
	for v := last - int64(count) + 1; v <= last; v++ {
		numbers = append(numbers, a.format.Format(year, v))
	}
	return numbers, nil
}

// ensureSeeded writes the stored high-water mark into an absent counter.
// SETNX keeps a counter another server created first.
func (a *RedisNumberAllocator) ensureSeeded(ctx context.Context, key string, year int) error {
	if a.seeder == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seeded[year] {
		return nil
	}

	_, err := a.client.Get(ctx, key).Result()
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		highest, err := a.seeder.HighestSequence(ctx, year)
		if err != nil {
			return fmt.Errorf("seed sequence %s: %w", key, err)
		}
		if err := a.client.SetNX(ctx, key, strconv.FormatInt(highest, 10), 0).Err(); err != nil {
			return fmt.Errorf("seed sequence %s: %w", key, err)
		}
	default:
		return err
	}
	a.seeded[year] = true
	return nil
}

var _ invoicing.NumberAllocator = (*RedisNumberAllocator)(nil)
