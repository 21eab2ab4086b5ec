package cache

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/travelagency/backoffice/internal/domain/pricing"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryCommissionStore implements CommissionStore in process memory.
// Expired entries are dropped on read and by a background sweep.
type InMemoryCommissionStore struct {
	entries  sync.Map // map[string]*cacheEntry[[]pricing.CommissionOption]
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once

	hits   int64
	misses int64
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// NewInMemoryCommissionStore creates the store and starts its cleanup goroutine.
// Call Stop to end it.
func NewInMemoryCommissionStore() *InMemoryCommissionStore {
	s := &InMemoryCommissionStore{
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go s.cleanupExpired(defaultCleanupInterval)
	return s
}

// Get implements CommissionStore
func (s *InMemoryCommissionStore) Get(_ context.Context, supplierID string) ([]pricing.CommissionOption, bool, error) {
	if value, ok := s.entries.Load(supplierID); ok {
		entry := value.(*cacheEntry[[]pricing.CommissionOption])
		if !entry.isExpired(s.now()) {
			atomic.AddInt64(&s.hits, 1)
			return slices.Clone(entry.value), true, nil
		}
		s.entries.Delete(supplierID)
	}
	atomic.AddInt64(&s.misses, 1)
	return nil, false, nil
}

// Set implements CommissionStore
func (s *InMemoryCommissionStore) Set(_ context.Context, supplierID string, options []pricing.CommissionOption, ttl time.Duration) error {
	s.entries.Store(supplierID, &cacheEntry[[]pricing.CommissionOption]{
		value:     slices.Clone(options),
		expiresAt: s.now().Add(ttl),
	})
	return nil
}

// Delete implements CommissionStore
func (s *InMemoryCommissionStore) Delete(_ context.Context, supplierID string) error {
	s.entries.Delete(supplierID)
	return nil
}

// Stats returns the hit and miss counters
func (s *InMemoryCommissionStore) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (s *InMemoryCommissionStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *InMemoryCommissionStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *InMemoryCommissionStore) removeExpired() {
	now := s.now()
	s.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry[[]pricing.CommissionOption]).isExpired(now) {
			s.entries.Delete(key)
		}
		return true
	})
}

var _ CommissionStore = (*InMemoryCommissionStore)(nil)
