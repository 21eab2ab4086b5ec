package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/travelagency/backoffice/internal/domain/pricing"
)

const commissionKeySegment = "commissions:"

// RedisCommissionStore implements CommissionStore on Redis so that every
// server instance shares one cache
type RedisCommissionStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisCommissionStore creates a store on an existing client.
// Keys look like <keyPrefix>commissions:<supplier id>.
func NewRedisCommissionStore(client redis.Cmdable, keyPrefix string) *RedisCommissionStore {
	return &RedisCommissionStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisCommissionStore) key(supplierID string) string {
	return s.keyPrefix + commissionKeySegment + supplierID
}

// Get implements CommissionStore
func (s *RedisCommissionStore) Get(ctx context.Context, supplierID string) ([]pricing.CommissionOption, bool, error) {
	data, err := s.client.Get(ctx, s.key(supplierID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached commissions: %w", err)
	}

	var options []pricing.CommissionOption
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached commissions: %w", err)
	}
	return options, true, nil
}

// Set implements CommissionStore
func (s *RedisCommissionStore) Set(ctx context.Context, supplierID string, options []pricing.CommissionOption, ttl time.Duration) error {
	if options == nil {
		options = []pricing.CommissionOption{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode commissions: %w", err)
	}
	if err := s.client.Set(ctx, s.key(supplierID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache commissions: %w", err)
	}
	return nil
}

// Delete implements CommissionStore
func (s *RedisCommissionStore) Delete(ctx context.Context, supplierID string) error {
	if err := s.client.Del(ctx, s.key(supplierID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached commissions: %w", err)
	}
	return nil
}

var _ CommissionStore = (*RedisCommissionStore)(nil)
