package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CommissionCacheFactory builds the commission cache that matches the
// configuration: Redis when a client is available, process memory otherwise
type CommissionCacheFactory struct {
	client                *redis.Client
	keyPrefix             string
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*CommissionCacheFactory)

// WithLogger sets the logger for the factory and the caches it builds
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *CommissionCacheFactory) {
		f.logger = logger
	}
}

// WithRedisClient makes the factory build Redis-backed stores
func WithRedisClient(client *redis.Client) FactoryOption {
	return func(f *CommissionCacheFactory) {
		f.client = client
	}
}

// WithInMemoryFallback controls whether a missing Redis client falls back to
// process memory. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *CommissionCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCommissionCacheFactory creates a new factory
func NewCommissionCacheFactory(cfg config.RedisConfig, opts ...FactoryOption) *CommissionCacheFactory {
	f := &CommissionCacheFactory{
		keyPrefix:             cfg.KeyPrefix,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the store commissions are cached in
func (f *CommissionCacheFactory) CreateStore() (CommissionStore, error) {
	if f.client != nil {
		f.logger.Info("Using Redis commission cache")
		return NewRedisCommissionStore(f.client, f.keyPrefix), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for the commission cache but not configured")
	}
	f.logger.Info("Using in-memory commission cache")
	return NewInMemoryCommissionStore(), nil
}

// Wrap decorates directory with a cache. A zero ttl returns directory as is.
func (f *CommissionCacheFactory) Wrap(directory invoicing.CommissionDirectory, ttl time.Duration) (invoicing.CommissionDirectory, error) {
	if ttl <= 0 {
		return directory, nil
	}
	store, err := f.CreateStore()
	if err != nil {
		return nil, err
	}
	return NewCachedCommissionDirectory(directory, store, ttl, WithCacheLogger(f.logger)), nil
}
