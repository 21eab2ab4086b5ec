package cache

import (
	"context"
	"time"

	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CommissionStore holds commission lists keyed by supplier.
// Get reports found=false on a miss; an error means the store itself failed.
type CommissionStore interface {
	Get(ctx context.Context, supplierID string) ([]pricing.CommissionOption, bool, error)
	Set(ctx context.Context, supplierID string, options []pricing.CommissionOption, ttl time.Duration) error
	Delete(ctx context.Context, supplierID string) error
}

// CachedCommissionDirectory answers ListCommissions from a store and only asks
// the wrapped directory on a miss. A failing store is bypassed, never fatal.
// Directory errors are not cached.
type CachedCommissionDirectory struct {
	inner  invoicing.CommissionDirectory
	store  CommissionStore
	ttl    time.Duration
	logger *zap.Logger
}

// CacheOption is a functional option for CachedCommissionDirectory
type CacheOption func(*CachedCommissionDirectory)

// WithCacheLogger sets the logger used for cache diagnostics
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *CachedCommissionDirectory) {
		c.logger = logger
	}
}

// NewCachedCommissionDirectory creates a new CachedCommissionDirectory
func NewCachedCommissionDirectory(inner invoicing.CommissionDirectory, store CommissionStore, ttl time.Duration, opts ...CacheOption) *CachedCommissionDirectory {
	c := &CachedCommissionDirectory{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCommissions implements invoicing.CommissionDirectory
func (c *CachedCommissionDirectory) ListCommissions(ctx context.Context, supplierID string) ([]pricing.CommissionOption, error) {
	log := logger.Enrich(ctx, c.logger).With(zap.String("supplier_id", supplierID))

	options, found, err := c.store.Get(ctx, supplierID)
	switch {
	case err != nil:
		log.Warn("Commission cache read failed, asking directory", zap.Error(err))
	case found:
		log.Debug("Commission cache hit")
		return options, nil
	default:
		log.Debug("Commission cache miss")
	}

	options, err = c.inner.ListCommissions(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, supplierID, options, c.ttl); err != nil {
		log.Warn("Failed to cache commissions", zap.Error(err))
	}
	return options, nil
}

// Invalidate drops the cached list of a supplier
func (c *CachedCommissionDirectory) Invalidate(ctx context.Context, supplierID string) error {
	return c.store.Delete(ctx, supplierID)
}

var _ invoicing.CommissionDirectory = (*CachedCommissionDirectory)(nil)
