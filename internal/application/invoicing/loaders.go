package invoicing

import (
	"context"

	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CommissionLoader fetches supplier commission options and falls back to the
// configured list when the directory cannot be reached
type CommissionLoader struct {
	directory invoicing.CommissionDirectory
	fallback  []pricing.CommissionOption
	logger    *zap.Logger
	metrics   *telemetry.InvoiceMetrics
}

// NewCommissionLoader creates a new commission loader
func NewCommissionLoader(directory invoicing.CommissionDirectory, fallback []pricing.CommissionOption, logger *zap.Logger) *CommissionLoader {
	return &CommissionLoader{
		directory: directory,
		fallback:  fallback,
		logger:    logger,
	}
}

// WithMetrics counts lookups by the source that answered them
func (l *CommissionLoader) WithMetrics(m *telemetry.InvoiceMetrics) *CommissionLoader {
	l.metrics = m
	return l
}

// Load returns the active commission options of a supplier. It never fails:
// a directory error yields the active fallback options.
func (l *CommissionLoader) Load(ctx context.Context, supplierID string) []pricing.CommissionOption {
	ctx, span := telemetry.StartServiceSpan(ctx, "commission", "load",
		telemetry.WithAttribute(telemetry.SpanAttrSupplierID, supplierID),
	)
	defer span.End()

	if l.directory == nil || supplierID == "" {
		l.metrics.CommissionLoaded(ctx, "fallback")
		return pricing.ActiveOptions(l.fallback)
	}

	options, err := l.directory.ListCommissions(ctx, supplierID)
	if err != nil {
		telemetry.RecordError(span, err)
		l.logger.Warn("commission lookup failed, using fallback options",
			zap.String("supplier_id", supplierID),
			zap.Int("fallback_count", len(l.fallback)),
			zap.Error(err),
		)
		l.metrics.CommissionLoaded(ctx, "fallback")
		return pricing.ActiveOptions(l.fallback)
	}
	l.metrics.CommissionLoaded(ctx, "directory")
	return pricing.ActiveOptions(options)
}

// loadCompanyDefaults reads the company invoice settings, falling back to
// fallback on error
func loadCompanyDefaults(ctx context.Context, dir invoicing.CompanyDirectory, fallback invoicing.CompanyDefaults, logger *zap.Logger) invoicing.CompanyDefaults {
	if dir == nil {
		return fallback
	}
	defaults, err := dir.Defaults(ctx)
	if err != nil {
		logger.Warn("company defaults lookup failed, using configured defaults", zap.Error(err))
		return fallback
	}
	if defaults.InvoiceLanguage == "" {
		defaults.InvoiceLanguage = fallback.InvoiceLanguage
	}
	return defaults
}
