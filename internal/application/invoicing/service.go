// Package invoicing runs invoice-creation sessions: it splits the selected
// services into payer groups, keeps their pricing and payment terms
// consistent while they are edited and commits one invoice per group.
package invoicing

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/domain/terms"
	"github.com/travelagency/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Config holds the fallbacks and limits of invoice sessions
type Config struct {
	DefaultTaxRate      decimal.Decimal
	DefaultLanguage     string
	FallbackCommissions []pricing.CommissionOption
	// CategoryLabels names service categories on seeded invoice lines when a
	// service carries no description of its own
	CategoryLabels map[string]string
	// MaxNumberAttempts bounds how many allocated numbers a group may skip
	// because they collide with numbers typed manually in the same batch
	MaxNumberAttempts int
}

// DefaultConfig returns the built-in fallbacks
func DefaultConfig() Config {
	return Config{
		DefaultTaxRate:    decimal.Zero,
		DefaultLanguage:   "en",
		MaxNumberAttempts: 5,
	}
}

// Dependencies are the collaborators a session talks to
type Dependencies struct {
	Commissions invoicing.CommissionDirectory
	Company     invoicing.CompanyDirectory
	Allocator   invoicing.NumberAllocator
	Invoices    invoicing.InvoiceRepository
	Events      shared.EventPublisher
	Metrics     *telemetry.InvoiceMetrics
}

// Service opens invoice sessions and keeps them in a store
type Service struct {
	deps        Dependencies
	cfg         Config
	commissions *CommissionLoader
	store       *SessionStore
	validate    *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new invoice session service
func NewService(deps Dependencies, cfg Config, store *SessionStore, logger *zap.Logger) *Service {
	if cfg.MaxNumberAttempts <= 0 {
		cfg.MaxNumberAttempts = DefaultConfig().MaxNumberAttempts
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultConfig().DefaultLanguage
	}
	return &Service{
		deps:        deps,
		cfg:         cfg,
		commissions: NewCommissionLoader(deps.Commissions, cfg.FallbackCommissions, logger).WithMetrics(deps.Metrics),
		store:       store,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
	}
}

// Open groups services by payer and starts a session bound to the first group.
// Company defaults are fetched once here.
func (s *Service) Open(ctx context.Context, services []invoicing.ServiceLineItem) (*Session, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_session", "open")
	defer span.End()

	if len(services) == 0 {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "at least one service is required")
	}
	for _, svc := range services {
		if err := s.validate.Struct(svc); err != nil {
			return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, err.Error())
		}
	}

	company := loadCompanyDefaults(ctx, s.deps.Company, invoicing.CompanyDefaults{
		TaxRate:         s.cfg.DefaultTaxRate,
		InvoiceLanguage: s.cfg.DefaultLanguage,
	}, s.logger)
	language := invoicing.NormalizeLanguage(company.InvoiceLanguage, s.cfg.DefaultLanguage)

	today := s.now().UTC().Truncate(24 * time.Hour)
	buckets := invoicing.GroupByPayer(s.labelled(services))
	groups := make([]PayerGroup, len(buckets))
	for i, b := range buckets {
		groups[i] = s.newGroup(b, company.TaxRate, language, today)
	}

	sess := &Session{
		ID:          uuid.New(),
		CreatedAt:   s.now(),
		svc:         s,
		alive:       true,
		groups:      groups,
		active:      0,
		commissions: make(map[string][]pricing.CommissionOption),
	}
	sess.form = hydrateForm(groups[0])
	s.store.Put(sess)
	s.deps.Metrics.SessionOpened(ctx)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSessionID, sess.ID.String(),
		telemetry.SpanAttrGroupCount, len(groups),
	)
	s.logger.Info("invoice session opened",
		zap.String("session_id", sess.ID.String()),
		zap.Int("services", len(services)),
		zap.Int("groups", len(groups)),
	)
	return sess, nil
}

func (s *Service) labelled(services []invoicing.ServiceLineItem) []invoicing.ServiceLineItem {
	if len(s.cfg.CategoryLabels) == 0 {
		return services
	}
	out := make([]invoicing.ServiceLineItem, len(services))
	for i, svc := range services {
		if svc.Description == "" {
			if label, ok := s.cfg.CategoryLabels[svc.Category]; ok {
				svc.Description = label
			}
		}
		out[i] = svc
	}
	return out
}

func (s *Service) newGroup(b invoicing.PayerBucket, taxRate decimal.Decimal, language string, today time.Time) PayerGroup {
	form := Form{
		Services:    b.Services,
		Pricing:     make(map[string]pricing.State, len(b.Services)),
		Lines:       invoicing.LinesFromServices(b.Services),
		Terms:       terms.NewSnapshot(),
		Language:    language,
		TaxRate:     taxRate,
		InvoiceDate: today,
	}
	for _, svc := range b.Services {
		form.Pricing[svc.ID] = svc.PricingState()
	}

	g := PayerGroup{
		PayerKey:         b.PayerKey,
		PayerDisplayName: b.PayerDisplayName,
		defaults:         defaultFlags{Commission: make(map[string]bool)},
	}
	form.Terms = applyDepositDefault(&form, &g.defaults)
	g.Snapshot = form
	return g
}

// applyDepositDefault seeds the deposit from the terms text of the
// highest-priced service, at most once per group
func applyDepositDefault(f *Form, flags *defaultFlags) terms.Snapshot {
	if flags.Deposit {
		return f.Terms
	}
	flags.Deposit = true
	largest, ok := invoicing.LargestSale(f.Services)
	if !ok {
		return f.Terms
	}
	snap, _ := terms.ApplyDefaultDeposit(f.totals().Total, f.Terms, largest.PaymentTerms)
	return terms.Recalculate(f.totals().Total, snap).Snapshot
}

// Session returns an open session
func (s *Service) Session(id uuid.UUID) (*Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return sess, nil
}

// Close tears a session down. Responses still in flight for it are dropped.
func (s *Service) Close(id uuid.UUID) error {
	if !s.store.Delete(id) {
		return shared.ErrNotFound
	}
	s.logger.Info("invoice session closed", zap.String("session_id", id.String()))
	return nil
}
