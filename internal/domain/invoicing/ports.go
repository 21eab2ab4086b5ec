package invoicing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/pricing"
)

// CommissionDirectory looks up the commission agreements of a supplier
type CommissionDirectory interface {
	ListCommissions(ctx context.Context, supplierID string) ([]pricing.CommissionOption, error)
}

// NumberAllocator hands out unique, monotonically assignable invoice numbers.
// Commit only ever asks for one at a time.
type NumberAllocator interface {
	Next(ctx context.Context, count int) ([]string, error)
}

// InvoiceRepository persists finalized invoices
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// CompanyDefaults are the company-wide invoice settings loaded once per session
type CompanyDefaults struct {
	TaxRate         decimal.Decimal `json:"tax_rate"`
	InvoiceLanguage string          `json:"invoice_language"`
}

// CompanyDirectory provides the company-wide invoice settings
type CompanyDirectory interface {
	Defaults(ctx context.Context) (CompanyDefaults, error)
}
