package invoicing

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/terms"
)

// Form is the editable state of one payer group. Exactly one group is bound
// to the live form; the others keep a frozen copy in their snapshot.
type Form struct {
	Services      []invoicing.ServiceLineItem
	Pricing       map[string]pricing.State
	Lines         invoicing.Lines
	Terms         terms.Snapshot
	InvoiceNumber string
	Language      string
	TaxRate       decimal.Decimal
	InvoiceDate   time.Time
	DueDate       *time.Time
}

// defaultFlags remembers which one-shot defaults a group already received
type defaultFlags struct {
	Deposit    bool
	Commission map[string]bool // by service ID
}

// PayerGroup is one payer's invoice in the making
type PayerGroup struct {
	PayerKey         string
	PayerDisplayName string
	Snapshot         Form

	defaults  defaultFlags
	committed *committedInvoice
}

type committedInvoice struct {
	ID     string
	Number string
}

// serializeForm copies the live form into a snapshot
func serializeForm(f Form) Form {
	return cloneForm(f)
}

// hydrateForm builds a live form from a group snapshot
func hydrateForm(g PayerGroup) Form {
	return cloneForm(g.Snapshot)
}

func cloneForm(f Form) Form {
	out := f
	out.Services = slices.Clone(f.Services)
	out.Pricing = maps.Clone(f.Pricing)
	out.Lines = slices.Clone(f.Lines)
	if f.DueDate != nil {
		due := *f.DueDate
		out.DueDate = &due
	}
	return out
}

func (f Form) totals() invoicing.Totals {
	return invoicing.CalculateTotals(f.Lines, f.TaxRate)
}

// recalculateTerms re-derives the payment split after the total moved
func (f *Form) recalculateTerms() terms.Result {
	res := terms.Recalculate(f.totals().Total, f.Terms)
	f.Terms = res.Snapshot
	return res
}

func (f Form) serviceIndex(serviceID string) int {
	return slices.IndexFunc(f.Services, func(s invoicing.ServiceLineItem) bool {
		return s.ID == serviceID
	})
}

func (f Form) draft(g PayerGroup) invoicing.Draft {
	totals := f.totals()
	return invoicing.Draft{
		Number:      f.InvoiceNumber,
		PayerKey:    g.PayerKey,
		PayerName:   g.PayerDisplayName,
		Language:    f.Language,
		InvoiceDate: f.InvoiceDate,
		DueDate:     f.DueDate,
		Lines:       f.Lines,
		Totals:      totals,
		Terms:       terms.Recalculate(totals.Total, f.Terms),
	}
}
