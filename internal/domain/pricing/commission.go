package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/shared/valueobject"
)

// CommissionOption is one supplier commission agreement
type CommissionOption struct {
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
	IsActive bool            `json:"is_active"`
}

// ActiveOptions drops options explicitly marked inactive. An empty result
// means no commission is available for the supplier.
func ActiveOptions(options []CommissionOption) []CommissionOption {
	active := make([]CommissionOption, 0, len(options))
	for _, o := range options {
		if o.IsActive {
			active = append(active, o)
		}
	}
	return active
}

// FindByRate returns the first option whose rate equals rate
func FindByRate(options []CommissionOption, rate decimal.Decimal) (CommissionOption, bool) {
	for _, o := range options {
		if o.Rate.Equal(rate) {
			return o, true
		}
	}
	return CommissionOption{}, false
}

// DefaultCommissionFromTerms reads the default commission rate from free-text
// payment terms: a percentage written right before or right after "deposit"
func DefaultCommissionFromTerms(terms string) (decimal.Decimal, bool) {
	return valueobject.DepositPercent(terms)
}
