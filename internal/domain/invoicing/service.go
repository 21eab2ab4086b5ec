// Package invoicing groups booked services by payer and turns each group into
// an invoice.
package invoicing

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared/valueobject"
)

// ServiceLineItem is a booked service selected for invoicing.
// It is treated as a value: edits return a new item.
type ServiceLineItem struct {
	ID                string          `json:"id" validate:"required"`
	Category          string          `json:"category"`
	Description       string          `json:"description"`
	SupplierID        string          `json:"supplier_id"`
	PricingMode       pricing.Mode    `json:"pricing_mode"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	PayerKey          string          `json:"payer_key"`
	PayerDisplayName  string          `json:"payer_display_name"`
	CurrencyMinorUnit int32           `json:"currency_minor_unit"`
	PaymentTerms      string          `json:"payment_terms,omitempty"`
}

// NormalizePayerKey folds a payer name into the key services are grouped by
func NormalizePayerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Normalized fills the derived payer key, trims the display name and rounds
// prices to the currency's minor unit
func (s ServiceLineItem) Normalized() ServiceLineItem {
	s.PayerDisplayName = strings.TrimSpace(s.PayerDisplayName)
	s.PayerKey = NormalizePayerKey(s.PayerDisplayName)
	if s.CurrencyMinorUnit == 0 {
		s.CurrencyMinorUnit = valueobject.MinorUnits
	}
	if !s.PricingMode.IsValid() {
		s.PricingMode = pricing.ModeStandard
	}
	s.CostPrice = valueobject.Round2(s.CostPrice)
	s.SalePrice = valueobject.Round2(s.SalePrice)
	return s
}

// PricingState opens the pricing editor for the service. A tour service
// whose sale is below cost starts with that difference as a currency discount.
func (s ServiceLineItem) PricingState() pricing.State {
	if s.PricingMode != pricing.ModeTour {
		return pricing.NewStandardState(s.CostPrice, s.SalePrice)
	}
	st := pricing.NewTourState(s.CostPrice)
	if !valueobject.NearlyEqual(st.Sale, s.SalePrice) {
		st, _ = pricing.Solve(st, pricing.Edit{Field: pricing.FieldSale, Raw: s.SalePrice.String()})
	}
	return st
}

// WithPricing returns a copy carrying the cost and sale of st
func (s ServiceLineItem) WithPricing(st pricing.State) ServiceLineItem {
	s.CostPrice = st.Cost
	s.SalePrice = st.Sale
	return s
}

// LargestSale returns the service with the highest sale price, the first one
// on ties. ok is false for an empty list.
func LargestSale(services []ServiceLineItem) (ServiceLineItem, bool) {
	if len(services) == 0 {
		return ServiceLineItem{}, false
	}
	best := services[0]
	for _, s := range services[1:] {
		if s.SalePrice.GreaterThan(best.SalePrice) {
			best = s
		}
	}
	return best, true
}
