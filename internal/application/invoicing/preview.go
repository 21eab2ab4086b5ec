package invoicing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/domain/terms"
)

// PreviewPricing solves one edit against a caller-held pricing state
func (s *Service) PreviewPricing(state pricing.State, edit pricing.Edit) (pricing.State, []pricing.Field, error) {
	if !state.Mode.IsValid() {
		return pricing.State{}, nil, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("unknown pricing mode %q", state.Mode))
	}
	if edit.Field != pricing.FieldNone && !edit.Field.IsValid() {
		return pricing.State{}, nil, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("unknown pricing field %q", edit.Field))
	}
	if !state.DiscountUnit.IsValid() {
		state.DiscountUnit = pricing.DiscountPercent
	}
	if edit.Field == pricing.FieldNone {
		return pricing.Reconcile(state), nil, nil
	}
	next, written := pricing.Solve(state, edit)
	return next, written, nil
}

// PreviewTerms resolves one payment terms edit against total
func (s *Service) PreviewTerms(total decimal.Decimal, snap terms.Snapshot, edit terms.Edit) terms.Result {
	if !snap.DepositType.IsValid() {
		snap.DepositType = terms.DepositPercent
	}
	return terms.Resolve(total, snap, edit)
}

// PreviewTotals computes invoice totals for a line list
func (s *Service) PreviewTotals(lines invoicing.Lines, taxRate decimal.Decimal) invoicing.Totals {
	return invoicing.CalculateTotals(lines, taxRate)
}
