package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/shared/valueobject"
)

// Edit is a single user change to one pricing field.
//
// Raw carries the text typed into cost, margin, sale or the agent discount
// value. For FieldAgent a non-empty Unit with an empty Raw switches the unit
// and keeps the value. For FieldCommission, Commission is the selected option
// and nil clears the selection.
type Edit struct {
	Field      Field             `json:"field"`
	Raw        string            `json:"raw"`
	Unit       DiscountUnit      `json:"unit,omitempty"`
	Commission *CommissionOption `json:"commission,omitempty"`
}

// Solve applies one edit and runs exactly one derivation pass selected by the
// edited field. The returned state has LastEdited cleared. The second return
// value lists the derived fields that were written; each appears at most once
// and never includes the edited field itself.
func Solve(s State, e Edit) (State, []Field) {
	if !e.Field.IsValid() {
		return derive(s)
	}
	if s.Mode == ModeTour && e.Field == FieldMargin {
		// margin is derived in tour mode; an edit to it is not a source of truth
		return derive(s)
	}

	next := apply(s, e)
	next.LastEdited = e.Field
	next, writes := derive(next)
	next.LastEdited = FieldNone
	return next, writes
}

// Reconcile corrects derived fields without an edit, e.g. right after a
// service is loaded with both cost and margin pre-populated. LastEdited is
// left untouched.
func Reconcile(s State) State {
	next, _ := derive(s)
	return next
}

func apply(s State, e Edit) State {
	switch e.Field {
	case FieldCost:
		s.Cost = valueobject.Round2(valueobject.ParseNonNegativeAmount(e.Raw))
	case FieldMargin:
		s.Margin = valueobject.Round2(valueobject.ParseAmount(e.Raw))
	case FieldSale:
		s.Sale = valueobject.Round2(valueobject.ParseNonNegativeAmount(e.Raw))
	case FieldAgent:
		if e.Unit.IsValid() {
			s.DiscountUnit = e.Unit
		}
		if e.Raw != "" || !e.Unit.IsValid() {
			if v := valueobject.ParseOptionalAmount(e.Raw); v != nil {
				floored := valueobject.FloorZero(*v)
				s.DiscountValue = &floored
			} else {
				s.DiscountValue = nil
			}
		}
	case FieldCommission:
		s = selectCommission(s, e.Commission)
	}
	return s
}

func selectCommission(s State, opt *CommissionOption) State {
	if opt == nil {
		s.CommissionName = ""
		s.CommissionRate = nil
		s.CommissionAmount = decimal.Zero
		return s
	}
	rate := valueobject.FloorZero(opt.Rate)
	s.CommissionName = opt.Name
	s.CommissionRate = &rate
	s.CommissionAmount = commissionAmount(s)
	return s
}

func commissionAmount(s State) decimal.Decimal {
	if !s.HasCommission() {
		return decimal.Zero
	}
	return valueobject.PercentOf(s.Cost, *s.CommissionRate)
}

// writer records derived-field writes, skipping values that are already
// nearly equal so an identical write never re-triggers downstream work
type writer struct {
	fields []Field
}

func (w *writer) set(target *decimal.Decimal, value decimal.Decimal, f Field) {
	if valueobject.NearlyEqual(*target, value) {
		return
	}
	*target = value
	w.fields = append(w.fields, f)
}

func derive(s State) (State, []Field) {
	w := &writer{}
	if s.Mode == ModeTour {
		if s.LastEdited == FieldSale {
			s = backwardTour(s, w)
		} else {
			s = forwardTour(s, w)
		}
		return s, w.fields
	}

	switch s.LastEdited {
	case FieldSale:
		w.set(&s.Margin, valueobject.Round2(s.Sale.Sub(s.Cost)), FieldMargin)
	case FieldCost, FieldMargin, FieldNone:
		w.set(&s.Sale, valueobject.Round2(s.Cost.Add(s.Margin)), FieldSale)
	}
	return s, w.fields
}

// forwardTour treats cost, commission and discount as authoritative
func forwardTour(s State, w *writer) State {
	if s.LastEdited != FieldCommission {
		w.set(&s.CommissionAmount, commissionAmount(s), FieldCommission)
	}
	discount := s.DiscountAmount()
	w.set(&s.Margin, valueobject.Round2(s.CommissionAmount.Sub(discount)), FieldMargin)
	w.set(&s.Sale, valueobject.Round2(s.Cost.Sub(discount)), FieldSale)
	return s
}

// backwardTour treats the sale price as authoritative and infers the discount.
// The unit is forced to currency because a percentage cannot be recovered
// unambiguously once sale is the source of truth.
func backwardTour(s State, w *writer) State {
	if s.Sale.LessThan(s.Cost) {
		discount := valueobject.Round2(s.Cost.Sub(s.Sale))
		if s.DiscountUnit != DiscountCurrency || s.DiscountValue == nil || !valueobject.NearlyEqual(*s.DiscountValue, discount) {
			s.DiscountUnit = DiscountCurrency
			s.DiscountValue = &discount
			w.fields = append(w.fields, FieldAgent)
		}
		w.set(&s.Margin, valueobject.Round2(s.CommissionAmount.Sub(discount)), FieldMargin)
		return s
	}

	if s.DiscountValue != nil && !s.DiscountValue.IsZero() {
		zero := decimal.Zero
		s.DiscountValue = &zero
		w.fields = append(w.fields, FieldAgent)
	}
	w.set(&s.Margin, valueobject.Round2(s.CommissionAmount), FieldMargin)
	return s
}
