package terms

import (
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/shared/valueobject"
)

// Resolve applies one edit to the snapshot and recalculates it against total
func Resolve(total decimal.Decimal, s Snapshot, e Edit) Result {
	switch e.Field {
	case FieldDepositType:
		if e.DepositType.IsValid() && e.DepositType != s.DepositType {
			// no conversion: the total is still moving, so the user re-enters
			s.DepositType = e.DepositType
			s.DepositValue = nil
			s.IsFinalPaymentManual = false
		}
	case FieldDepositValue:
		s.DepositValue = parseDepositValue(s.DepositType, e.Raw)
		s.IsFinalPaymentManual = false
	case FieldFinalPaymentPercent:
		percent := clampPercent(valueobject.ParseAmount(e.Raw))
		value := valueobject.Hundred().Sub(percent)
		s.DepositType = DepositPercent
		s.DepositValue = &value
		s.IsFinalPaymentManual = false
	case FieldFinalPaymentAmount:
		final := valueobject.Round2(valueobject.ParseNonNegativeAmount(e.Raw))
		if total.IsPositive() && final.GreaterThan(total) {
			final = valueobject.Round2(total)
		}
		deposit := valueobject.Round2(total.Sub(final))
		s.DepositType = DepositAmount
		s.DepositValue = &deposit
		s.FinalPaymentAmount = final
		s.IsFinalPaymentManual = true
	case FieldDepositDate:
		s.DepositDate = e.Date
	case FieldFinalPaymentDate:
		s.FinalPaymentDate = e.Date
	}
	return Recalculate(total, s)
}

// Recalculate re-derives the dependent side of the snapshot after the total
// changed
func Recalculate(total decimal.Decimal, s Snapshot) Result {
	total = valueobject.Round2(total)
	if s.IsFinalPaymentManual {
		deposit := valueobject.Round2(total.Sub(s.FinalPaymentAmount))
		s.DepositType = DepositAmount
		s.DepositValue = &deposit
	}

	deposit := DepositAmountOf(total, s)
	if !s.IsFinalPaymentManual {
		paid := decimal.Zero
		if deposit != nil {
			paid = *deposit
		}
		s.FinalPaymentAmount = valueobject.Round2(total.Sub(paid))
	}

	full := total.IsPositive() && (deposit == nil || deposit.IsZero())
	return Result{
		Snapshot:            s,
		Total:               total,
		DepositAmount:       deposit,
		FinalPaymentAmount:  s.FinalPaymentAmount,
		FinalPaymentPercent: valueobject.ShareOf(s.FinalPaymentAmount, total),
		IsFullPayment:       full,
	}
}

// DepositAmountOf is the deposit in currency, or nil when none is set
func DepositAmountOf(total decimal.Decimal, s Snapshot) *decimal.Decimal {
	if s.DepositValue == nil {
		return nil
	}
	var amount decimal.Decimal
	if s.DepositType == DepositPercent {
		amount = valueobject.PercentOf(total, *s.DepositValue)
	} else {
		amount = valueobject.Round2(*s.DepositValue)
	}
	return &amount
}

func parseDepositValue(t DepositType, raw string) *decimal.Decimal {
	v := valueobject.ParseOptionalAmount(raw)
	if v == nil {
		return nil
	}
	value := valueobject.FloorZero(*v)
	if t == DepositPercent {
		value = clampPercent(value)
	} else {
		value = valueobject.Round2(value)
	}
	return &value
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	p = valueobject.FloorZero(p)
	if p.GreaterThan(valueobject.Hundred()) {
		return valueobject.Hundred()
	}
	return p
}
