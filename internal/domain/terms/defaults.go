package terms

import (
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/shared/valueobject"
)

// DefaultDepositFromTerms extracts the percent deposit from free-text payment
// terms such as "30% deposit, balance 6 weeks before travel".
// Only a percentage written before the word "deposit" counts.
func DefaultDepositFromTerms(freeText string) (decimal.Decimal, bool) {
	return valueobject.LeadingDepositPercent(freeText)
}

// ApplyDefaultDeposit seeds a percent deposit unless a deposit or a manual
// final payment is already present. The bool reports whether anything changed.
func ApplyDefaultDeposit(total decimal.Decimal, s Snapshot, freeText string) (Snapshot, bool) {
	if s.DepositValue != nil || s.IsFinalPaymentManual {
		return s, false
	}
	percent, ok := DefaultDepositFromTerms(freeText)
	if !ok {
		return s, false
	}
	s.DepositType = DepositPercent
	res := Resolve(total, s, Edit{Field: FieldDepositValue, Raw: percent.String()})
	return res.Snapshot, true
}
