// Package terms resolves the deposit and final payment split of an invoice
// against its total.
package terms

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositType says how the deposit value is interpreted
type DepositType string

const (
	DepositAmount  DepositType = "amount"
	DepositPercent DepositType = "percent"
)

// IsValid checks if the deposit type is known
func (t DepositType) IsValid() bool {
	return t == DepositAmount || t == DepositPercent
}

// Field identifies an editable payment terms field
type Field string

const (
	FieldNone                Field = ""
	FieldDepositType         Field = "deposit_type"
	FieldDepositValue        Field = "deposit_value"
	FieldDepositDate         Field = "deposit_date"
	FieldFinalPaymentAmount  Field = "final_payment_amount"
	FieldFinalPaymentPercent Field = "final_payment_percent"
	FieldFinalPaymentDate    Field = "final_payment_date"
)

// Snapshot is the payment terms state of one payer group.
//
// While IsFinalPaymentManual is false FinalPaymentAmount is derived from the
// total and the deposit. Once the user types a final amount the roles swap and
// DepositValue is derived instead.
type Snapshot struct {
	DepositType          DepositType      `json:"deposit_type"`
	DepositValue         *decimal.Decimal `json:"deposit_value"`
	DepositDate          *time.Time       `json:"deposit_date,omitempty"`
	FinalPaymentAmount   decimal.Decimal  `json:"final_payment_amount"`
	FinalPaymentDate     *time.Time       `json:"final_payment_date,omitempty"`
	IsFinalPaymentManual bool             `json:"is_final_payment_manual"`
}

// NewSnapshot returns empty terms with a percent deposit type, which is
// resolved as full payment until a deposit is entered
func NewSnapshot() Snapshot {
	return Snapshot{DepositType: DepositPercent}
}

// Edit is a single change to one payment terms field
type Edit struct {
	Field       Field       `json:"field"`
	Raw         string      `json:"raw"`
	DepositType DepositType `json:"deposit_type,omitempty"`
	Date        *time.Time  `json:"date,omitempty"`
}

// Result is a resolved snapshot plus the values shown next to it
type Result struct {
	Snapshot            Snapshot         `json:"snapshot"`
	Total               decimal.Decimal  `json:"total"`
	DepositAmount       *decimal.Decimal `json:"deposit_amount"`
	FinalPaymentAmount  decimal.Decimal  `json:"final_payment_amount"`
	FinalPaymentPercent decimal.Decimal  `json:"final_payment_percent"`
	IsFullPayment       bool             `json:"is_full_payment"`
}

// HasDepositRow reports whether a deposit line belongs on the invoice. Only
// a positive deposit gets one.
func (r Result) HasDepositRow() bool {
	return !r.IsFullPayment && r.DepositAmount != nil && r.DepositAmount.IsPositive()
}
