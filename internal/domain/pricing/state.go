// Package pricing keeps the cost, margin and sale price of a service line
// consistent while one of them is being edited.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Mode selects which relation ties the pricing fields together
type Mode string

const (
	ModeStandard Mode = "standard" // sale = cost + margin
	ModeTour     Mode = "tour"     // supplier commission and agent discount
)

// IsValid checks if the mode is a known pricing mode
func (m Mode) IsValid() bool {
	return m == ModeStandard || m == ModeTour
}

// Field identifies a pricing field. As the LastEdited marker it names the
// field a derivation pass must treat as authoritative.
type Field string

const (
	FieldNone       Field = ""
	FieldCost       Field = "cost"
	FieldMargin     Field = "margin"
	FieldSale       Field = "sale"
	FieldAgent      Field = "agent" // agent discount value or unit
	FieldCommission Field = "commission"
)

// IsValid checks if the field can be the target of an edit
func (f Field) IsValid() bool {
	switch f {
	case FieldCost, FieldMargin, FieldSale, FieldAgent, FieldCommission:
		return true
	}
	return false
}

// DiscountUnit says how the agent discount value is interpreted
type DiscountUnit string

const (
	DiscountPercent  DiscountUnit = "percent"
	DiscountCurrency DiscountUnit = "currency"
)

// IsValid checks if the unit is known
func (u DiscountUnit) IsValid() bool {
	return u == DiscountPercent || u == DiscountCurrency
}

// State is the pricing of one service while it is being edited
type State struct {
	Mode             Mode             `json:"mode"`
	Cost             decimal.Decimal  `json:"cost"`
	Margin           decimal.Decimal  `json:"margin"`
	Sale             decimal.Decimal  `json:"sale"`
	CommissionName   string           `json:"commission_name,omitempty"`
	CommissionRate   *decimal.Decimal `json:"commission_rate,omitempty"`
	CommissionAmount decimal.Decimal  `json:"commission_amount"`
	DiscountValue    *decimal.Decimal `json:"discount_value,omitempty"`
	DiscountUnit     DiscountUnit     `json:"discount_unit"`
	LastEdited       Field            `json:"last_edited,omitempty"`
}

// NewStandardState creates a standard-mode state from loaded cost and sale prices
func NewStandardState(cost, sale decimal.Decimal) State {
	return State{
		Mode:         ModeStandard,
		Cost:         cost,
		Sale:         sale,
		Margin:       sale.Sub(cost),
		DiscountUnit: DiscountPercent,
	}
}

// NewTourState creates a tour-mode state with no commission or discount chosen yet
func NewTourState(cost decimal.Decimal) State {
	return Reconcile(State{
		Mode:         ModeTour,
		Cost:         cost,
		DiscountUnit: DiscountPercent,
	})
}

// HasCommission reports whether a commission option with a positive rate is selected
func (s State) HasCommission() bool {
	return s.CommissionRate != nil && s.CommissionRate.IsPositive()
}

// DiscountAmount is the agent discount in currency
func (s State) DiscountAmount() decimal.Decimal {
	if s.DiscountValue == nil {
		return decimal.Zero
	}
	if s.DiscountUnit == DiscountCurrency {
		return *s.DiscountValue
	}
	return s.Cost.Mul(*s.DiscountValue).Div(decimal.NewFromInt(100))
}
