package invoicing

import (
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/shared/valueobject"
)

// Totals are the money figures of one invoice
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Total        decimal.Decimal `json:"total"`
	IsCreditNote bool            `json:"is_credit_note"`
}

// CalculateTotals sums the line amounts and applies taxRate (a percentage).
// A negative total turns the document into a credit note; line signs are
// left as entered.
func CalculateTotals(lines []InvoiceLine, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Amount)
	}
	subtotal = valueobject.Round2(subtotal)
	tax := valueobject.PercentOf(subtotal, taxRate)
	total := subtotal.Add(tax)

	return Totals{
		Subtotal:     subtotal,
		TaxRate:      taxRate,
		TaxAmount:    tax,
		Total:        total,
		IsCreditNote: total.IsNegative(),
	}
}
