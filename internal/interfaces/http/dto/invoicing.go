package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/domain/terms"
)

// SolvePricingRequest solves one pricing edit against a caller-held state
type SolvePricingRequest struct {
	State pricing.State `json:"state"`
	Edit  pricing.Edit  `json:"edit"`
}

// SolvePricingResponse is the reconciled state and the fields the solver wrote
type SolvePricingResponse struct {
	State   pricing.State   `json:"state"`
	Written []pricing.Field `json:"written"`
}

// ResolveTermsRequest resolves one payment terms edit against a total
type ResolveTermsRequest struct {
	Total    decimal.Decimal `json:"total"`
	Snapshot terms.Snapshot  `json:"snapshot"`
	Edit     terms.Edit      `json:"edit"`
}

// InvoiceTotalsRequest computes totals for a line list
type InvoiceTotalsRequest struct {
	Lines   []InvoiceLineRequest `json:"lines" binding:"dive"`
	TaxRate decimal.Decimal      `json:"tax_rate"`
}

// InvoiceLineRequest is one line of a totals preview
type InvoiceLineRequest struct {
	Description string          `json:"description" binding:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
}

// ToLines converts the request lines to domain lines
func (r InvoiceTotalsRequest) ToLines() invoicing.Lines {
	lines := make(invoicing.Lines, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = invoicing.InvoiceLine{ID: uuid.New(), Description: l.Description, Amount: l.Amount}
	}
	return lines
}

// OpenSessionRequest starts an invoice session for the selected services
type OpenSessionRequest struct {
	Services []invoicing.ServiceLineItem `json:"services" binding:"required,min=1"`
}

// SwitchActiveRequest makes another payer group the live one
type SwitchActiveRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// EditPricingRequest applies a pricing edit to one service of the active group
type EditPricingRequest struct {
	ServiceID string       `json:"service_id" binding:"required"`
	Edit      pricing.Edit `json:"edit"`
}

// CommissionOptionsRequest loads the commission options of one service's supplier
type CommissionOptionsRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
}

// CommissionOptionsResponse lists the active options of a supplier
type CommissionOptionsResponse struct {
	ServiceID string                     `json:"service_id"`
	Options   []pricing.CommissionOption `json:"options"`
}

// InvoiceItemResponse is one stored invoice item
type InvoiceItemResponse struct {
	Position    int             `json:"position"`
	ServiceID   string          `json:"service_id,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse is a stored invoice and its audit trail
type InvoiceResponse struct {
	ID                 uuid.UUID              `json:"id"`
	Number             string                 `json:"invoice_number"`
	PayerKey           string                 `json:"payer_key"`
	PayerName          string                 `json:"payer_name"`
	Language           string                 `json:"language"`
	InvoiceDate        time.Time              `json:"invoice_date"`
	DueDate            time.Time              `json:"due_date"`
	Subtotal           decimal.Decimal        `json:"subtotal"`
	TaxRate            decimal.Decimal        `json:"tax_rate"`
	TaxAmount          decimal.Decimal        `json:"tax_amount"`
	Total              decimal.Decimal        `json:"total"`
	DepositAmount      *decimal.Decimal       `json:"deposit_amount"`
	DepositDate        *time.Time             `json:"deposit_date"`
	FinalPaymentAmount decimal.Decimal        `json:"final_payment_amount"`
	FinalPaymentDate   *time.Time             `json:"final_payment_date"`
	Status             invoicing.Status       `json:"status"`
	DocumentType       invoicing.DocumentType `json:"document_type"`
	Items              []InvoiceItemResponse  `json:"items"`
	Events             []shared.LoggedEvent   `json:"events"`
	CreatedAt          time.Time              `json:"created_at"`
}

// NewInvoiceResponse builds the response of a stored invoice
func NewInvoiceResponse(inv *invoicing.Invoice, events []shared.LoggedEvent) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemResponse{
			Position:    it.Position,
			ServiceID:   it.ServiceID,
			Description: it.Description,
			Amount:      it.Amount,
		}
	}
	if events == nil {
		events = []shared.LoggedEvent{}
	}
	return InvoiceResponse{
		ID:                 inv.ID,
		Number:             inv.Number,
		PayerKey:           inv.PayerKey,
		PayerName:          inv.PayerName,
		Language:           inv.Language,
		InvoiceDate:        inv.InvoiceDate,
		DueDate:            inv.DueDate,
		Subtotal:           inv.Subtotal,
		TaxRate:            inv.TaxRate,
		TaxAmount:          inv.TaxAmount,
		Total:              inv.Total,
		DepositAmount:      inv.DepositAmount,
		DepositDate:        inv.DepositDate,
		FinalPaymentAmount: inv.FinalPaymentAmount,
		FinalPaymentDate:   inv.FinalPaymentDate,
		Status:             inv.Status,
		DocumentType:       inv.DocumentType,
		Items:              items,
		Events:             events,
		CreatedAt:          inv.CreatedAt,
	}
}
