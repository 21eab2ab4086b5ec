package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/domain/terms"
)

// Status is the lifecycle status of an invoice
type Status string

const (
	StatusDraft  Status = "draft"
	StatusIssued Status = "issued"
)

// DocumentType distinguishes invoices from credit notes
type DocumentType string

const (
	DocumentInvoice    DocumentType = "invoice"
	DocumentCreditNote DocumentType = "credit_note"
)

// InvoiceItem is a committed invoice line
type InvoiceItem struct {
	Position    int             `json:"position"`
	ServiceID   string          `json:"service_id,omitempty"`
	Description string          `json:"description" validate:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice is the finalized payload of one payer group
type Invoice struct {
	shared.BaseAggregateRoot
	Number             string           `json:"invoice_number" validate:"required,max=50"`
	PayerKey           string           `json:"payer_key"`
	PayerName          string           `json:"payer_name" validate:"required,max=200"`
	Language           string           `json:"language" validate:"required"`
	InvoiceDate        time.Time        `json:"invoice_date"`
	DueDate            time.Time        `json:"due_date"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	TaxRate            decimal.Decimal  `json:"tax_rate"`
	TaxAmount          decimal.Decimal  `json:"tax_amount"`
	Total              decimal.Decimal  `json:"total"`
	DepositAmount      *decimal.Decimal `json:"deposit_amount"`
	DepositDate        *time.Time       `json:"deposit_date"`
	FinalPaymentAmount decimal.Decimal  `json:"final_payment_amount"`
	FinalPaymentDate   *time.Time       `json:"final_payment_date"`
	Status             Status           `json:"status"`
	DocumentType       DocumentType     `json:"document_type"`
	Items              []InvoiceItem    `json:"items" validate:"required,min=1,dive"`
}

// Draft is everything a payer group contributes to its invoice
type Draft struct {
	Number      string
	PayerKey    string
	PayerName   string
	Language    string
	InvoiceDate time.Time
	DueDate     *time.Time
	Lines       Lines
	Totals      Totals
	Terms       terms.Result
}

// Validate rejects a draft that can never become an invoice. Numbering is
// not checked here since it is assigned at commit time.
func (d Draft) Validate() error {
	var problems []string
	if strings.TrimSpace(d.PayerName) == "" {
		problems = append(problems, "payer name is required")
	}
	if len(d.Lines) == 0 {
		problems = append(problems, "at least one invoice line is required")
	}
	if len(problems) > 0 {
		return shared.NewDomainError(shared.ErrValidationRejected.Code, strings.Join(problems, "; "))
	}
	return nil
}

// ResolveDueDate is the explicit due date, else the final payment date, else
// the invoice date
func (d Draft) ResolveDueDate() time.Time {
	if d.DueDate != nil {
		return *d.DueDate
	}
	if d.Terms.Snapshot.FinalPaymentDate != nil {
		return *d.Terms.Snapshot.FinalPaymentDate
	}
	return d.InvoiceDate
}

// NewInvoice builds a draft invoice numbered number
func NewInvoice(d Draft, number string) (*Invoice, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError(shared.ErrValidationRejected.Code, "invoice number is required")
	}

	inv := &Invoice{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Number:             strings.TrimSpace(number),
		PayerKey:           d.PayerKey,
		PayerName:          strings.TrimSpace(d.PayerName),
		Language:           d.Language,
		InvoiceDate:        d.InvoiceDate,
		DueDate:            d.ResolveDueDate(),
		Subtotal:           d.Totals.Subtotal,
		TaxRate:            d.Totals.TaxRate,
		TaxAmount:          d.Totals.TaxAmount,
		Total:              d.Totals.Total,
		FinalPaymentAmount: d.Terms.FinalPaymentAmount,
		FinalPaymentDate:   d.Terms.Snapshot.FinalPaymentDate,
		Status:             StatusDraft,
		DocumentType:       DocumentInvoice,
	}
	if d.Totals.IsCreditNote {
		inv.DocumentType = DocumentCreditNote
	}
	// full payment carries no deposit row
	if d.Terms.HasDepositRow() {
		amount := *d.Terms.DepositAmount
		inv.DepositAmount = &amount
		inv.DepositDate = d.Terms.Snapshot.DepositDate
	}

	inv.Items = make([]InvoiceItem, len(d.Lines))
	for i, line := range d.Lines {
		inv.Items[i] = InvoiceItem{
			Position:    i + 1,
			ServiceID:   line.ServiceID,
			Description: line.Description,
			Amount:      line.Amount,
		}
	}

	inv.Record(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// IsCreditNote reports whether the invoice is relabelled as a credit note
func (i *Invoice) IsCreditNote() bool {
	return i.DocumentType == DocumentCreditNote
}

// String is used in log lines
func (i *Invoice) String() string {
	return fmt.Sprintf("%s %s (%s)", i.DocumentType, i.Number, i.Total.StringFixed(2))
}

// AggregateTypeInvoice is the aggregate type recorded on invoice events
const AggregateTypeInvoice = "Invoice"

// EventTypeInvoiceCreated is raised when an invoice has been built for a payer group
const EventTypeInvoiceCreated = "InvoiceCreated"

// InvoiceCreatedEvent is raised when an invoice has been built for a payer group
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PayerName     string          `json:"payer_name"`
	DocumentType  DocumentType    `json:"document_type"`
	Total         decimal.Decimal `json:"total"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.Number,
		PayerName:       inv.PayerName,
		DocumentType:    inv.DocumentType,
		Total:           inv.Total,
	}
}
