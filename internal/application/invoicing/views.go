package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/terms"
)

// GroupView is the read model of one payer group
type GroupView struct {
	Index             int                                   `json:"index"`
	PayerKey          string                                `json:"payer_key"`
	PayerDisplayName  string                                `json:"payer_display_name"`
	Active            bool                                  `json:"active"`
	Services          []invoicing.ServiceLineItem           `json:"services"`
	Pricing           map[string]pricing.State              `json:"pricing"`
	Lines             invoicing.Lines                       `json:"lines"`
	Totals            invoicing.Totals                      `json:"totals"`
	Terms             terms.Result                          `json:"terms"`
	InvoiceNumber     string                                `json:"invoice_number"`
	Language          string                                `json:"language"`
	InvoiceDate       time.Time                             `json:"invoice_date"`
	DueDate           time.Time                             `json:"due_date"`
	Committed         bool                                  `json:"committed"`
	CommissionOptions map[string][]pricing.CommissionOption `json:"commission_options,omitempty"`
}

// SessionView is the read model of a whole invoice session
type SessionView struct {
	ID          uuid.UUID   `json:"id"`
	ActiveIndex int         `json:"active_index"`
	Groups      []GroupView `json:"groups"`
	CreatedAt   time.Time   `json:"created_at"`
}

// PricingResult is returned after a pricing edit
type PricingResult struct {
	ServiceID string          `json:"service_id"`
	State     pricing.State   `json:"state"`
	Written   []pricing.Field `json:"written"`
	Group     GroupView       `json:"group"`
}

// HeaderUpdate changes invoice header fields of the active group.
// Nil fields are left as they are.
type HeaderUpdate struct {
	InvoiceNumber *string    `json:"invoice_number"`
	Language      *string    `json:"language"`
	TaxRate       *string    `json:"tax_rate"`
	InvoiceDate   *time.Time `json:"invoice_date"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
}

// LineOp names an invoice line operation
type LineOp string

const (
	LineAdd    LineOp = "add"
	LineUpdate LineOp = "update"
	LineCopy   LineOp = "copy"
	LineDelete LineOp = "delete"
	LineMove   LineOp = "move"
)

// LineCommand is one operation on the active group's invoice lines
type LineCommand struct {
	Op          LineOp    `json:"op"`
	LineID      uuid.UUID `json:"line_id"`
	Description *string   `json:"description"`
	Amount      *string   `json:"amount"`
	To          int       `json:"to"`
}

// GroupOutcome is the commit result of one payer group
type GroupOutcome struct {
	Index         int    `json:"index"`
	PayerKey      string `json:"payer_key"`
	PayerName     string `json:"payer_name"`
	Success       bool   `json:"success"`
	InvoiceID     string `json:"invoice_id,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	DocumentType  string `json:"document_type,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
	Error         string `json:"error,omitempty"`
}

// CommitResult tallies a multi-group commit
type CommitResult struct {
	Success int            `json:"success"`
	Failed  int            `json:"failed"`
	Groups  []GroupOutcome `json:"groups"`
}

func (r CommitResult) outcome() string {
	switch {
	case r.Failed == 0:
		return "success"
	case r.Success == 0:
		return "failed"
	default:
		return "partial"
	}
}
