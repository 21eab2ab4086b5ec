package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	Number             string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_number"`
	PayerKey           string                 `gorm:"type:varchar(200);not null;index"`
	PayerName          string                 `gorm:"type:varchar(200);not null"`
	Language           string                 `gorm:"type:varchar(20);not null"`
	InvoiceDate        time.Time              `gorm:"type:date;not null;index"`
	DueDate            time.Time              `gorm:"type:date;not null"`
	Subtotal           decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	TaxRate            decimal.Decimal        `gorm:"type:decimal(7,4);not null"`
	TaxAmount          decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Total              decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	DepositAmount      *decimal.Decimal       `gorm:"type:decimal(18,2)"`
	DepositDate        *time.Time             `gorm:"type:date"`
	FinalPaymentAmount decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	FinalPaymentDate   *time.Time             `gorm:"type:date"`
	Status             invoicing.Status       `gorm:"type:varchar(20);not null;default:'draft'"`
	DocumentType       invoicing.DocumentType `gorm:"type:varchar(20);not null;default:'invoice'"`
	Items              []InvoiceItemModel     `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Number:             m.Number,
		PayerKey:           m.PayerKey,
		PayerName:          m.PayerName,
		Language:           m.Language,
		InvoiceDate:        m.InvoiceDate,
		DueDate:            m.DueDate,
		Subtotal:           m.Subtotal,
		TaxRate:            m.TaxRate,
		TaxAmount:          m.TaxAmount,
		Total:              m.Total,
		DepositAmount:      m.DepositAmount,
		DepositDate:        m.DepositDate,
		FinalPaymentAmount: m.FinalPaymentAmount,
		FinalPaymentDate:   m.FinalPaymentDate,
		Status:             m.Status,
		DocumentType:       m.DocumentType,
		Items:              make([]invoicing.InvoiceItem, len(m.Items)),
	}
	for i, item := range m.Items {
		inv.Items[i] = item.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.Number = inv.Number
	m.PayerKey = inv.PayerKey
	m.PayerName = inv.PayerName
	m.Language = inv.Language
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.TaxAmount = inv.TaxAmount
	m.Total = inv.Total
	m.DepositAmount = inv.DepositAmount
	m.DepositDate = inv.DepositDate
	m.FinalPaymentAmount = inv.FinalPaymentAmount
	m.FinalPaymentDate = inv.FinalPaymentDate
	m.Status = inv.Status
	m.DocumentType = inv.DocumentType
	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModelFromDomain(inv.ID, item)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for a committed invoice line.
// Lines are immutable once written, so they carry no version.
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_items_position,priority:1"`
	Position    int             `gorm:"not null;uniqueIndex:idx_invoice_items_position,priority:2"`
	ServiceID   string          `gorm:"type:varchar(100)"`
	Description string          `gorm:"type:varchar(500);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() invoicing.InvoiceItem {
	return invoicing.InvoiceItem{
		Position:    m.Position,
		ServiceID:   m.ServiceID,
		Description: m.Description,
		Amount:      m.Amount,
	}
}

// InvoiceItemModelFromDomain creates a line model owned by invoiceID
func InvoiceItemModelFromDomain(invoiceID uuid.UUID, item invoicing.InvoiceItem) InvoiceItemModel {
	return InvoiceItemModel{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Position:    item.Position,
		ServiceID:   item.ServiceID,
		Description: item.Description,
		Amount:      item.Amount,
	}
}

// InvoiceNumberSequenceModel holds the last sequence value handed out for
// one year prefix, e.g. "INV-2026-".
type InvoiceNumberSequenceModel struct {
	Prefix    string    `gorm:"type:varchar(60);primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceNumberSequenceModel) TableName() string {
	return "invoice_number_sequences"
}
