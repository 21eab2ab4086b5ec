package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/domain/shared/valueobject"
)

// InvoiceLine is an editable text/amount pair on a draft invoice.
// ServiceID links a line seeded from a booked service so that pricing edits
// on the service flow into it; manual lines leave it empty.
type InvoiceLine struct {
	ID          uuid.UUID       `json:"id"`
	ServiceID   string          `json:"service_id,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Lines is an ordered list of invoice lines. Every operation returns a new
// list and leaves the other lines untouched.
type Lines []InvoiceLine

// LinesFromServices seeds one line per service using its sale price
func LinesFromServices(services []ServiceLineItem) Lines {
	lines := make(Lines, 0, len(services))
	for _, s := range services {
		desc := s.Description
		if desc == "" {
			desc = s.Category
		}
		lines = append(lines, InvoiceLine{
			ID:          uuid.New(),
			ServiceID:   s.ID,
			Description: desc,
			Amount:      valueobject.Round2(s.SalePrice),
		})
	}
	return lines
}

func (l Lines) clone() Lines {
	out := make(Lines, len(l))
	copy(out, l)
	return out
}

func (l Lines) indexOf(id uuid.UUID) int {
	for i, line := range l {
		if line.ID == id {
			return i
		}
	}
	return -1
}

// Add appends a manual line
func (l Lines) Add(description, rawAmount string) (Lines, InvoiceLine) {
	line := InvoiceLine{
		ID:          uuid.New(),
		Description: description,
		Amount:      valueobject.Round2(valueobject.ParseAmount(rawAmount)),
	}
	return append(l.clone(), line), line
}

// Update replaces the text and amount of one line. A nil field is left as is.
func (l Lines) Update(id uuid.UUID, description, rawAmount *string) (Lines, error) {
	i := l.indexOf(id)
	if i < 0 {
		return l, shared.ErrNotFound
	}
	out := l.clone()
	if description != nil {
		out[i].Description = *description
	}
	if rawAmount != nil {
		out[i].Amount = valueobject.Round2(valueobject.ParseAmount(*rawAmount))
	}
	return out, nil
}

// Copy inserts a duplicate right after the line. The copy is a manual line.
func (l Lines) Copy(id uuid.UUID) (Lines, InvoiceLine, error) {
	i := l.indexOf(id)
	if i < 0 {
		return l, InvoiceLine{}, shared.ErrNotFound
	}
	dup := l[i]
	dup.ID = uuid.New()
	dup.ServiceID = ""

	out := make(Lines, 0, len(l)+1)
	out = append(out, l[:i+1]...)
	out = append(out, dup)
	out = append(out, l[i+1:]...)
	return out, dup, nil
}

// Delete removes one line
func (l Lines) Delete(id uuid.UUID) (Lines, error) {
	i := l.indexOf(id)
	if i < 0 {
		return l, shared.ErrNotFound
	}
	out := make(Lines, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), nil
}

// Move places the line at position to, shifting the others
func (l Lines) Move(id uuid.UUID, to int) (Lines, error) {
	from := l.indexOf(id)
	if from < 0 {
		return l, shared.ErrNotFound
	}
	if to < 0 || to >= len(l) {
		return l, shared.ErrInvalidInput
	}
	line := l[from]
	out := make(Lines, 0, len(l))
	out = append(out, l[:from]...)
	out = append(out, l[from+1:]...)

	out = append(out, InvoiceLine{})
	copy(out[to+1:], out[to:])
	out[to] = line
	return out, nil
}

// SyncService rewrites the amount of lines linked to serviceID
func (l Lines) SyncService(serviceID string, amount decimal.Decimal) Lines {
	out := l.clone()
	for i := range out {
		if out[i].ServiceID != "" && out[i].ServiceID == serviceID {
			out[i].Amount = valueobject.Round2(amount)
		}
	}
	return out
}
