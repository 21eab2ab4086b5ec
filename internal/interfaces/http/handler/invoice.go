package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/interfaces/http/dto"
)

// InvoiceFinder looks up committed invoices
type InvoiceFinder interface {
	FindByNumber(ctx context.Context, number string) (*invoicing.Invoice, error)
}

// EventTrail reads the logged events of an aggregate
type EventTrail interface {
	FindByAggregate(ctx context.Context, aggregateID uuid.UUID) ([]shared.LoggedEvent, error)
}

// InvoiceHandler serves committed invoices
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceFinder
	events   EventTrail
}

// NewInvoiceHandler creates a new InvoiceHandler. events may be nil.
func NewInvoiceHandler(invoices InvoiceFinder, events EventTrail) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, events: events}
}

// GetByNumber godoc
// @Summary      Get a committed invoice
// @Description  Returns the invoice with its lines and the events logged for it
// @Tags         invoices
// @Produce      json
// @Param        number path string true "Invoice number"
// @Success      200 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{number} [get]
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		h.BadRequest(c, "Invoice number is required")
		return
	}

	ctx := c.Request.Context()
	inv, err := h.invoices.FindByNumber(ctx, number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var events []shared.LoggedEvent
	if h.events != nil {
		events, err = h.events.FindByAggregate(ctx, inv.ID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	h.Success(c, dto.NewInvoiceResponse(inv, events))
}
