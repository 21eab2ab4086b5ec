package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/travelagency/backoffice/internal/application/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/interfaces/http/dto"
)

// CalculatorHandler exposes the stateless pricing, terms and totals calculations
type CalculatorHandler struct {
	BaseHandler
	service *appinvoicing.Service
}

// NewCalculatorHandler creates a new CalculatorHandler
func NewCalculatorHandler(service *appinvoicing.Service) *CalculatorHandler {
	return &CalculatorHandler{service: service}
}

// SolvePricing godoc
// @Summary      Solve a pricing edit
// @Description  Applies one field edit to a pricing state and derives the dependent fields
// @Tags         calculator
// @Accept       json
// @Produce      json
// @Param        request body dto.SolvePricingRequest true "State and edit"
// @Success      200 {object} dto.Response{data=dto.SolvePricingResponse}
// @Failure      400 {object} dto.Response
// @Router       /pricing/solve [post]
func (h *CalculatorHandler) SolvePricing(c *gin.Context) {
	var req dto.SolvePricingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	state, written, err := h.service.PreviewPricing(req.State, req.Edit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if written == nil {
		written = []pricing.Field{}
	}
	h.Success(c, dto.SolvePricingResponse{State: state, Written: written})
}

// ResolveTerms godoc
// @Summary      Resolve a payment terms edit
// @Tags         calculator
// @Accept       json
// @Produce      json
// @Param        request body dto.ResolveTermsRequest true "Total, snapshot and edit"
// @Success      200 {object} dto.Response{data=terms.Result}
// @Failure      400 {object} dto.Response
// @Router       /payment-terms/resolve [post]
func (h *CalculatorHandler) ResolveTerms(c *gin.Context) {
	var req dto.ResolveTermsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.Success(c, h.service.PreviewTerms(req.Total, req.Snapshot, req.Edit))
}

// InvoiceTotals godoc
// @Summary      Compute invoice totals
// @Tags         calculator
// @Accept       json
// @Produce      json
// @Param        request body dto.InvoiceTotalsRequest true "Lines and tax rate"
// @Success      200 {object} dto.Response{data=invoicing.Totals}
// @Failure      400 {object} dto.Response
// @Router       /invoice-totals [post]
func (h *CalculatorHandler) InvoiceTotals(c *gin.Context) {
	var req dto.InvoiceTotalsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.Success(c, h.service.PreviewTotals(req.ToLines(), req.TaxRate))
}
