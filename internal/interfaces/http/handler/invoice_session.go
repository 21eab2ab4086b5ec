package handler

import (
	"github.com/gin-gonic/gin"
	appinvoicing "github.com/travelagency/backoffice/internal/application/invoicing"
	"github.com/travelagency/backoffice/internal/domain/terms"
	"github.com/travelagency/backoffice/internal/interfaces/http/dto"
)

// InvoiceSessionHandler drives multi-payer invoice sessions
type InvoiceSessionHandler struct {
	BaseHandler
	service *appinvoicing.Service
}

// NewInvoiceSessionHandler creates a new InvoiceSessionHandler
func NewInvoiceSessionHandler(service *appinvoicing.Service) *InvoiceSessionHandler {
	return &InvoiceSessionHandler{service: service}
}

// session resolves the :id parameter to an open session, answering the
// request itself when it cannot
func (h *InvoiceSessionHandler) session(c *gin.Context) (*appinvoicing.Session, bool) {
	id, ok := h.SessionID(c)
	if !ok {
		return nil, false
	}
	sess, err := h.service.Session(id)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return sess, true
}

// Open godoc
// @Summary      Open an invoice session
// @Description  Groups the selected services by payer and prepares one invoice form per payer
// @Tags         invoice-sessions
// @Accept       json
// @Produce      json
// @Param        request body dto.OpenSessionRequest true "Selected services"
// @Success      201 {object} dto.Response{data=appinvoicing.SessionView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions [post]
func (h *InvoiceSessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sess, err := h.service.Open(c.Request.Context(), req.Services)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	view, err := sess.View()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// Get godoc
// @Summary      Get an invoice session
// @Tags         invoice-sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.Response{data=appinvoicing.SessionView}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id} [get]
func (h *InvoiceSessionHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	view, err := sess.View()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Close godoc
// @Summary      Close an invoice session
// @Description  Discards the session. Collaborator answers still in flight for it are dropped.
// @Tags         invoice-sessions
// @Param        id path string true "Session ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id} [delete]
func (h *InvoiceSessionHandler) Close(c *gin.Context) {
	id, ok := h.SessionID(c)
	if !ok {
		return
	}
	if err := h.service.Close(id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SwitchActive godoc
// @Summary      Switch the active payer group
// @Tags         invoice-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body dto.SwitchActiveRequest true "Group index"
// @Success      200 {object} dto.Response{data=appinvoicing.GroupView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id}/active [put]
func (h *InvoiceSessionHandler) SwitchActive(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.SwitchActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	group, err := sess.SwitchActive(*req.Index)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, group)
}

// EditPricing godoc
// @Summary      Edit the pricing of one service
// @Tags         invoice-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body dto.EditPricingRequest true "Service and edit"
// @Success      200 {object} dto.Response{data=appinvoicing.PricingResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id}/pricing [post]
func (h *InvoiceSessionHandler) EditPricing(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.EditPricingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := sess.EditPricing(req.ServiceID, req.Edit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// LoadCommissionOptions godoc
// @Summary      Load commission options for a service
// @Description  Asks the supplier directory for the active commission options, falling back to the configured list
// @Tags         invoice-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body dto.CommissionOptionsRequest true "Service"
// @Success      200 {object} dto.Response{data=dto.CommissionOptionsResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id}/commission-options [post]
func (h *InvoiceSessionHandler) LoadCommissionOptions(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.CommissionOptionsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	options, err := sess.LoadCommissionOptions(c.Request.Context(), req.ServiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CommissionOptionsResponse{ServiceID: req.ServiceID, Options: options})
}

// ApplyDefaults godoc
// @Summary      Apply default commissions and deposits
// @Description  Fills untouched tour commissions and deposit terms from the loaded options
// @Tags         invoice-sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.Response{data=appinvoicing.SessionView}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id}/defaults [post]
func (h *InvoiceSessionHandler) ApplyDefaults(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	view, err := sess.ApplyDefaults()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// EditTerms godoc
// @Summary      Edit the payment terms of the active group
// @Tags         invoice-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body terms.Edit true "Terms edit"
// @Success      200 {object} dto.Response{data=appinvoicing.GroupView}
// @Router       /invoice-sessions/{id}/terms [post]
func (h *InvoiceSessionHandler) EditTerms(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req terms.Edit
	if !h.BindJSON(c, &req) {
		return
	}

	group, err := sess.EditTerms(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, group)
}

// UpdateHeader godoc
// @Summary      Update the invoice header of the active group
// @Tags         invoice-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body appinvoicing.HeaderUpdate true "Header fields"
// @Success      200 {object} dto.Response{data=appinvoicing.GroupView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id}/header [put]
func (h *InvoiceSessionHandler) UpdateHeader(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req appinvoicing.HeaderUpdate
	if !h.BindJSON(c, &req) {
		return
	}

	group, err := sess.UpdateHeader(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, group)
}

// EditLines godoc
// @Summary      Add, update, copy, delete or move an invoice line
// @Tags         invoice-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body appinvoicing.LineCommand true "Line command"
// @Success      200 {object} dto.Response{data=appinvoicing.GroupView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id}/lines [post]
func (h *InvoiceSessionHandler) EditLines(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req appinvoicing.LineCommand
	if !h.BindJSON(c, &req) {
		return
	}

	group, err := sess.EditLines(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, group)
}

// Commit godoc
// @Summary      Commit every uncommitted group
// @Description  Validates all groups first, then creates one invoice per group and reports each outcome
// @Tags         invoice-sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.Response{data=appinvoicing.CommitResult}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoice-sessions/{id}/commit [post]
func (h *InvoiceSessionHandler) Commit(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	result, err := sess.Commit(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
