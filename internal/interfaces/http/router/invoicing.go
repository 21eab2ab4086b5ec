package router

import (
	"github.com/gin-gonic/gin"
	"github.com/travelagency/backoffice/internal/interfaces/http/handler"
)

// InvoicingHandlers are the handlers and route middleware of the invoicing API
type InvoicingHandlers struct {
	Calculator *handler.CalculatorHandler
	Sessions   *handler.InvoiceSessionHandler
	Invoices   *handler.InvoiceHandler

	// SessionMiddleware runs on every /invoice-sessions/:id route
	SessionMiddleware []gin.HandlerFunc
	// WriteMiddleware runs before opening and committing sessions
	WriteMiddleware []gin.HandlerFunc
}

// InvoicingRoutes builds the calculator, invoice session and invoice groups
func InvoicingRoutes(h InvoicingHandlers) []*DomainGroup {
	calculator := NewDomainGroup("calculator", "")
	calculator.POST("/pricing/solve", h.Calculator.SolvePricing).
		POST("/payment-terms/resolve", h.Calculator.ResolveTerms).
		POST("/invoice-totals", h.Calculator.InvoiceTotals)

	sessions := NewDomainGroup("invoice-sessions", "/invoice-sessions")
	sessions.POST("", withMiddleware(h.WriteMiddleware, h.Sessions.Open)...)

	session := sessions.Group("invoice-session", "/:id").Use(h.SessionMiddleware...)
	session.GET("", h.Sessions.Get).
		DELETE("", h.Sessions.Close).
		PUT("/active", h.Sessions.SwitchActive).
		POST("/pricing", h.Sessions.EditPricing).
		POST("/commission-options", h.Sessions.LoadCommissionOptions).
		POST("/defaults", h.Sessions.ApplyDefaults).
		POST("/terms", h.Sessions.EditTerms).
		PUT("/header", h.Sessions.UpdateHeader).
		POST("/lines", h.Sessions.EditLines).
		POST("/commit", withMiddleware(h.WriteMiddleware, h.Sessions.Commit)...)

	invoices := NewDomainGroup("invoices", "/invoices")
	invoices.GET("/:number", h.Invoices.GetByNumber)

	return []*DomainGroup{calculator, sessions, invoices}
}

// RegisterInvoicing registers every invoicing group on r
func (r *Router) RegisterInvoicing(h InvoicingHandlers) *Router {
	for _, g := range InvoicingRoutes(h) {
		r.Register(g)
	}
	return r
}

func withMiddleware(middleware []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(middleware)+1)
	chain = append(chain, middleware...)
	return append(chain, h)
}
