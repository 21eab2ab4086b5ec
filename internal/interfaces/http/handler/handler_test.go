package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	appinvoicing "github.com/travelagency/backoffice/internal/application/invoicing"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/interfaces/http/dto"
	"github.com/travelagency/backoffice/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeAllocator hands out INV-2026-00001, INV-2026-00002, ...
type fakeAllocator struct {
	mu   sync.Mutex
	next int
	err  error
}

func (a *fakeAllocator) Next(_ context.Context, count int) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	numbers := make([]string, count)
	for i := range numbers {
		a.next++
		numbers[i] = fmt.Sprintf("INV-2026-%05d", a.next)
	}
	return numbers, nil
}

type fakeInvoiceStore struct {
	mu       sync.Mutex
	byNumber map[string]*invoicing.Invoice
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{byNumber: make(map[string]*invoicing.Invoice)}
}

func (s *fakeInvoiceStore) Create(_ context.Context, inv *invoicing.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNumber[inv.Number]; ok {
		return shared.ErrAlreadyExists
	}
	s.byNumber[inv.Number] = inv
	return nil
}

func (s *fakeInvoiceStore) ExistsByNumber(_ context.Context, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byNumber[number]
	return ok, nil
}

func (s *fakeInvoiceStore) FindByNumber(_ context.Context, number string) (*invoicing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.byNumber[number]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

type fakeEventTrail struct {
	events []shared.LoggedEvent
	err    error
}

func (f *fakeEventTrail) FindByAggregate(_ context.Context, id uuid.UUID) ([]shared.LoggedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []shared.LoggedEvent
	for _, e := range f.events {
		if e.AggregateID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type testAPI struct {
	engine   *gin.Engine
	service  *appinvoicing.Service
	invoices *fakeInvoiceStore
	events   *fakeEventTrail
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := appinvoicing.NewSessionStore(0)
	t.Cleanup(func() { _ = store.Close() })

	invoices := newFakeInvoiceStore()
	svc := appinvoicing.NewService(appinvoicing.Dependencies{
		Allocator: &fakeAllocator{},
		Invoices:  invoices,
	}, appinvoicing.Config{
		DefaultTaxRate:  decimal.Zero,
		DefaultLanguage: "en",
		FallbackCommissions: []pricing.CommissionOption{
			{Name: "Standard", Rate: dec("8"), IsActive: true},
			{Name: "Retired", Rate: dec("5"), IsActive: false},
		},
	}, store, zap.NewNop())

	api := &testAPI{
		engine:   gin.New(),
		service:  svc,
		invoices: invoices,
		events:   &fakeEventTrail{},
	}

	calc := NewCalculatorHandler(svc)
	sessions := NewInvoiceSessionHandler(svc)
	inv := NewInvoiceHandler(invoices, api.events)

	v1 := api.engine.Group("/api/v1")
	v1.POST("/pricing/solve", calc.SolvePricing)
	v1.POST("/payment-terms/resolve", calc.ResolveTerms)
	v1.POST("/invoice-totals", calc.InvoiceTotals)
	v1.POST("/invoice-sessions", sessions.Open)
	s := v1.Group("/invoice-sessions/:id")
	s.GET("", sessions.Get)
	s.DELETE("", sessions.Close)
	s.PUT("/active", sessions.SwitchActive)
	s.POST("/pricing", sessions.EditPricing)
	s.POST("/commission-options", sessions.LoadCommissionOptions)
	s.POST("/defaults", sessions.ApplyDefaults)
	s.POST("/terms", sessions.EditTerms)
	s.PUT("/header", sessions.UpdateHeader)
	s.POST("/lines", sessions.EditLines)
	s.POST("/commit", sessions.Commit)
	v1.GET("/invoices/:number", inv.GetByNumber)
	return api
}

// do sends body (a string is sent as is, anything else as JSON) and decodes
// the response envelope when there is one
func (a *testAPI) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

func serviceJSON(id, payer, cost, sale string) map[string]any {
	return map[string]any{
		"id":                 id,
		"category":           "hotel",
		"description":        "Hotel " + id,
		"supplier_id":        "sup-" + id,
		"pricing_mode":       "standard",
		"cost_price":         cost,
		"sale_price":         sale,
		"payer_display_name": payer,
	}
}

// openSession opens a session for Jane Doe (s1, s2) and John Smith (s3)
func (a *testAPI) openSession(t *testing.T) appinvoicing.SessionView {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/invoice-sessions", map[string]any{
		"services": []any{
			serviceJSON("s1", "Jane Doe", "800", "1000"),
			serviceJSON("s2", "jane doe", "150", "200"),
			serviceJSON("s3", "John Smith", "400", "500"),
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[appinvoicing.SessionView](t, env)
}

func mustField(t *testing.T, data json.RawMessage, name string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	v, ok := fields[name]
	require.True(t, ok, "missing field %s in %s", name, string(data))
	return v
}
