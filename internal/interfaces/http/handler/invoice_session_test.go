package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appinvoicing "github.com/travelagency/backoffice/internal/application/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/interfaces/http/dto"
)

func sessionPath(id uuid.UUID, suffix string) string {
	return "/invoice-sessions/" + id.String() + suffix
}

func TestInvoiceSessionHandler_Open(t *testing.T) {
	api := newTestAPI(t)

	t.Run("groups services by payer", func(t *testing.T) {
		view := api.openSession(t)

		require.Len(t, view.Groups, 2)
		assert.Equal(t, 0, view.ActiveIndex)
		assert.Equal(t, "jane doe", view.Groups[0].PayerKey)
		assert.Len(t, view.Groups[0].Services, 2)
		assert.True(t, view.Groups[0].Totals.Total.Equal(dec("1200")))
		assert.Equal(t, "john smith", view.Groups[1].PayerKey)
	})

	t.Run("empty selection fails validation", func(t *testing.T) {
		w, env := api.do(t, http.MethodPost, "/invoice-sessions", map[string]any{"services": []any{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "services", env.Error.Details[0].Field)
	})

	t.Run("service without id is invalid input", func(t *testing.T) {
		w, env := api.do(t, http.MethodPost, "/invoice-sessions", map[string]any{
			"services": []any{serviceJSON("", "Jane Doe", "1", "2")},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)
	})
}

func TestInvoiceSessionHandler_GetAndClose(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodGet, sessionPath(view.ID, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[appinvoicing.SessionView](t, env)
	assert.Equal(t, view.ID, got.ID)

	w, _ = api.do(t, http.MethodDelete, sessionPath(view.ID, ""), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, env = api.do(t, http.MethodGet, sessionPath(view.ID, ""), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)

	w, _ = api.do(t, http.MethodDelete, sessionPath(view.ID, ""), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvoiceSessionHandler_InvalidID(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(t, http.MethodGet, "/invoice-sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
}

func TestInvoiceSessionHandler_SwitchActive(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodPut, sessionPath(view.ID, "/active"), map[string]any{"index": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	group := decodeData[appinvoicing.GroupView](t, env)
	assert.Equal(t, 1, group.Index)
	assert.True(t, group.Active)
	assert.Equal(t, "john smith", group.PayerKey)

	w, env = api.do(t, http.MethodPut, sessionPath(view.ID, "/active"), map[string]any{"index": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)

	w, env = api.do(t, http.MethodPut, sessionPath(view.ID, "/active"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
}

func TestInvoiceSessionHandler_EditPricing(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodPost, sessionPath(view.ID, "/pricing"), map[string]any{
		"service_id": "s1",
		"edit":       map[string]any{"field": "margin", "raw": "300"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeData[appinvoicing.PricingResult](t, env)
	assert.Equal(t, "s1", result.ServiceID)
	assert.True(t, result.State.Sale.Equal(dec("1100")), result.State.Sale.String())
	assert.Contains(t, result.Written, pricing.FieldSale)

	w, env = api.do(t, http.MethodPost, sessionPath(view.ID, "/pricing"), map[string]any{
		"service_id": "s3",
		"edit":       map[string]any{"field": "margin", "raw": "1"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code, "s3 belongs to the inactive group")
	assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
}

func TestInvoiceSessionHandler_LoadCommissionOptions(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodPost, sessionPath(view.ID, "/commission-options"), map[string]any{"service_id": "s1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeData[dto.CommissionOptionsResponse](t, env)
	assert.Equal(t, "s1", resp.ServiceID)
	require.Len(t, resp.Options, 1)
	assert.Equal(t, "Standard", resp.Options[0].Name)

	w, _ = api.do(t, http.MethodPost, sessionPath(view.ID, "/commission-options"), map[string]any{"service_id": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = api.do(t, http.MethodPost, sessionPath(view.ID, "/commission-options"), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceSessionHandler_ApplyDefaults(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodPost, sessionPath(view.ID, "/defaults"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeData[appinvoicing.SessionView](t, env)
	assert.Len(t, got.Groups, 2)
}

func TestInvoiceSessionHandler_EditTerms(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodPost, sessionPath(view.ID, "/terms"), map[string]any{
		"field": "deposit_value",
		"raw":   "25",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	group := decodeData[appinvoicing.GroupView](t, env)
	require.NotNil(t, group.Terms.DepositAmount)
	assert.True(t, group.Terms.DepositAmount.Equal(dec("300")))
	assert.True(t, group.Terms.FinalPaymentAmount.Equal(dec("900")))
}

func TestInvoiceSessionHandler_UpdateHeader(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodPut, sessionPath(view.ID, "/header"), map[string]any{
		"invoice_number": "MAN-1",
		"tax_rate":       "10",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	group := decodeData[appinvoicing.GroupView](t, env)
	assert.Equal(t, "MAN-1", group.InvoiceNumber)
	assert.True(t, group.Totals.TaxAmount.Equal(dec("120")))
	assert.True(t, group.Totals.Total.Equal(dec("1320")))
}

func TestInvoiceSessionHandler_EditLines(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodPost, sessionPath(view.ID, "/lines"), map[string]any{
		"op":          "add",
		"description": "Airport transfer",
		"amount":      "45.5",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	group := decodeData[appinvoicing.GroupView](t, env)
	require.Len(t, group.Lines, 3)
	added := group.Lines[2]
	assert.Equal(t, "Airport transfer", added.Description)
	assert.True(t, group.Totals.Total.Equal(dec("1245.5")))

	w, env = api.do(t, http.MethodPost, sessionPath(view.ID, "/lines"), map[string]any{
		"op":      "delete",
		"line_id": added.ID.String(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	group = decodeData[appinvoicing.GroupView](t, env)
	assert.Len(t, group.Lines, 2)

	w, env = api.do(t, http.MethodPost, sessionPath(view.ID, "/lines"), map[string]any{"op": "explode"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)
}

func TestInvoiceSessionHandler_Commit(t *testing.T) {
	t.Run("creates one invoice per payer", func(t *testing.T) {
		api := newTestAPI(t)
		view := api.openSession(t)

		w, env := api.do(t, http.MethodPost, sessionPath(view.ID, "/commit"), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decodeData[appinvoicing.CommitResult](t, env)
		assert.Equal(t, 2, result.Success)
		assert.Equal(t, 0, result.Failed)
		require.Len(t, result.Groups, 2)
		assert.Equal(t, "INV-2026-00001", result.Groups[0].InvoiceNumber)
		assert.Equal(t, "INV-2026-00002", result.Groups[1].InvoiceNumber)
		assert.Len(t, api.invoices.byNumber, 2)

		w, env = api.do(t, http.MethodPost, sessionPath(view.ID, "/commit"), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "nothing left to commit")
		assert.Equal(t, dto.ErrCodeInvalidState, env.Error.Code)
	})

	t.Run("skips allocated numbers typed by hand in the batch", func(t *testing.T) {
		api := newTestAPI(t)
		view := api.openSession(t)

		w, _ := api.do(t, http.MethodPut, sessionPath(view.ID, "/header"), map[string]any{"invoice_number": "INV-2026-00001"})
		require.Equal(t, http.StatusOK, w.Code)

		w, env := api.do(t, http.MethodPost, sessionPath(view.ID, "/commit"), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decodeData[appinvoicing.CommitResult](t, env)
		assert.Equal(t, 2, result.Success)
		assert.Equal(t, "INV-2026-00001", result.Groups[0].InvoiceNumber)
		assert.Equal(t, "INV-2026-00002", result.Groups[1].InvoiceNumber)
	})

	t.Run("an invalid group rejects the batch", func(t *testing.T) {
		api := newTestAPI(t)
		w, env := api.do(t, http.MethodPost, "/invoice-sessions", map[string]any{
			"services": []any{
				serviceJSON("s1", "Jane Doe", "800", "1000"),
				serviceJSON("s2", "", "100", "150"),
			},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		view := decodeData[appinvoicing.SessionView](t, env)

		w, env = api.do(t, http.MethodPost, sessionPath(view.ID, "/commit"), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeValidationRejected, env.Error.Code)
		assert.Empty(t, api.invoices.byNumber)
	})
}
