package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appinvoicing "github.com/travelagency/backoffice/internal/application/invoicing"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/interfaces/http/dto"
)

func TestInvoiceHandler_GetByNumber(t *testing.T) {
	api := newTestAPI(t)
	view := api.openSession(t)

	w, env := api.do(t, http.MethodPost, sessionPath(view.ID, "/commit"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeData[appinvoicing.CommitResult](t, env)
	invoiceID := uuid.MustParse(result.Groups[0].InvoiceID)

	api.events.events = []shared.LoggedEvent{{
		EventID:       uuid.New(),
		EventType:     invoicing.EventTypeInvoiceCreated,
		AggregateID:   invoiceID,
		AggregateType: invoicing.AggregateTypeInvoice,
		Payload:       json.RawMessage(`{"invoice_number":"INV-2026-00001"}`),
		OccurredAt:    time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC),
	}}

	t.Run("returns the invoice with its events", func(t *testing.T) {
		w, env := api.do(t, http.MethodGet, "/invoices/INV-2026-00001", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeData[dto.InvoiceResponse](t, env)
		assert.Equal(t, invoiceID, resp.ID)
		assert.Equal(t, "INV-2026-00001", resp.Number)
		assert.Equal(t, "Jane Doe", resp.PayerName)
		assert.True(t, resp.Total.Equal(dec("1200")))
		assert.Len(t, resp.Items, 2)
		require.Len(t, resp.Events, 1)
		assert.Equal(t, invoicing.EventTypeInvoiceCreated, resp.Events[0].EventType)
	})

	t.Run("invoice without logged events", func(t *testing.T) {
		w, env := api.do(t, http.MethodGet, "/invoices/INV-2026-00002", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(mustField(t, env.Data, "events")))
	})

	t.Run("unknown number", func(t *testing.T) {
		w, env := api.do(t, http.MethodGet, "/invoices/INV-1999-00001", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
	})

	t.Run("event log failure is a server error", func(t *testing.T) {
		api.events.err = errors.New("connection reset")
		defer func() { api.events.err = nil }()

		w, env := api.do(t, http.MethodGet, "/invoices/INV-2026-00001", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, env.Error.Code)
		assert.NotContains(t, env.Error.Message, "connection reset")
	})
}
