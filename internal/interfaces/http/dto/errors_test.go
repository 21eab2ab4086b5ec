package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRejected, http.StatusUnprocessableEntity},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeSessionClosed, http.StatusGone},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeAllocatorExhausted, http.StatusServiceUnavailable},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeCollaboratorFailure, http.StatusBadGateway},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	sentinels := []*shared.DomainError{
		shared.ErrNotFound,
		shared.ErrAlreadyExists,
		shared.ErrInvalidInput,
		shared.ErrInvalidState,
		shared.ErrAllocatorExhausted,
		shared.ErrValidationRejected,
		shared.ErrSessionClosed,
		shared.ErrCollaboratorFailure,
	}
	for _, e := range sentinels {
		t.Run(e.Code, func(t *testing.T) {
			code := NormalizeErrorCode(e.Code)
			assert.Equal(t, "ERR_"+e.Code, code)
			_, mapped := ErrorCodeHTTPStatus[code]
			assert.True(t, mapped, "every domain code needs an HTTP status")
		})
	}

	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
}

func TestResponses(t *testing.T) {
	t.Run("success omits error", func(t *testing.T) {
		data, err := json.Marshal(NewSuccessResponse(map[string]int{"count": 2}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"count":2}}`, string(data))
	})

	t.Run("error carries code message and request id", func(t *testing.T) {
		data, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeNotFound, "missing", "req-1"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_NOT_FOUND","message":"missing","request_id":"req-1"}}`, string(data))
	})

	t.Run("validation error lists fields", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
			{Field: "service_id", Message: "This field is required"},
		})
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "service_id", resp.Error.Details[0].Field)
	})
}

func TestNewInvoiceResponse(t *testing.T) {
	inv := &invoicing.Invoice{
		Number:    "INV-2026-00001",
		PayerName: "Ada Travel",
		Total:     decimal.RequireFromString("120"),
		Status:    invoicing.StatusDraft,
		Items: []invoicing.InvoiceItem{
			{Position: 1, ServiceID: "svc-1", Description: "Hotel", Amount: decimal.RequireFromString("100")},
		},
	}
	inv.ID = uuid.New()
	inv.CreatedAt = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	resp := NewInvoiceResponse(inv, nil)
	assert.Equal(t, inv.ID, resp.ID)
	assert.Equal(t, "INV-2026-00001", resp.Number)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Hotel", resp.Items[0].Description)
	assert.NotNil(t, resp.Events)
	assert.Nil(t, resp.DepositAmount)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"events":[]`)
	assert.Contains(t, string(data), `"deposit_amount":null`)
}

func TestInvoiceTotalsRequest_ToLines(t *testing.T) {
	req := InvoiceTotalsRequest{Lines: []InvoiceLineRequest{
		{Description: "Flight", Amount: decimal.RequireFromString("300")},
		{Description: "Refund", Amount: decimal.RequireFromString("-50")},
	}}

	lines := req.ToLines()
	require.Len(t, lines, 2)
	assert.NotEqual(t, uuid.Nil, lines[0].ID)
	assert.NotEqual(t, lines[0].ID, lines[1].ID)
	assert.True(t, lines[1].Amount.Equal(decimal.RequireFromString("-50")))
}
