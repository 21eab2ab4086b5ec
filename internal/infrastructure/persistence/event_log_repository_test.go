package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/shared"
)

func TestGormEventLogRepository_Append(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDatabase(t)
	repo := NewGormEventLogRepository(db.DB)

	invoiceID := uuid.New()
	event := &invoicing.InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(invoicing.EventTypeInvoiceCreated, invoicing.AggregateTypeInvoice, invoiceID),
		InvoiceID:       invoiceID,
		InvoiceNumber:   "INV-2026-00001",
	}
	payload := []byte(`{"invoice_number":"INV-2026-00001"}`)

	require.NoError(t, repo.Append(ctx, event, payload))
	// re-delivery of the same event is ignored
	require.NoError(t, repo.Append(ctx, event, payload))

	entries, err := repo.FindByAggregate(ctx, invoiceID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, event.EventID(), entries[0].EventID)
	assert.Equal(t, invoicing.EventTypeInvoiceCreated, entries[0].EventType)
	assert.Equal(t, invoicing.AggregateTypeInvoice, entries[0].AggregateType)
	assert.JSONEq(t, string(payload), string(entries[0].Payload))

	others, err := repo.FindByAggregate(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, others)
}
