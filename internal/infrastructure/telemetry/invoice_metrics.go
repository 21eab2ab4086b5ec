package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Metric attribute keys
var (
	AttrOutcome      = attribute.Key("outcome")
	AttrErrorCode    = attribute.Key("error_code")
	AttrDocumentType = attribute.Key("document_type")
	AttrSource       = attribute.Key("source")
)

// CommitDurationBuckets are bucket boundaries for commit duration (seconds)
var CommitDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// InvoiceMetrics records invoice session activity. A nil *InvoiceMetrics is
// valid and records nothing.
type InvoiceMetrics struct {
	sessionsOpened    metric.Int64Counter
	invoicesCommitted metric.Int64Counter
	groupsFailed      metric.Int64Counter
	commissionLoads   metric.Int64Counter
	commitDuration    metric.Float64Histogram
}

// NewInvoiceMetrics registers the invoice instruments on meter
func NewInvoiceMetrics(meter metric.Meter) (*InvoiceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   InvoiceMetrics
		err error
	)
	if m.sessionsOpened, err = meter.Int64Counter("backoffice_invoice_sessions_opened_total",
		metric.WithDescription("Invoice sessions opened"), metric.WithUnit("{sessions}")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.invoicesCommitted, err = meter.Int64Counter("backoffice_invoices_committed_total",
		metric.WithDescription("Invoices persisted by session commits"), metric.WithUnit("{invoices}")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.groupsFailed, err = meter.Int64Counter("backoffice_invoice_groups_failed_total",
		metric.WithDescription("Payer groups whose commit failed"), metric.WithUnit("{groups}")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.commissionLoads, err = meter.Int64Counter("backoffice_commission_loads_total",
		metric.WithDescription("Commission option lookups by source"), metric.WithUnit("{lookups}")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.commitDuration, err = meter.Float64Histogram("backoffice_invoice_commit_duration_seconds",
		metric.WithDescription("Duration of a session commit"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(CommitDurationBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	return &m, nil
}

// SessionOpened counts one opened session
func (m *InvoiceMetrics) SessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsOpened.Add(ctx, 1)
}

// InvoiceCommitted counts one persisted invoice
func (m *InvoiceMetrics) InvoiceCommitted(ctx context.Context, documentType string) {
	if m == nil {
		return
	}
	m.invoicesCommitted.Add(ctx, 1, metric.WithAttributes(AttrDocumentType.String(documentType)))
}

// GroupFailed counts one failed payer group by error code
func (m *InvoiceMetrics) GroupFailed(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.groupsFailed.Add(ctx, 1, metric.WithAttributes(AttrErrorCode.String(code)))
}

// CommissionLoaded counts a commission lookup answered by source
// ("directory" or "fallback")
func (m *InvoiceMetrics) CommissionLoaded(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.commissionLoads.Add(ctx, 1, metric.WithAttributes(AttrSource.String(source)))
}

// CommitFinished records the duration of a commit and its outcome
// ("success", "partial" or "failed")
func (m *InvoiceMetrics) CommitFinished(ctx context.Context, d time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.commitDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrOutcome.String(outcome)))
}
