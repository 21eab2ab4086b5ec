package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type pendingGroup struct {
	index int
	group PayerGroup
	draft invoicing.Draft
}

// Commit turns every uncommitted group into an invoice.
//
// All groups are validated first and a single invalid group rejects the
// whole batch before any collaborator is called. After that each group is
// committed on its own: numbers are allocated one group at a time, and a
// failing group is reported in the tally without stopping the others.
func (s *Session) Commit(ctx context.Context) (CommitResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_session", "commit",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, s.ID.String()),
	)
	defer span.End()

	batch, manual, err := s.prepareCommit()
	if err != nil {
		telemetry.RecordError(span, err)
		return CommitResult{}, err
	}
	defer s.finishCommit()

	started := time.Now()
	result := CommitResult{Groups: make([]GroupOutcome, 0, len(batch))}
	used := make(map[string]bool, len(manual))
	for _, p := range batch {
		outcome := s.commitGroup(ctx, p, manual, used)
		if outcome.Success {
			result.Success++
		} else {
			result.Failed++
		}
		result.Groups = append(result.Groups, outcome)
	}

	s.svc.deps.Metrics.CommitFinished(ctx, time.Since(started), result.outcome())
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSuccessCount, result.Success,
		telemetry.SpanAttrFailedCount, result.Failed,
	)
	s.svc.logger.Info("invoice session committed",
		zap.String("session_id", s.ID.String()),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// prepareCommit writes the live form back, validates every pending group and
// collects the numbers typed by hand
func (s *Session) prepareCommit() ([]pendingGroup, map[string]bool, error) {
	if err := s.lock(); err != nil {
		return nil, nil, err
	}
	defer s.mu.Unlock()

	if s.committing {
		return nil, nil, shared.NewDomainError(shared.ErrInvalidState.Code, "a commit is already running")
	}
	s.groups[s.active].Snapshot = serializeForm(s.form)

	var (
		batch    []pendingGroup
		problems []string
	)
	manual := make(map[string]bool)
	for i, g := range s.groups {
		if g.committed != nil {
			continue
		}
		d := g.Snapshot.draft(g)
		if err := d.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("group %d (%s): %s", i+1, groupLabel(g), err.Error()))
		}
		if n := strings.TrimSpace(d.Number); n != "" {
			if manual[n] {
				problems = append(problems, fmt.Sprintf("group %d (%s): invoice number %s is used twice", i+1, groupLabel(g), n))
			}
			manual[n] = true
		}
		batch = append(batch, pendingGroup{index: i, group: g, draft: d})
	}
	if len(problems) > 0 {
		return nil, nil, shared.NewDomainError(shared.ErrValidationRejected.Code, strings.Join(problems, "; "))
	}
	if len(batch) == 0 {
		return nil, nil, shared.NewDomainError(shared.ErrInvalidState.Code, "every group is already committed")
	}

	s.committing = true
	return batch, manual, nil
}

func (s *Session) finishCommit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false
}

func groupLabel(g PayerGroup) string {
	if g.PayerDisplayName == "" {
		return "unnamed payer"
	}
	return g.PayerDisplayName
}

func (s *Session) commitGroup(ctx context.Context, p pendingGroup, manual, used map[string]bool) GroupOutcome {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_session", "commit_group",
		telemetry.WithAttribute(telemetry.SpanAttrPayerKey, p.group.PayerKey),
	)
	defer span.End()

	outcome := GroupOutcome{
		Index:     p.index,
		PayerKey:  p.group.PayerKey,
		PayerName: p.group.PayerDisplayName,
	}
	fail := func(err error) GroupOutcome {
		telemetry.RecordError(span, err)
		outcome.ErrorCode = shared.CodeOf(err)
		if outcome.ErrorCode == "" {
			outcome.ErrorCode = shared.ErrCollaboratorFailure.Code
		}
		outcome.Error = err.Error()
		s.svc.deps.Metrics.GroupFailed(ctx, outcome.ErrorCode)
		s.svc.logger.Warn("invoice group commit failed",
			zap.String("session_id", s.ID.String()),
			zap.String("payer_key", p.group.PayerKey),
			zap.String("error_code", outcome.ErrorCode),
			zap.Error(err),
		)
		return outcome
	}

	if !s.Alive() {
		return fail(shared.ErrSessionClosed)
	}

	number := strings.TrimSpace(p.draft.Number)
	if number == "" {
		allocated, err := s.allocateNumber(ctx, manual, used)
		if err != nil {
			return fail(err)
		}
		if !s.Alive() {
			return fail(shared.ErrSessionClosed)
		}
		number = allocated
	} else if err := s.ensureNumberFree(ctx, number); err != nil {
		return fail(err)
	}
	used[number] = true
	outcome.InvoiceNumber = number
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceNumber, number)

	inv, err := invoicing.NewInvoice(p.draft, number)
	if err != nil {
		return fail(err)
	}
	if err := s.svc.validate.Struct(inv); err != nil {
		return fail(shared.NewDomainError(shared.ErrValidationRejected.Code, err.Error()))
	}
	if s.svc.deps.Invoices == nil {
		return fail(shared.NewDomainError(shared.ErrCollaboratorFailure.Code, "no invoice repository configured"))
	}
	if err := s.svc.deps.Invoices.Create(ctx, inv); err != nil {
		return fail(fmt.Errorf("create invoice %s: %w", number, err))
	}
	s.publish(ctx, inv)

	outcome.Success = true
	outcome.InvoiceID = inv.ID.String()
	outcome.DocumentType = string(inv.DocumentType)
	s.markCommitted(p.index, inv)
	s.svc.deps.Metrics.InvoiceCommitted(ctx, outcome.DocumentType)

	s.svc.logger.Info("invoice created",
		zap.String("session_id", s.ID.String()),
		zap.String("payer_key", p.group.PayerKey),
		zap.String("invoice_number", number),
		zap.String("document_type", string(inv.DocumentType)),
		zap.String("total", inv.Total.StringFixed(2)),
	)
	return outcome
}

// allocateNumber asks the allocator for one number at a time, skipping
// numbers that are already taken in this batch
func (s *Session) allocateNumber(ctx context.Context, manual, used map[string]bool) (string, error) {
	if s.svc.deps.Allocator == nil {
		return "", shared.NewDomainError(shared.ErrCollaboratorFailure.Code, "no invoice number allocator configured")
	}
	for attempt := 0; attempt < s.svc.cfg.MaxNumberAttempts; attempt++ {
		numbers, err := s.svc.deps.Allocator.Next(ctx, 1)
		if err != nil {
			return "", fmt.Errorf("allocate invoice number: %w", err)
		}
		if len(numbers) == 0 || strings.TrimSpace(numbers[0]) == "" {
			return "", shared.ErrAllocatorExhausted
		}
		n := strings.TrimSpace(numbers[0])
		if manual[n] || used[n] {
			s.svc.logger.Debug("skipping invoice number taken in this batch", zap.String("invoice_number", n))
			continue
		}
		return n, nil
	}
	return "", shared.NewDomainError(shared.ErrAllocatorExhausted.Code,
		fmt.Sprintf("no free invoice number after %d attempts", s.svc.cfg.MaxNumberAttempts))
}

// ensureNumberFree rejects a hand-typed number that an existing invoice uses
func (s *Session) ensureNumberFree(ctx context.Context, number string) error {
	if s.svc.deps.Invoices == nil {
		return nil
	}
	exists, err := s.svc.deps.Invoices.ExistsByNumber(ctx, number)
	if err != nil {
		return fmt.Errorf("check invoice number %s: %w", number, err)
	}
	if exists {
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, fmt.Sprintf("invoice number %s already exists", number))
	}
	return nil
}

func (s *Session) publish(ctx context.Context, inv *invoicing.Invoice) {
	events := inv.PullEvents()
	if s.svc.deps.Events == nil || len(events) == 0 {
		return
	}
	if err := s.svc.deps.Events.Publish(ctx, events...); err != nil {
		s.svc.logger.Error("failed to publish invoice events",
			zap.String("invoice_number", inv.Number),
			zap.Error(err),
		)
	}
}

// markCommitted records the invoice on its group unless the session has been
// torn down meanwhile
func (s *Session) markCommitted(index int, inv *invoicing.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return
	}
	s.groups[index].committed = &committedInvoice{ID: inv.ID.String(), Number: inv.Number}
	s.groups[index].Snapshot.InvoiceNumber = inv.Number
	if index == s.active {
		s.form.InvoiceNumber = inv.Number
	}
}

// IsClosed reports whether err means the session was torn down
func IsClosed(err error) bool {
	return errors.Is(err, shared.ErrSessionClosed)
}
