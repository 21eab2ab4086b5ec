package invoicing

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/domain/shared/valueobject"
	"github.com/travelagency/backoffice/internal/domain/terms"
	"go.uber.org/zap"
)

// Session is one open invoice-creation flow.
//
// Edits are applied under the session lock in the order they arrive.
// Collaborator calls run without the lock; when they return the session
// checks that it is still alive and drops the response otherwise.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	svc *Service

	mu          sync.Mutex
	alive       bool
	committing  bool
	lastUsed    time.Time
	groups      []PayerGroup
	active      int
	form        Form
	commissions map[string][]pricing.CommissionOption // by supplier ID
}

// Alive reports whether the session is still open
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// close marks the session as torn down
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
}

// lock takes the session lock and fails once the session has been closed
func (s *Session) lock() error {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return shared.ErrSessionClosed
	}
	s.lastUsed = time.Now()
	return nil
}

// View returns the read model of every group
func (s *Session) View() (SessionView, error) {
	if err := s.lock(); err != nil {
		return SessionView{}, err
	}
	defer s.mu.Unlock()
	return s.viewLocked(), nil
}

func (s *Session) viewLocked() SessionView {
	view := SessionView{
		ID:          s.ID,
		ActiveIndex: s.active,
		CreatedAt:   s.CreatedAt,
		Groups:      make([]GroupView, len(s.groups)),
	}
	for i := range s.groups {
		view.Groups[i] = s.groupViewLocked(i)
	}
	return view
}

func (s *Session) groupViewLocked(i int) GroupView {
	g := s.groups[i]
	f := g.Snapshot
	if i == s.active {
		f = s.form
	}
	totals := f.totals()
	draft := f.draft(g)
	view := GroupView{
		Index:            i,
		PayerKey:         g.PayerKey,
		PayerDisplayName: g.PayerDisplayName,
		Active:           i == s.active,
		Services:         slices.Clone(f.Services),
		Pricing:          maps.Clone(f.Pricing),
		Lines:            slices.Clone(f.Lines),
		Totals:           totals,
		Terms:            terms.Recalculate(totals.Total, f.Terms),
		InvoiceNumber:    f.InvoiceNumber,
		Language:         f.Language,
		InvoiceDate:      f.InvoiceDate,
		DueDate:          draft.ResolveDueDate(),
		Committed:        g.committed != nil,
	}
	if g.committed != nil {
		view.InvoiceNumber = g.committed.Number
	}
	for _, svc := range f.Services {
		if opts, ok := s.commissions[svc.SupplierID]; ok {
			if view.CommissionOptions == nil {
				view.CommissionOptions = make(map[string][]pricing.CommissionOption)
			}
			view.CommissionOptions[svc.SupplierID] = opts
		}
	}
	return view
}

// SwitchActive binds the form to another group. The live form is written
// back to the group being left before the new group is loaded.
func (s *Session) SwitchActive(index int) (GroupView, error) {
	if err := s.lock(); err != nil {
		return GroupView{}, err
	}
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.groups) {
		return GroupView{}, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("group index %d out of range", index))
	}
	if index != s.active {
		s.groups[s.active].Snapshot = serializeForm(s.form)
		s.active = index
		s.form = hydrateForm(s.groups[index])
	}
	return s.groupViewLocked(s.active), nil
}

// EditPricing applies one pricing edit to a service of the active group and
// carries the result into its invoice line, the totals and the payment terms
func (s *Session) EditPricing(serviceID string, edit pricing.Edit) (PricingResult, error) {
	if err := s.lock(); err != nil {
		return PricingResult{}, err
	}
	defer s.mu.Unlock()

	i := s.form.serviceIndex(serviceID)
	if i < 0 {
		return PricingResult{}, shared.NewDomainError(shared.ErrNotFound.Code,
			fmt.Sprintf("service %s is not in the active group", serviceID))
	}
	if !edit.Field.IsValid() {
		return PricingResult{}, shared.NewDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("unknown pricing field %q", edit.Field))
	}

	state, written := pricing.Solve(s.form.Pricing[serviceID], edit)
	s.storePricingLocked(&s.form, i, state)

	return PricingResult{
		ServiceID: serviceID,
		State:     state,
		Written:   written,
		Group:     s.groupViewLocked(s.active),
	}, nil
}

func (s *Session) storePricingLocked(f *Form, i int, state pricing.State) {
	svc := f.Services[i].WithPricing(state)
	f.Services = slices.Clone(f.Services)
	f.Services[i] = svc
	f.Pricing = maps.Clone(f.Pricing)
	f.Pricing[svc.ID] = state
	f.Lines = f.Lines.SyncService(svc.ID, svc.SalePrice)
	f.recalculateTerms()
}

// LoadCommissionOptions fetches the commission options for a service's
// supplier on first use and applies the commission default found in the
// service's payment terms once. Later calls are served from the session.
func (s *Session) LoadCommissionOptions(ctx context.Context, serviceID string) ([]pricing.CommissionOption, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	supplierID, ok := s.supplierOfLocked(serviceID)
	if !ok {
		s.mu.Unlock()
		return nil, shared.NewDomainError(shared.ErrNotFound.Code,
			fmt.Sprintf("service %s is not in this session", serviceID))
	}
	if opts, cached := s.commissions[supplierID]; cached {
		s.mu.Unlock()
		return opts, nil
	}
	s.mu.Unlock()

	options := s.svc.commissions.Load(ctx, supplierID)

	if err := s.lock(); err != nil {
		s.svc.logger.Debug("dropping commission options for closed session",
			zap.String("session_id", s.ID.String()),
			zap.String("supplier_id", supplierID),
		)
		return nil, err
	}
	defer s.mu.Unlock()

	if existing, cached := s.commissions[supplierID]; cached {
		// a concurrent load got there first
		return existing, nil
	}
	s.commissions[supplierID] = options
	s.applyCommissionDefaultsLocked()
	return options, nil
}

func (s *Session) supplierOfLocked(serviceID string) (string, bool) {
	if i := s.form.serviceIndex(serviceID); i >= 0 {
		return s.form.Services[i].SupplierID, true
	}
	for gi, g := range s.groups {
		if gi == s.active {
			continue
		}
		if i := g.Snapshot.serviceIndex(serviceID); i >= 0 {
			return g.Snapshot.Services[i].SupplierID, true
		}
	}
	return "", false
}

// ApplyDefaults re-runs the one-shot defaults of every group. Defaults that
// were already applied are never applied again, so values edited since are
// kept.
func (s *Session) ApplyDefaults() (SessionView, error) {
	if err := s.lock(); err != nil {
		return SessionView{}, err
	}
	defer s.mu.Unlock()

	s.form.Terms = applyDepositDefault(&s.form, &s.groups[s.active].defaults)
	for i := range s.groups {
		if i == s.active {
			continue
		}
		g := &s.groups[i]
		g.Snapshot.Terms = applyDepositDefault(&g.Snapshot, &g.defaults)
	}
	s.applyCommissionDefaultsLocked()
	return s.viewLocked(), nil
}

func (s *Session) applyCommissionDefaultsLocked() {
	for i := range s.groups {
		g := &s.groups[i]
		f := &g.Snapshot
		if i == s.active {
			f = &s.form
		}
		for si, svc := range f.Services {
			if svc.PricingMode != pricing.ModeTour || g.defaults.Commission[svc.ID] {
				continue
			}
			options, loaded := s.commissions[svc.SupplierID]
			if !loaded {
				continue
			}
			g.defaults.Commission[svc.ID] = true

			state := f.Pricing[svc.ID]
			if state.CommissionRate != nil {
				continue
			}
			opt, ok := defaultCommission(options, svc.PaymentTerms)
			if !ok {
				continue
			}
			state, _ = pricing.Solve(state, pricing.Edit{Field: pricing.FieldCommission, Commission: &opt})
			s.storePricingLocked(f, si, state)
		}
	}
}

// defaultCommission picks the option matching the percentage in the terms
// text, or a custom option with that rate when none matches
func defaultCommission(options []pricing.CommissionOption, paymentTerms string) (pricing.CommissionOption, bool) {
	rate, ok := pricing.DefaultCommissionFromTerms(paymentTerms)
	if !ok || !rate.IsPositive() {
		return pricing.CommissionOption{}, false
	}
	if opt, found := pricing.FindByRate(options, rate); found {
		return opt, true
	}
	return pricing.CommissionOption{
		Name:     fmt.Sprintf("%s%%", rate.String()),
		Rate:     rate,
		IsActive: true,
	}, true
}

// EditTerms applies one payment terms edit to the active group
func (s *Session) EditTerms(edit terms.Edit) (GroupView, error) {
	if err := s.lock(); err != nil {
		return GroupView{}, err
	}
	defer s.mu.Unlock()

	res := terms.Resolve(s.form.totals().Total, s.form.Terms, edit)
	s.form.Terms = res.Snapshot
	return s.groupViewLocked(s.active), nil
}

// UpdateHeader changes the invoice header of the active group
func (s *Session) UpdateHeader(u HeaderUpdate) (GroupView, error) {
	if err := s.lock(); err != nil {
		return GroupView{}, err
	}
	defer s.mu.Unlock()

	if u.InvoiceNumber != nil {
		s.form.InvoiceNumber = *u.InvoiceNumber
	}
	if u.Language != nil {
		s.form.Language = invoicing.NormalizeLanguage(*u.Language, s.form.Language)
	}
	if u.TaxRate != nil {
		s.form.TaxRate = valueobject.ParseNonNegativeAmount(*u.TaxRate)
	}
	if u.InvoiceDate != nil {
		s.form.InvoiceDate = *u.InvoiceDate
	}
	if u.ClearDueDate {
		s.form.DueDate = nil
	} else if u.DueDate != nil {
		due := *u.DueDate
		s.form.DueDate = &due
	}
	s.form.recalculateTerms()
	return s.groupViewLocked(s.active), nil
}

// EditLines runs one line operation on the active group
func (s *Session) EditLines(cmd LineCommand) (GroupView, error) {
	if err := s.lock(); err != nil {
		return GroupView{}, err
	}
	defer s.mu.Unlock()

	var (
		lines invoicing.Lines
		err   error
	)
	switch cmd.Op {
	case LineAdd:
		desc, amount := "", ""
		if cmd.Description != nil {
			desc = *cmd.Description
		}
		if cmd.Amount != nil {
			amount = *cmd.Amount
		}
		lines, _ = s.form.Lines.Add(desc, amount)
	case LineUpdate:
		lines, err = s.form.Lines.Update(cmd.LineID, cmd.Description, cmd.Amount)
	case LineCopy:
		lines, _, err = s.form.Lines.Copy(cmd.LineID)
	case LineDelete:
		lines, err = s.form.Lines.Delete(cmd.LineID)
	case LineMove:
		lines, err = s.form.Lines.Move(cmd.LineID, cmd.To)
	default:
		err = shared.NewDomainError(shared.ErrInvalidInput.Code, fmt.Sprintf("unknown line operation %q", cmd.Op))
	}
	if err != nil {
		return GroupView{}, err
	}

	s.form.Lines = lines
	s.form.recalculateTerms()
	return s.groupViewLocked(s.active), nil
}
