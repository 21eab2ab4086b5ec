package invoicing

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/travelagency/backoffice/internal/domain/invoicing"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared"
)

// MockCommissionDirectory is a mock implementation of CommissionDirectory
type MockCommissionDirectory struct {
	mock.Mock
}

func (m *MockCommissionDirectory) ListCommissions(ctx context.Context, supplierID string) ([]pricing.CommissionOption, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pricing.CommissionOption), args.Error(1)
}

// MockCompanyDirectory is a mock implementation of CompanyDirectory
type MockCompanyDirectory struct {
	mock.Mock
}

func (m *MockCompanyDirectory) Defaults(ctx context.Context) (invoicing.CompanyDefaults, error) {
	args := m.Called(ctx)
	return args.Get(0).(invoicing.CompanyDefaults), args.Error(1)
}

// MockNumberAllocator is a mock implementation of NumberAllocator
type MockNumberAllocator struct {
	mock.Mock
}

func (m *MockNumberAllocator) Next(ctx context.Context, count int) ([]string, error) {
	args := m.Called(ctx, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoicing.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
