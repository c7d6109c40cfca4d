package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/installment-engine/internal/domain"
)

type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreateLoanResponse), args.Error(1)
}

func (m *MockBillingService) PreviewSchedule(ctx context.Context, request *domain.PreviewScheduleRequest) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockBillingService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockBillingService) GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockBillingService) GetLoanMetrics(ctx context.Context, loanID string) (*domain.CapitalInterestMetrics, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapitalInterestMetrics), args.Error(1)
}

func (m *MockBillingService) ProcessPayment(ctx context.Context, loanID string, installmentNumber int, data domain.PaymentData) (*domain.PaymentResult, error) {
	args := m.Called(ctx, loanID, installmentNumber, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockBillingService) EditInstallment(ctx context.Context, loanID string, installmentNumber int, request *domain.EditInstallmentRequest) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, installmentNumber, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockBillingService) RefreshClientMetrics(ctx context.Context, clientID string) (*domain.ClientMetrics, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientMetrics), args.Error(1)
}

func (m *MockBillingService) GetClientMetrics(ctx context.Context, clientID string) (*domain.ClientMetrics, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientMetrics), args.Error(1)
}

func (m *MockBillingService) GetFinancialSummary(ctx context.Context) (*domain.FinancialSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancialSummary), args.Error(1)
}

// NewMockBillingService creates a new mock billing service instance
func NewMockBillingService() *MockBillingService {
	return &MockBillingService{}
}
