package repository

import (
	"context"
	"errors"

	"github.com/segyhp/installment-engine/internal/domain"
)

// ErrVersionConflict is returned when a loan row was changed by someone else
// between read and write.
var ErrVersionConflict = errors.New("repository: loan version conflict")

// LoanRepository defines the interface for loan and installment plan operations.
// Loans are returned with their installment plan loaded.
type LoanRepository interface {
	// Create inserts a loan and its installment plan in one transaction
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID, sql.ErrNoRows if absent
	GetByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// ListByClient retrieves all loans of a client
	ListByClient(ctx context.Context, clientID string) ([]domain.Loan, error)

	// ListAll retrieves every loan
	ListAll(ctx context.Context) ([]domain.Loan, error)

	// ListActive retrieves loans with status active
	ListActive(ctx context.Context) ([]domain.Loan, error)

	// SavePlan writes the loan row and its whole plan. loan.Version is the
	// version read by the caller; it is incremented on success.
	SavePlan(ctx context.Context, loan *domain.Loan) error

	// CommitPayment writes the loan row, its plan and the installment's ledger
	// record atomically, with the same version check as SavePlan.
	CommitPayment(ctx context.Context, loan *domain.Loan, record *domain.PaymentRecord) error
}

// PaymentRepository is the read side of the payment ledger
type PaymentRepository interface {
	// FindRecord returns the ledger record of one installment, nil if none exists
	FindRecord(ctx context.Context, loanID string, installmentNumber int) (*domain.PaymentRecord, error)

	// Query returns every ledger record of a loan ordered by installment
	Query(ctx context.Context, loanID string) ([]domain.PaymentRecord, error)
}

// ClientMetricsRepository stores the recomputed metrics of each client
type ClientMetricsRepository interface {
	// Save upserts the metrics of metrics.ClientID
	Save(ctx context.Context, metrics *domain.ClientMetrics) error

	// GetByClientID retrieves stored metrics, sql.ErrNoRows if absent
	GetByClientID(ctx context.Context, clientID string) (*domain.ClientMetrics, error)
}
