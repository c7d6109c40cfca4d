package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentData is the intake of a single payment against one installment
type PaymentData struct {
	PaymentDate   time.Time        `json:"payment_date" validate:"required"`
	PrincipalPaid decimal.Decimal  `json:"principal_paid" validate:"decimal_gte=0"`
	InterestPaid  decimal.Decimal  `json:"interest_paid" validate:"decimal_gte=0"`
	TotalPaid     decimal.Decimal  `json:"total_paid" validate:"decimal_gt=0"`
	PenaltyPaid   *decimal.Decimal `json:"penalty_paid,omitempty" validate:"omitempty,decimal_gte=0"`
}

// Penalty returns the penalty paid, or zero when absent
func (p PaymentData) Penalty() decimal.Decimal {
	if p.PenaltyPaid == nil {
		return decimal.Zero
	}
	return *p.PenaltyPaid
}

// PaymentRecord is the ledger entry of all payments applied to one installment.
// There is at most one record per (LoanID, InstallmentNumber).
type PaymentRecord struct {
	ID                string            `json:"id" db:"id"`
	LoanID            string            `json:"loan_id" db:"loan_id"`
	InstallmentNumber int               `json:"installment_number" db:"installment_number"`
	PaymentDate       time.Time         `json:"payment_date" db:"payment_date"`
	PrincipalPaid     decimal.Decimal   `json:"principal_paid" db:"principal_paid"`
	InterestPaid      decimal.Decimal   `json:"interest_paid" db:"interest_paid"`
	PenaltyPaid       decimal.Decimal   `json:"penalty_paid" db:"penalty_paid"`
	CumulativeAmount  decimal.Decimal   `json:"cumulative_amount" db:"cumulative_amount"`
	ExcessAmount      decimal.Decimal   `json:"excess_amount" db:"excess_amount"`
	PaymentCount      int               `json:"payment_count" db:"payment_count"`
	Status            InstallmentStatus `json:"status" db:"status"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}

// PaymentResult is returned to the orchestration layer after a committed payment
type PaymentResult struct {
	Success          bool            `json:"success"`
	UpdatedLoan      *Loan           `json:"updated_loan"`
	Record           *PaymentRecord  `json:"record"`
	IsPartialPayment bool            `json:"is_partial_payment"`
	IsOverpayment    bool            `json:"is_overpayment"`
	ExcessAmount     decimal.Decimal `json:"excess_amount"`
}
