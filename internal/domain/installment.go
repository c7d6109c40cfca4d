package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the payment state of a single installment
type InstallmentStatus string

const (
	InstallmentStatusPending       InstallmentStatus = "pending"
	InstallmentStatusPaid          InstallmentStatus = "paid"
	InstallmentStatusOverdue       InstallmentStatus = "overdue"
	InstallmentStatusPartiallyPaid InstallmentStatus = "partially_paid"
)

// Installment is one scheduled obligation of a loan's installment plan
type Installment struct {
	LoanID           string            `json:"loan_id,omitempty" db:"loan_id"`
	Number           int               `json:"number" db:"number"`
	DueDate          time.Time         `json:"due_date" db:"due_date"`
	PrincipalAmount  decimal.Decimal   `json:"principal_amount" db:"principal_amount"`
	InterestAmount   decimal.Decimal   `json:"interest_amount" db:"interest_amount"`
	TotalAmount      decimal.Decimal   `json:"total_amount" db:"total_amount"`
	RemainingBalance decimal.Decimal   `json:"remaining_balance" db:"remaining_balance"`
	Status           InstallmentStatus `json:"status" db:"status"`
	PaymentDate      *time.Time        `json:"payment_date,omitempty" db:"payment_date"`
	PaidAmount       decimal.Decimal   `json:"paid_amount" db:"paid_amount"`
	RemainingAmount  decimal.Decimal   `json:"remaining_amount" db:"remaining_amount"`
}

// Clone returns a copy that shares no pointers with the receiver
func (i Installment) Clone() Installment {
	next := i
	if i.PaymentDate != nil {
		d := *i.PaymentDate
		next.PaymentDate = &d
	}
	return next
}

// IsPaid reports whether the installment is settled
func (i Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// EditInstallmentRequest is the body of a manual installment edit.
// Nil fields are left unchanged.
type EditInstallmentRequest struct {
	PrincipalAmount *decimal.Decimal `json:"principal_amount,omitempty" validate:"omitempty,decimal_gte=0"`
	InterestAmount  *decimal.Decimal `json:"interest_amount,omitempty" validate:"omitempty,decimal_gte=0"`
	DueDate         *time.Time       `json:"due_date,omitempty"`
}
