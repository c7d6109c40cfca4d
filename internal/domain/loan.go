package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// AmortizationMethod selects how an installment plan is generated
type AmortizationMethod string

const (
	MethodPrice  AmortizationMethod = "price"
	MethodSAC    AmortizationMethod = "sac"
	MethodPreset AmortizationMethod = "preset"
	MethodManual AmortizationMethod = "manual"
)

// Loan represents a loan entity. Once InstallmentPlan is populated it is the
// source of truth for PaidInstallments and RemainingAmount.
type Loan struct {
	ID               string             `json:"id" db:"id"`
	ClientID         string             `json:"client_id" db:"client_id"`
	Amount           decimal.Decimal    `json:"amount" db:"amount"`
	InterestRate     decimal.Decimal    `json:"interest_rate" db:"interest_rate"` // percent per period
	Installments     int                `json:"installments" db:"installments"`
	Method           AmortizationMethod `json:"method" db:"method"`
	StartDate        time.Time          `json:"start_date" db:"start_date"`
	EndDate          time.Time          `json:"end_date" db:"end_date"`
	TotalAmount      decimal.Decimal    `json:"total_amount" db:"total_amount"`
	Status           LoanStatus         `json:"status" db:"status"`
	PaidInstallments int                `json:"paid_installments" db:"paid_installments"`
	RemainingAmount  decimal.Decimal    `json:"remaining_amount" db:"remaining_amount"`
	Version          int                `json:"version" db:"version"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`

	InstallmentPlan []Installment `json:"installment_plan,omitempty" db:"-"`
}

// HasPlan reports whether the loan carries an installment plan
func (l *Loan) HasPlan() bool {
	return len(l.InstallmentPlan) > 0
}

// FindInstallment returns the index of the installment with the given number, or -1
func (l *Loan) FindInstallment(number int) int {
	for i := range l.InstallmentPlan {
		if l.InstallmentPlan[i].Number == number {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the loan, including its installment plan
func (l Loan) Clone() Loan {
	next := l
	if l.InstallmentPlan != nil {
		next.InstallmentPlan = make([]Installment, len(l.InstallmentPlan))
		for i, inst := range l.InstallmentPlan {
			next.InstallmentPlan[i] = inst.Clone()
		}
	}
	return next
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	LoanID       string             `json:"loan_id"`
	ClientID     string             `json:"client_id" validate:"required"`
	Amount       decimal.Decimal    `json:"amount" validate:"decimal_gt=0"`
	InterestRate decimal.Decimal    `json:"interest_rate" validate:"decimal_gte=0"`
	Installments int                `json:"installments" validate:"required,gt=0,lte=600"`
	Method       AmortizationMethod `json:"method" validate:"omitempty,oneof=price sac preset manual"`
	StartDate    time.Time          `json:"start_date"`

	// ManualPlan is used when Method is manual; each entry carries its own split and due date.
	ManualPlan []ManualInstallment `json:"manual_plan,omitempty" validate:"required_if=Method manual,dive"`
}

type ManualInstallment struct {
	DueDate         time.Time       `json:"due_date" validate:"required"`
	PrincipalAmount decimal.Decimal `json:"principal_amount" validate:"decimal_gte=0"`
	InterestAmount  decimal.Decimal `json:"interest_amount" validate:"decimal_gte=0"`
}

type PreviewScheduleRequest struct {
	Amount       decimal.Decimal    `json:"amount" validate:"decimal_gt=0"`
	InterestRate decimal.Decimal    `json:"interest_rate" validate:"decimal_gte=0"`
	Installments int                `json:"installments" validate:"required,gt=0,lte=600"`
	Method       AmortizationMethod `json:"method" validate:"omitempty,oneof=price sac preset"`
	StartDate    time.Time          `json:"start_date"`
}

type CreateLoanResponse struct {
	Loan     *Loan         `json:"loan"`
	Schedule []Installment `json:"schedule"`
}

type ScheduleResponse struct {
	LoanID   string        `json:"loan_id,omitempty"`
	Method   string        `json:"method"`
	Total    string        `json:"total"`
	Schedule []Installment `json:"schedule"`
}
