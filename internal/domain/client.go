package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientMetrics is the borrowing and payment-history summary of one client.
// It is always recomputed from the client's loans, never updated incrementally.
type ClientMetrics struct {
	ClientID            string          `json:"client_id" db:"client_id"`
	TotalLoans          int             `json:"total_loans" db:"total_loans"`
	ActiveLoans         int             `json:"active_loans" db:"active_loans"`
	CompletedLoans      int             `json:"completed_loans" db:"completed_loans"`
	DefaultedLoans      int             `json:"defaulted_loans" db:"defaulted_loans"`
	TotalBorrowed       decimal.Decimal `json:"total_borrowed" db:"total_borrowed"`
	TotalPaid           decimal.Decimal `json:"total_paid" db:"total_paid"`
	OnTimePayments      int             `json:"on_time_payments" db:"on_time_payments"`
	LatePayments        int             `json:"late_payments" db:"late_payments"`
	AveragePaymentDelay int             `json:"average_payment_delay" db:"average_payment_delay"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// CapitalInterestMetrics splits a loan's plan into capital and interest, paid and pending
type CapitalInterestMetrics struct {
	TotalCapital      decimal.Decimal `json:"total_capital"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	PaidCapital       decimal.Decimal `json:"paid_capital"`
	PaidInterest      decimal.Decimal `json:"paid_interest"`
	PendingCapital    decimal.Decimal `json:"pending_capital"`
	PendingInterest   decimal.Decimal `json:"pending_interest"`
	CapitalReturnRate decimal.Decimal `json:"capital_return_rate"`
	InterestEarnRate  decimal.Decimal `json:"interest_earn_rate"`
}

// FinancialSummary aggregates capital and interest across a set of loans
type FinancialSummary struct {
	LoanCount          int             `json:"loan_count"`
	ActiveLoans        int             `json:"active_loans"`
	CompletedLoans     int             `json:"completed_loans"`
	DefaultedLoans     int             `json:"defaulted_loans"`
	CapitalLent        decimal.Decimal `json:"capital_lent"`
	CapitalReturned    decimal.Decimal `json:"capital_returned"`
	InterestExpected   decimal.Decimal `json:"interest_expected"`
	InterestEarned     decimal.Decimal `json:"interest_earned"`
	PendingReceivables decimal.Decimal `json:"pending_receivables"`
	CapitalReturnRate  decimal.Decimal `json:"capital_return_rate"`
	InterestEarnRate   decimal.Decimal `json:"interest_earn_rate"`
}
