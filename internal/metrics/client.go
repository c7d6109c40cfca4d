// Package metrics aggregates a client's borrowing and payment history.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// RecomputeClientMetrics rebuilds the metrics of clientID from scratch out of loans.
// Loans of other clients are ignored, so the full portfolio can be passed in.
func RecomputeClientMetrics(clientID string, loans []domain.Loan, now time.Time) domain.ClientMetrics {
	m := domain.ClientMetrics{
		ClientID:      clientID,
		TotalBorrowed: decimal.Zero,
		TotalPaid:     decimal.Zero,
		UpdatedAt:     now,
	}

	totalDelay := 0
	for _, loan := range loans {
		if loan.ClientID != clientID {
			continue
		}

		m.TotalLoans++
		m.TotalBorrowed = m.TotalBorrowed.Add(loan.Amount)

		switch loan.Status {
		case domain.LoanStatusActive:
			m.ActiveLoans++
		case domain.LoanStatusCompleted:
			m.CompletedLoans++
		case domain.LoanStatusDefaulted:
			m.DefaultedLoans++
		}

		if !loan.HasPlan() {
			m.TotalPaid = m.TotalPaid.Add(estimatePaid(loan))
			continue
		}

		for _, inst := range loan.InstallmentPlan {
			m.TotalPaid = m.TotalPaid.Add(inst.PaidAmount)

			if inst.PaymentDate == nil {
				continue
			}
			delay := utils.DaysBetween(inst.DueDate, *inst.PaymentDate)
			if delay <= 0 {
				m.OnTimePayments++
			} else {
				m.LatePayments++
				totalDelay += delay
			}
		}
	}

	m.TotalBorrowed = utils.RoundCents(m.TotalBorrowed)
	m.TotalPaid = utils.RoundCents(m.TotalPaid)
	if m.LatePayments > 0 {
		m.AveragePaymentDelay = int(decimal.NewFromInt(int64(totalDelay)).
			Div(decimal.NewFromInt(int64(m.LatePayments))).
			Round(0).IntPart())
	}

	return m
}

// estimatePaid approximates the amount paid on a loan stored without a plan
func estimatePaid(loan domain.Loan) decimal.Decimal {
	if loan.Installments <= 0 {
		return decimal.Zero
	}
	return loan.TotalAmount.
		Mul(decimal.NewFromInt(int64(loan.PaidInstallments))).
		Div(decimal.NewFromInt(int64(loan.Installments)))
}
