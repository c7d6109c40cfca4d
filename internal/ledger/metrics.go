package ledger

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/amortization"
	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// LegacyPlan rebuilds a Price plan for a loan stored without an installment
// plan. The first PaidInstallments installments are marked as paid.
func LegacyPlan(loan domain.Loan) ([]domain.Installment, error) {
	plan, err := amortization.Price(amortization.Terms{
		Principal:    loan.Amount,
		Installments: loan.Installments,
		RatePercent:  loan.InterestRate,
		StartDate:    loan.StartDate,
	})
	if err != nil {
		return nil, err
	}

	for i := range plan {
		plan[i].LoanID = loan.ID
		if i < loan.PaidInstallments {
			plan[i].Status = domain.InstallmentStatusPaid
			plan[i].PaidAmount = plan[i].TotalAmount
			plan[i].RemainingAmount = decimal.Zero
		}
	}

	return plan, nil
}

// CapitalInterestMetrics splits a loan into capital and interest, paid and pending.
//
// Fully paid installments contribute their whole split. Partially paid ones
// contribute principal and interest in proportion to paid/total.
func CapitalInterestMetrics(loan domain.Loan) domain.CapitalInterestMetrics {
	plan := loan.InstallmentPlan
	if len(plan) == 0 {
		legacy, err := LegacyPlan(loan)
		if err != nil {
			log.Warn().Err(err).Str("loan_id", loan.ID).Msg("cannot rebuild plan for legacy loan")
			return zeroMetrics()
		}
		plan = legacy
	}

	m := zeroMetrics()
	for _, inst := range plan {
		m.TotalCapital = m.TotalCapital.Add(inst.PrincipalAmount)
		m.TotalInterest = m.TotalInterest.Add(inst.InterestAmount)

		switch inst.Status {
		case domain.InstallmentStatusPaid:
			m.PaidCapital = m.PaidCapital.Add(inst.PrincipalAmount)
			m.PaidInterest = m.PaidInterest.Add(inst.InterestAmount)
		case domain.InstallmentStatusPartiallyPaid:
			if inst.TotalAmount.IsPositive() {
				ratio := inst.PaidAmount.Div(inst.TotalAmount)
				m.PaidCapital = m.PaidCapital.Add(inst.PrincipalAmount.Mul(ratio))
				m.PaidInterest = m.PaidInterest.Add(inst.InterestAmount.Mul(ratio))
			}
		}
	}

	m.TotalCapital = utils.RoundCents(m.TotalCapital)
	m.TotalInterest = utils.RoundCents(m.TotalInterest)
	m.PaidCapital = utils.RoundCents(m.PaidCapital)
	m.PaidInterest = utils.RoundCents(m.PaidInterest)
	m.PendingCapital = utils.ClampZero(m.TotalCapital.Sub(m.PaidCapital))
	m.PendingInterest = utils.ClampZero(m.TotalInterest.Sub(m.PaidInterest))
	m.CapitalReturnRate = utils.Percentage(m.PaidCapital, m.TotalCapital)
	m.InterestEarnRate = utils.Percentage(m.PaidInterest, m.TotalInterest)

	return m
}

// Summarize aggregates capital and interest metrics across loans
func Summarize(loans []domain.Loan) domain.FinancialSummary {
	s := domain.FinancialSummary{
		CapitalLent:        decimal.Zero,
		CapitalReturned:    decimal.Zero,
		InterestExpected:   decimal.Zero,
		InterestEarned:     decimal.Zero,
		PendingReceivables: decimal.Zero,
	}

	for _, loan := range loans {
		s.LoanCount++
		switch loan.Status {
		case domain.LoanStatusActive:
			s.ActiveLoans++
		case domain.LoanStatusCompleted:
			s.CompletedLoans++
		case domain.LoanStatusDefaulted:
			s.DefaultedLoans++
		}

		m := CapitalInterestMetrics(loan)
		s.CapitalLent = s.CapitalLent.Add(m.TotalCapital)
		s.CapitalReturned = s.CapitalReturned.Add(m.PaidCapital)
		s.InterestExpected = s.InterestExpected.Add(m.TotalInterest)
		s.InterestEarned = s.InterestEarned.Add(m.PaidInterest)
		s.PendingReceivables = s.PendingReceivables.Add(m.PendingCapital).Add(m.PendingInterest)
	}

	s.CapitalReturnRate = utils.Percentage(s.CapitalReturned, s.CapitalLent)
	s.InterestEarnRate = utils.Percentage(s.InterestEarned, s.InterestExpected)

	return s
}

func zeroMetrics() domain.CapitalInterestMetrics {
	return domain.CapitalInterestMetrics{
		TotalCapital:      decimal.Zero,
		TotalInterest:     decimal.Zero,
		PaidCapital:       decimal.Zero,
		PaidInterest:      decimal.Zero,
		PendingCapital:    decimal.Zero,
		PendingInterest:   decimal.Zero,
		CapitalReturnRate: decimal.Zero,
		InterestEarnRate:  decimal.Zero,
	}
}
