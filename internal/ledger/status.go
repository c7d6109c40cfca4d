package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// DeriveStatus computes an installment's status from its amounts and due date
func DeriveStatus(inst domain.Installment, now time.Time) domain.InstallmentStatus {
	remaining := utils.ClampZero(inst.TotalAmount.Sub(inst.PaidAmount))

	switch {
	case utils.IsSettled(remaining):
		return domain.InstallmentStatusPaid
	case inst.PaidAmount.IsPositive():
		return domain.InstallmentStatusPartiallyPaid
	case utils.IsDateOverdue(inst.DueDate, now):
		return domain.InstallmentStatusOverdue
	default:
		return domain.InstallmentStatusPending
	}
}

// RefreshStatuses marks unpaid installments past their due date as overdue.
// It returns the numbers of the installments whose status changed.
// Paid and partially paid installments keep their status.
func RefreshStatuses(plan []domain.Installment, now time.Time) []int {
	var changed []int
	for i := range plan {
		inst := &plan[i]
		if inst.IsPaid() || inst.Status == domain.InstallmentStatusPartiallyPaid {
			continue
		}

		status := DeriveStatus(*inst, now)
		if status != inst.Status {
			inst.Status = status
			changed = append(changed, inst.Number)
		}
	}
	return changed
}

// RecalculateAggregates recomputes the loan-level fields derived from the plan:
// paid installment count, total remaining amount (in cents) and the completed
// transition. A loan without a plan is left untouched.
func RecalculateAggregates(loan *domain.Loan) {
	if !loan.HasPlan() {
		return
	}

	paid := 0
	remaining := decimal.Zero
	for _, inst := range loan.InstallmentPlan {
		if inst.IsPaid() {
			paid++
		}
		remaining = remaining.Add(inst.RemainingAmount)
	}

	loan.PaidInstallments = paid
	loan.RemainingAmount = utils.RoundCents(remaining)

	if utils.IsSettled(loan.RemainingAmount) {
		loan.Status = domain.LoanStatusCompleted
	}
}

// RecalculateRunningBalance rewrites RemainingBalance from the installment at
// index `from` onwards, starting from the balance left by the previous
// installment (or the loan principal). Principal/interest splits are not touched.
func RecalculateRunningBalance(loan *domain.Loan, from int) {
	if from < 0 || from >= len(loan.InstallmentPlan) {
		return
	}

	balance := loan.Amount
	if from > 0 {
		balance = loan.InstallmentPlan[from-1].RemainingBalance
	}

	for i := from; i < len(loan.InstallmentPlan); i++ {
		balance = utils.ClampZero(balance.Sub(loan.InstallmentPlan[i].PrincipalAmount))
		loan.InstallmentPlan[i].RemainingBalance = balance
	}
}
