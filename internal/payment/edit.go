package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/amortization"
	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/ledger"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// EditInstallmentCommand overwrites parts of an installment that has no payments yet
type EditInstallmentCommand struct {
	InstallmentNumber int
	PrincipalAmount   *decimal.Decimal
	InterestAmount    *decimal.Decimal
	DueDate           *time.Time
	Now               time.Time
}

// EditInstallment applies a manual override to one installment.
//
// The installment total becomes principal + interest and the running balance
// of it and every later installment is recomputed. Other installments keep
// their principal/interest split: this is an override, not a re-amortization.
func EditInstallment(loan domain.Loan, cmd EditInstallmentCommand) (domain.Loan, error) {
	if cmd.PrincipalAmount == nil && cmd.InterestAmount == nil && cmd.DueDate == nil {
		return domain.Loan{}, customError.WrapValidation("nothing to edit")
	}
	if cmd.PrincipalAmount != nil && cmd.PrincipalAmount.IsNegative() {
		return domain.Loan{}, customError.WrapValidation("principal_amount must not be negative")
	}
	if cmd.InterestAmount != nil && cmd.InterestAmount.IsNegative() {
		return domain.Loan{}, customError.WrapValidation("interest_amount must not be negative")
	}

	next := loan.Clone()
	if !next.HasPlan() {
		plan, err := ledger.LegacyPlan(next)
		if err != nil {
			return domain.Loan{}, err
		}
		next.InstallmentPlan = plan
	}

	idx := next.FindInstallment(cmd.InstallmentNumber)
	if idx < 0 {
		return domain.Loan{}, customError.WrapInstallmentNotFound(loan.ID, cmd.InstallmentNumber)
	}

	inst := &next.InstallmentPlan[idx]
	if inst.PaidAmount.IsPositive() || inst.Status == domain.InstallmentStatusPaid {
		return domain.Loan{}, customError.WrapInstallmentHasPayment(loan.ID, cmd.InstallmentNumber)
	}

	if cmd.PrincipalAmount != nil {
		inst.PrincipalAmount = utils.RoundCents(*cmd.PrincipalAmount)
	}
	if cmd.InterestAmount != nil {
		inst.InterestAmount = utils.RoundCents(*cmd.InterestAmount)
	}
	if cmd.DueDate != nil {
		inst.DueDate = *cmd.DueDate
	}
	inst.TotalAmount = inst.PrincipalAmount.Add(inst.InterestAmount)
	inst.RemainingAmount = inst.TotalAmount
	inst.Status = ledger.DeriveStatus(*inst, cmd.Now)

	ledger.RecalculateRunningBalance(&next, idx)

	next.TotalAmount = amortization.PlanTotal(next.InstallmentPlan)
	next.EndDate = next.InstallmentPlan[len(next.InstallmentPlan)-1].DueDate
	ledger.RecalculateAggregates(&next)
	next.UpdatedAt = cmd.Now

	return next, nil
}
