package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/domain"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// Manual builds a plan from caller-supplied installments. The principal
// portions must add up to the loan principal within one cent and due dates
// must not go backwards.
func Manual(principal decimal.Decimal, entries []domain.ManualInstallment) ([]domain.Installment, error) {
	if !principal.IsPositive() {
		return nil, customError.WrapInvalidTerms("principal must be greater than 0")
	}
	if len(entries) == 0 {
		return nil, customError.WrapInvalidTerms("manual plan must have at least one installment")
	}

	sum := decimal.Zero
	for i, e := range entries {
		if e.PrincipalAmount.IsNegative() || e.InterestAmount.IsNegative() {
			return nil, customError.WrapInvalidTerms(fmt.Sprintf("installment %d has a negative amount", i+1))
		}
		if i > 0 && e.DueDate.Before(entries[i-1].DueDate) {
			return nil, customError.WrapInvalidTerms(fmt.Sprintf("installment %d is due before installment %d", i+1, i))
		}
		sum = sum.Add(utils.RoundCents(e.PrincipalAmount))
	}
	if !utils.WithinTolerance(sum, principal) {
		return nil, customError.WrapInvalidTerms(fmt.Sprintf(
			"manual principal portions add up to %s, loan principal is %s",
			sum.StringFixed(2), principal.StringFixed(2),
		))
	}

	plan := make([]domain.Installment, 0, len(entries))
	balance := principal
	for i, e := range entries {
		p := utils.RoundCents(e.PrincipalAmount)
		interest := utils.RoundCents(e.InterestAmount)
		balance = utils.ClampZero(balance.Sub(p))

		inst := newInstallment(i+1, e.DueDate, p, interest, balance)
		inst.DueDate = e.DueDate
		plan = append(plan, inst)
	}

	return plan, nil
}
