package amortization

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// SACGross returns the unrounded-to-step SAC installment values, in cents:
// a fixed amortization of principal/n plus interest on the declining balance.
// The sequence is non-increasing.
func SACGross(terms Terms) ([]decimal.Decimal, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	rate := terms.periodicRate()
	amortization := terms.Principal.Div(decimal.NewFromInt(int64(terms.Installments)))
	balance := terms.Principal

	gross := make([]decimal.Decimal, 0, terms.Installments)
	for i := 0; i < terms.Installments; i++ {
		gross = append(gross, amortization.Add(balance.Mul(rate)).Round(2))
		balance = balance.Sub(amortization)
	}

	return gross, nil
}

// ApplyCommercialRounding rounds a non-increasing installment series to
// multiples of step.
//
// Every value but the last is rounded independently. The last one takes the
// rounded difference between the gross total and the others, so the plan total
// stays within one step of the gross total. A single left-to-right pass then
// moves one step between adjacent values that ended up increasing by at most
// two steps. The repair is local and does not guarantee a monotonic result.
func ApplyCommercialRounding(gross []decimal.Decimal, step int64) []decimal.Decimal {
	n := len(gross)
	if n == 0 {
		return nil
	}

	rounded := make([]decimal.Decimal, n)
	grossTotal := decimal.Zero
	others := decimal.Zero

	for i, value := range gross {
		grossTotal = grossTotal.Add(value)
		if i < n-1 {
			rounded[i] = utils.RoundToStep(value, step)
			others = others.Add(rounded[i])
		}
	}
	rounded[n-1] = utils.RoundToStep(grossTotal.Sub(others), step)

	stepDec := decimal.NewFromInt(step)
	maxGap := stepDec.Mul(decimal.NewFromInt(2))
	for i := 0; i < n-1; i++ {
		if rounded[i].LessThan(rounded[i+1]) && rounded[i+1].Sub(rounded[i]).LessThanOrEqual(maxGap) {
			rounded[i] = rounded[i].Add(stepDec)
			rounded[i+1] = rounded[i+1].Sub(stepDec)
		}
	}

	return rounded
}

// SAC generates a constant-amortization schedule with commercially rounded installments.
func SAC(terms Terms, step int64) ([]domain.Installment, error) {
	gross, err := SACGross(terms)
	if err != nil {
		return nil, err
	}

	return fromTotals(terms, ApplyCommercialRounding(gross, step)), nil
}

// fromTotals builds a plan from literal installment totals. Each installment
// with a positive total amortizes principal/n, capped at its total. What the
// caps leave over is moved into principal from the last installment backwards,
// converting interest. If the totals cannot carry the whole principal, the
// last positive installment is raised to cover it. Interest is the rest of
// each total, so principal always sums to the loan principal and the final
// balance is zero.
func fromTotals(terms Terms, totals []decimal.Decimal) []domain.Installment {
	n := len(totals)
	share := terms.Principal.Div(decimal.NewFromInt(int64(n))).Round(2)

	totals = append([]decimal.Decimal(nil), totals...)
	principals := make([]decimal.Decimal, n)
	assigned := decimal.Zero
	lastPositive := n - 1
	for i, total := range totals {
		principals[i] = decimal.Min(share, utils.ClampZero(total))
		assigned = assigned.Add(principals[i])
		if total.IsPositive() {
			lastPositive = i
		}
	}

	left := terms.Principal.Sub(assigned)
	for i := n - 1; i >= 0 && left.IsPositive(); i-- {
		move := decimal.Min(left, utils.ClampZero(totals[i].Sub(principals[i])))
		principals[i] = principals[i].Add(move)
		left = left.Sub(move)
	}
	if left.IsPositive() {
		principals[lastPositive] = principals[lastPositive].Add(left)
		totals[lastPositive] = principals[lastPositive]
	}

	plan := make([]domain.Installment, 0, n)
	balance := terms.Principal
	for i, total := range totals {
		interest := utils.ClampZero(total.Sub(principals[i]))
		balance = utils.ClampZero(balance.Sub(principals[i]))
		plan = append(plan, newInstallment(i+1, terms.StartDate, principals[i], interest, balance))
	}

	return plan
}
