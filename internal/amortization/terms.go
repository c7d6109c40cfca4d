// Package amortization turns loan terms into installment plans.
//
// Three methods are supported: Price (constant installment), SAC (constant
// amortization with commercial rounding to multiples of a step) and preset
// lookup of fixed promotional offers, which falls back to a dynamic method.
package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/domain"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

var hundred = decimal.NewFromInt(100)

// Terms are the inputs shared by every generator
type Terms struct {
	Principal    decimal.Decimal
	Installments int
	RatePercent  decimal.Decimal // nominal rate per period, e.g. 2.5 for 2.5%
	StartDate    time.Time
}

// Validate rejects terms no generator accepts
func (t Terms) Validate() error {
	if !t.Principal.IsPositive() {
		return customError.WrapInvalidTerms("principal must be greater than 0")
	}
	if t.Installments <= 0 {
		return customError.WrapInvalidTerms("installments must be greater than 0")
	}
	if t.RatePercent.IsNegative() {
		return customError.WrapInvalidTerms("interest rate must not be negative")
	}
	return nil
}

// periodicRate converts the percentage rate into a fraction
func (t Terms) periodicRate() decimal.Decimal {
	return t.RatePercent.Div(hundred)
}

func newInstallment(number int, start time.Time, principal, interest, balance decimal.Decimal) domain.Installment {
	total := principal.Add(interest)
	status := domain.InstallmentStatusPending
	if utils.IsSettled(total) {
		status = domain.InstallmentStatusPaid
	}
	return domain.Installment{
		Number:           number,
		DueDate:          utils.CalculateDueDate(start, number),
		PrincipalAmount:  principal,
		InterestAmount:   interest,
		TotalAmount:      total,
		RemainingBalance: balance,
		Status:           status,
		PaidAmount:       decimal.Zero,
		RemainingAmount:  total,
	}
}

// PlanTotal sums the total amount due across a plan
func PlanTotal(plan []domain.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range plan {
		total = total.Add(inst.TotalAmount)
	}
	return total
}

// PlanInterest sums the interest portion across a plan
func PlanInterest(plan []domain.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range plan {
		total = total.Add(inst.InterestAmount)
	}
	return total
}
