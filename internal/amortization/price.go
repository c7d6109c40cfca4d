package amortization

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// PricePayment computes the constant installment of the annuity formula
//
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// rounded to cents. A zero rate splits the principal evenly.
func PricePayment(principal decimal.Decimal, ratePercent decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	if !ratePercent.IsPositive() {
		return principal.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	// The power term is evaluated in float64; monetary arithmetic stays in decimal.
	r := ratePercent.Div(hundred).InexactFloat64()
	factor := math.Pow(1+r, float64(n))
	payment := principal.InexactFloat64() * r * factor / (factor - 1)

	return decimal.NewFromFloat(payment).Round(2)
}

// Price generates a French (annuity) schedule: constant installment, growing
// amortization. The last period amortizes whatever balance is left so the plan
// always ends at zero.
func Price(terms Terms) ([]domain.Installment, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	rate := terms.periodicRate()
	payment := PricePayment(terms.Principal, terms.RatePercent, terms.Installments)

	plan := make([]domain.Installment, 0, terms.Installments)
	balance := terms.Principal

	for number := 1; number <= terms.Installments; number++ {
		interest := utils.ClampZero(balance.Mul(rate).Round(2))
		principal := utils.ClampZero(payment.Sub(interest))

		if number == terms.Installments || principal.GreaterThan(balance) {
			principal = balance
		}

		balance = utils.ClampZero(balance.Sub(principal))
		plan = append(plan, newInstallment(number, terms.StartDate, principal, interest, balance))
	}

	return plan, nil
}
