package payment

import (
	"fmt"
	"time"

	"github.com/segyhp/installment-engine/internal/domain"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
	"github.com/segyhp/installment-engine/pkg/validation"
)

var validate = validation.New()

// ValidatePayment checks sign, date and consistency rules of a payment intake.
// The components must add up to the total within one cent and the payment
// date must not be after the calendar day of now.
func ValidatePayment(data domain.PaymentData, now time.Time) error {
	if err := validate.Struct(data); err != nil {
		return customError.WrapValidation(validation.Message(err))
	}

	if utils.DateOnly(data.PaymentDate).After(utils.DateOnly(now)) {
		return customError.WrapValidation("payment_date cannot be in the future")
	}

	sum := data.PrincipalPaid.Add(data.InterestPaid).Add(data.Penalty())
	if !utils.WithinTolerance(sum, data.TotalPaid) {
		return customError.WrapValidation(fmt.Sprintf(
			"principal_paid + interest_paid + penalty_paid (%s) must equal total_paid (%s)",
			sum.StringFixed(2), data.TotalPaid.StringFixed(2),
		))
	}

	return nil
}
