package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRoundingStep is the commercial rounding denomination for installment values.
const DefaultRoundingStep int64 = 5

var (
	// Tolerance is the 1-cent band used whenever a money comparison decides a state.
	Tolerance = decimal.New(1, -2)

	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// RoundToStep rounds value to the nearest multiple of step.
// A remainder of exactly half the step rounds up. Non-positive values return zero.
func RoundToStep(value decimal.Decimal, step int64) decimal.Decimal {
	if step <= 0 || !value.IsPositive() {
		return decimal.Zero
	}

	stepDec := decimal.NewFromInt(step)
	base := value.Div(stepDec).Floor().Mul(stepDec)
	remainder := value.Sub(base)

	if remainder.Mul(two).GreaterThanOrEqual(stepDec) {
		base = base.Add(stepDec)
	}

	return base
}

// RoundToDefaultStep rounds value to the nearest multiple of DefaultRoundingStep.
func RoundToDefaultStep(value decimal.Decimal) decimal.Decimal {
	return RoundToStep(value, DefaultRoundingStep)
}

// RoundCents rounds a currency amount to 2 decimal places
func RoundCents(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

// WithinTolerance reports whether a and b differ by at most one cent.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// IsSettled reports whether a remaining amount is zero within tolerance.
func IsSettled(remaining decimal.Decimal) bool {
	return remaining.LessThanOrEqual(Tolerance)
}

// ClampZero returns value, or zero if value is negative.
func ClampZero(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// Percentage returns part/total*100 rounded to 2 places, or zero when total is zero.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}

// CalculateDueDate calculates the due date for a specific installment.
// Installment 1 is due one calendar month after the start date, installment 2 two months after, etc.
func CalculateDueDate(startDate time.Time, installmentNumber int) time.Time {
	return startDate.AddDate(0, installmentNumber, 0)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from `from` to `to`.
// The result is negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// IsDateOverdue checks if a due date is strictly before the calendar day of now
func IsDateOverdue(dueDate, now time.Time) bool {
	return DateOnly(dueDate).Before(DateOnly(now))
}
