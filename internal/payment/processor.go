// Package payment holds the pure state transitions applied to a loan's
// installment plan: payments and manual installment edits. Every transition
// works on a deep copy and returns it; the input loan is never modified.
package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/ledger"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// ApplyPaymentCommand applies one payment to one installment
type ApplyPaymentCommand struct {
	InstallmentNumber int
	Payment           domain.PaymentData
	Now               time.Time
}

// Outcome is the result of a successful ApplyPayment
type Outcome struct {
	Loan             domain.Loan
	Record           domain.PaymentRecord
	IsPartialPayment bool
	IsOverpayment    bool
	ExcessAmount     decimal.Decimal
}

// ApplyPayment settles cmd.Payment against an installment of loan.
//
// existing is the ledger record already stored for this (loan, installment),
// or nil. Loans without a plan get a Price plan rebuilt from their terms first.
// The excess of an overpayment is reported but not carried to later installments.
func ApplyPayment(loan domain.Loan, existing *domain.PaymentRecord, cmd ApplyPaymentCommand) (Outcome, error) {
	if err := ValidatePayment(cmd.Payment, cmd.Now); err != nil {
		return Outcome{}, err
	}

	next := loan.Clone()
	if !next.HasPlan() {
		plan, err := ledger.LegacyPlan(next)
		if err != nil {
			return Outcome{}, err
		}
		next.InstallmentPlan = plan
	}

	idx := next.FindInstallment(cmd.InstallmentNumber)
	if idx < 0 {
		return Outcome{}, customError.WrapInstallmentNotFound(loan.ID, cmd.InstallmentNumber)
	}

	inst := &next.InstallmentPlan[idx]
	remaining := utils.ClampZero(inst.TotalAmount.Sub(inst.PaidAmount))
	if inst.IsPaid() || utils.IsSettled(remaining) {
		return Outcome{}, customError.WrapNothingToPay(loan.ID, cmd.InstallmentNumber)
	}

	paid := cmd.Payment.TotalPaid
	excess := utils.RoundCents(utils.ClampZero(paid.Sub(remaining)))
	isPartial := !utils.IsSettled(remaining.Sub(paid))
	isOverpayment := paid.GreaterThan(remaining)

	inst.PaidAmount = utils.RoundCents(inst.PaidAmount.Add(paid))
	inst.RemainingAmount = utils.RoundCents(utils.ClampZero(inst.TotalAmount.Sub(inst.PaidAmount)))
	paymentDate := cmd.Payment.PaymentDate
	inst.PaymentDate = &paymentDate
	if utils.IsSettled(inst.RemainingAmount) {
		inst.Status = domain.InstallmentStatusPaid
	} else {
		inst.Status = domain.InstallmentStatusPartiallyPaid
	}

	ledger.RecalculateAggregates(&next)
	next.UpdatedAt = cmd.Now

	record := MergeRecord(existing, next.ID, *inst, cmd.Payment, excess, cmd.Now)

	return Outcome{
		Loan:             next,
		Record:           record,
		IsPartialPayment: isPartial,
		IsOverpayment:    isOverpayment,
		ExcessAmount:     excess,
	}, nil
}

// MergeRecord folds a payment into the ledger record of an installment.
// A first payment creates the record; later ones accumulate into it, so there
// is a single record per (loan, installment).
func MergeRecord(existing *domain.PaymentRecord, loanID string, inst domain.Installment, data domain.PaymentData, excess decimal.Decimal, now time.Time) domain.PaymentRecord {
	var record domain.PaymentRecord
	if existing != nil {
		record = *existing
	} else {
		record = domain.PaymentRecord{
			ID:                uuid.NewString(),
			LoanID:            loanID,
			InstallmentNumber: inst.Number,
			PrincipalPaid:     decimal.Zero,
			InterestPaid:      decimal.Zero,
			PenaltyPaid:       decimal.Zero,
			ExcessAmount:      decimal.Zero,
			CreatedAt:         now,
		}
	}

	record.PaymentDate = data.PaymentDate
	record.PrincipalPaid = record.PrincipalPaid.Add(data.PrincipalPaid)
	record.InterestPaid = record.InterestPaid.Add(data.InterestPaid)
	record.PenaltyPaid = record.PenaltyPaid.Add(data.Penalty())
	record.ExcessAmount = record.ExcessAmount.Add(excess)
	record.CumulativeAmount = inst.PaidAmount
	record.Status = inst.Status
	record.PaymentCount++
	record.UpdatedAt = now

	return record
}
