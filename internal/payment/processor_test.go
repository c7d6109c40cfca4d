package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/installment-engine/internal/amortization"
	"github.com/segyhp/installment-engine/internal/domain"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

var (
	loanStart   = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now         = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	paymentDate = time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// twoInstallmentLoan has two installments of 800 principal + 200 interest.
func twoInstallmentLoan() domain.Loan {
	plan := make([]domain.Installment, 2)
	balance := dec("1600")
	for i := range plan {
		balance = balance.Sub(dec("800"))
		plan[i] = domain.Installment{
			LoanID:           "LOAN-1",
			Number:           i + 1,
			DueDate:          loanStart.AddDate(0, i+1, 0),
			PrincipalAmount:  dec("800"),
			InterestAmount:   dec("200"),
			TotalAmount:      dec("1000"),
			RemainingBalance: balance,
			Status:           domain.InstallmentStatusPending,
			PaidAmount:       decimal.Zero,
			RemainingAmount:  dec("1000"),
		}
	}
	return domain.Loan{
		ID:              "LOAN-1",
		ClientID:        "CLIENT-1",
		Amount:          dec("1600"),
		InterestRate:    dec("12.5"),
		Installments:    2,
		StartDate:       loanStart,
		TotalAmount:     dec("2000"),
		Status:          domain.LoanStatusActive,
		RemainingAmount: dec("2000"),
		InstallmentPlan: plan,
	}
}

func pay(total string) domain.PaymentData {
	// split total 80/20 between principal and interest
	t := dec(total)
	principal := t.Mul(dec("0.8")).Round(2)
	return domain.PaymentData{
		PaymentDate:   paymentDate,
		PrincipalPaid: principal,
		InterestPaid:  t.Sub(principal),
		TotalPaid:     t,
	}
}

func TestApplyPayment_Classification(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		status        domain.InstallmentStatus
		partial       bool
		overpayment   bool
		excess        string
		remaining     string
		loanRemaining string
	}{
		{name: "exact", amount: "1000", status: domain.InstallmentStatusPaid, excess: "0.00", remaining: "0.00", loanRemaining: "1000.00"},
		{name: "partial", amount: "600", status: domain.InstallmentStatusPartiallyPaid, partial: true, excess: "0.00", remaining: "400.00", loanRemaining: "1400.00"},
		{name: "overpayment", amount: "1200", status: domain.InstallmentStatusPaid, overpayment: true, excess: "200.00", remaining: "0.00", loanRemaining: "1000.00"},
		{name: "within a cent", amount: "999.99", status: domain.InstallmentStatusPaid, excess: "0.00", remaining: "0.01", loanRemaining: "1000.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ApplyPayment(twoInstallmentLoan(), nil, ApplyPaymentCommand{
				InstallmentNumber: 1,
				Payment:           pay(tt.amount),
				Now:               now,
			})
			require.NoError(t, err)

			inst := outcome.Loan.InstallmentPlan[0]
			assert.Equal(t, tt.status, inst.Status)
			assert.Equal(t, tt.partial, outcome.IsPartialPayment)
			assert.Equal(t, tt.overpayment, outcome.IsOverpayment)
			assert.Equal(t, tt.excess, outcome.ExcessAmount.StringFixed(2))
			assert.Equal(t, tt.remaining, inst.RemainingAmount.StringFixed(2))
			assert.Equal(t, tt.loanRemaining, outcome.Loan.RemainingAmount.StringFixed(2))
			require.NotNil(t, inst.PaymentDate)
			assert.Equal(t, paymentDate, *inst.PaymentDate)

			assert.Equal(t, tt.status, outcome.Record.Status)
			assert.Equal(t, "LOAN-1", outcome.Record.LoanID)
			assert.Equal(t, 1, outcome.Record.InstallmentNumber)
			assert.Equal(t, 1, outcome.Record.PaymentCount)
			assert.NotEmpty(t, outcome.Record.ID)
		})
	}
}

func TestApplyPayment_ValidationRejected(t *testing.T) {
	penalty := dec("-5")

	tests := []struct {
		name string
		data domain.PaymentData
	}{
		{
			name: "components do not add up",
			data: domain.PaymentData{PaymentDate: paymentDate, PrincipalPaid: dec("100"), InterestPaid: dec("100"), TotalPaid: dec("150")},
		},
		{
			name: "zero total",
			data: domain.PaymentData{PaymentDate: paymentDate, PrincipalPaid: decimal.Zero, InterestPaid: decimal.Zero, TotalPaid: decimal.Zero},
		},
		{
			name: "negative component",
			data: domain.PaymentData{PaymentDate: paymentDate, PrincipalPaid: dec("-10"), InterestPaid: dec("110"), TotalPaid: dec("100")},
		},
		{
			name: "negative penalty",
			data: domain.PaymentData{PaymentDate: paymentDate, PrincipalPaid: dec("50"), InterestPaid: dec("55"), PenaltyPaid: &penalty, TotalPaid: dec("100")},
		},
		{
			name: "future date",
			data: domain.PaymentData{PaymentDate: now.AddDate(0, 0, 1), PrincipalPaid: dec("50"), InterestPaid: dec("50"), TotalPaid: dec("100")},
		},
		{
			name: "missing date",
			data: domain.PaymentData{PrincipalPaid: dec("50"), InterestPaid: dec("50"), TotalPaid: dec("100")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := twoInstallmentLoan()
			_, err := ApplyPayment(loan, nil, ApplyPaymentCommand{InstallmentNumber: 1, Payment: tt.data, Now: now})

			assert.True(t, errors.Is(err, customError.ErrValidation), "got %v", err)
			assert.Equal(t, customError.KindValidation, customError.KindOf(err))
			assert.True(t, loan.InstallmentPlan[0].PaidAmount.IsZero())
		})
	}
}

func TestValidatePayment_WithPenalty(t *testing.T) {
	penalty := dec("25.50")
	data := domain.PaymentData{PaymentDate: now, PrincipalPaid: dec("800"), InterestPaid: dec("200"), PenaltyPaid: &penalty, TotalPaid: dec("1025.50")}

	assert.NoError(t, ValidatePayment(data, now))
}

func TestApplyPayment_InstallmentNotFound(t *testing.T) {
	_, err := ApplyPayment(twoInstallmentLoan(), nil, ApplyPaymentCommand{InstallmentNumber: 9, Payment: pay("100"), Now: now})

	assert.True(t, errors.Is(err, customError.ErrInstallmentNotFound))
	assert.Equal(t, customError.KindNotFound, customError.KindOf(err))
}

func TestApplyPayment_PaidInstallmentIsTerminal(t *testing.T) {
	first, err := ApplyPayment(twoInstallmentLoan(), nil, ApplyPaymentCommand{InstallmentNumber: 1, Payment: pay("1000"), Now: now})
	require.NoError(t, err)

	_, err = ApplyPayment(first.Loan, &first.Record, ApplyPaymentCommand{InstallmentNumber: 1, Payment: pay("10"), Now: now})
	assert.True(t, errors.Is(err, customError.ErrNothingToPay))
}

func TestApplyPayment_DoesNotMutateInput(t *testing.T) {
	loan := twoInstallmentLoan()

	outcome, err := ApplyPayment(loan, nil, ApplyPaymentCommand{InstallmentNumber: 2, Payment: pay("1000"), Now: now})
	require.NoError(t, err)

	assert.Equal(t, domain.InstallmentStatusPending, loan.InstallmentPlan[1].Status)
	assert.True(t, loan.InstallmentPlan[1].PaidAmount.IsZero())
	assert.Nil(t, loan.InstallmentPlan[1].PaymentDate)
	assert.Equal(t, 0, loan.PaidInstallments)
	assert.Equal(t, 1, outcome.Loan.PaidInstallments)
}

func TestApplyPayment_PartialPaymentsMergeIntoOneRecord(t *testing.T) {
	first, err := ApplyPayment(twoInstallmentLoan(), nil, ApplyPaymentCommand{InstallmentNumber: 1, Payment: pay("600"), Now: now})
	require.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPartiallyPaid, first.Record.Status)
	assert.Equal(t, "600.00", first.Record.CumulativeAmount.StringFixed(2))

	later := now.Add(time.Hour)
	second, err := ApplyPayment(first.Loan, &first.Record, ApplyPaymentCommand{InstallmentNumber: 1, Payment: pay("400"), Now: later})
	require.NoError(t, err)

	assert.False(t, second.IsPartialPayment)
	assert.Equal(t, first.Record.ID, second.Record.ID)
	assert.Equal(t, 2, second.Record.PaymentCount)
	assert.Equal(t, "1000.00", second.Record.CumulativeAmount.StringFixed(2))
	assert.Equal(t, "800.00", second.Record.PrincipalPaid.StringFixed(2))
	assert.Equal(t, "200.00", second.Record.InterestPaid.StringFixed(2))
	assert.Equal(t, domain.InstallmentStatusPaid, second.Record.Status)
	assert.Equal(t, now, second.Record.CreatedAt)
	assert.Equal(t, later, second.Record.UpdatedAt)

	// the first record value is untouched
	assert.Equal(t, 1, first.Record.PaymentCount)
}

func TestApplyPayment_AggregatesAndCompletion(t *testing.T) {
	loan := twoInstallmentLoan()
	records := map[int]*domain.PaymentRecord{}

	steps := []struct {
		installment int
		amount      string
	}{
		{installment: 2, amount: "250"},
		{installment: 1, amount: "1000"},
		{installment: 2, amount: "300"},
		{installment: 2, amount: "450"},
	}

	for i, step := range steps {
		outcome, err := ApplyPayment(loan, records[step.installment], ApplyPaymentCommand{
			InstallmentNumber: step.installment,
			Payment:           pay(step.amount),
			Now:               now,
		})
		require.NoError(t, err, "step %d", i)
		loan = outcome.Loan
		record := outcome.Record
		records[step.installment] = &record

		sum := decimal.Zero
		paid := 0
		for _, inst := range loan.InstallmentPlan {
			sum = sum.Add(inst.RemainingAmount)
			if inst.Status == domain.InstallmentStatusPaid {
				paid++
			}
		}
		assert.True(t, utils.WithinTolerance(loan.RemainingAmount, sum), "step %d", i)
		assert.Equal(t, paid, loan.PaidInstallments, "step %d", i)

		if i < len(steps)-1 {
			assert.Equal(t, domain.LoanStatusActive, loan.Status, "step %d", i)
		}
	}

	assert.Equal(t, domain.LoanStatusCompleted, loan.Status)
	assert.Equal(t, 2, loan.PaidInstallments)
	assert.True(t, loan.RemainingAmount.IsZero())
	assert.Equal(t, 3, records[2].PaymentCount)
}

func TestApplyPayment_PriceScenario(t *testing.T) {
	plan, err := amortization.Price(amortization.Terms{
		Principal: dec("1000"), Installments: 12, RatePercent: dec("2.5"), StartDate: loanStart,
	})
	require.NoError(t, err)

	loan := domain.Loan{
		ID: "PRICE-1", Amount: dec("1000"), InterestRate: dec("2.5"), Installments: 12,
		StartDate: loanStart, Status: domain.LoanStatusActive, InstallmentPlan: plan,
	}

	data := domain.PaymentData{PaymentDate: paymentDate, PrincipalPaid: dec("72.49"), InterestPaid: dec("25"), TotalPaid: dec("97.49")}
	outcome, err := ApplyPayment(loan, nil, ApplyPaymentCommand{InstallmentNumber: 1, Payment: data, Now: now})
	require.NoError(t, err)

	first := outcome.Loan.InstallmentPlan[0]
	assert.Equal(t, domain.InstallmentStatusPaid, first.Status)
	assert.True(t, first.RemainingAmount.IsZero())
	assert.False(t, outcome.IsPartialPayment)
	assert.False(t, outcome.IsOverpayment)
	assert.Equal(t, 1, outcome.Loan.PaidInstallments)
	assert.Equal(t, "1072.35", outcome.Loan.RemainingAmount.StringFixed(2))
}

func TestApplyPayment_LegacyLoanWithoutPlan(t *testing.T) {
	loan := domain.Loan{
		ID: "LEGACY-1", Amount: dec("1000"), InterestRate: dec("2.5"), Installments: 12,
		StartDate: loanStart, Status: domain.LoanStatusActive, PaidInstallments: 2,
	}

	outcome, err := ApplyPayment(loan, nil, ApplyPaymentCommand{InstallmentNumber: 3, Payment: pay("97.49"), Now: now})
	require.NoError(t, err)

	assert.Len(t, outcome.Loan.InstallmentPlan, 12)
	assert.Equal(t, 3, outcome.Loan.PaidInstallments)
	assert.Equal(t, domain.InstallmentStatusPaid, outcome.Loan.InstallmentPlan[2].Status)
	assert.False(t, loan.HasPlan())

	_, err = ApplyPayment(loan, nil, ApplyPaymentCommand{InstallmentNumber: 1, Payment: pay("97.49"), Now: now})
	assert.True(t, errors.Is(err, customError.ErrNothingToPay))
}
