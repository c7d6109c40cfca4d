package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/segyhp/installment-engine/internal/amortization"
	"github.com/segyhp/installment-engine/internal/cache"
	"github.com/segyhp/installment-engine/internal/config"
	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/ledger"
	"github.com/segyhp/installment-engine/internal/metrics"
	"github.com/segyhp/installment-engine/internal/payment"
	"github.com/segyhp/installment-engine/internal/repository"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
	"github.com/segyhp/installment-engine/pkg/validation"
)

type BillingService struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	MetricsRepo repository.ClientMetricsRepository
	cache       cache.LoanCache
	generator   *amortization.Generator
	validator   *validator.Validate
	locks       *keyedMutex
	now         func() time.Time
}

// NewBillingService wires the service. loanCache may be nil to disable caching.
func NewBillingService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	metricsRepo repository.ClientMetricsRepository,
	loanCache cache.LoanCache,
	config *config.Config,
) *BillingService {
	return &BillingService{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		MetricsRepo: metricsRepo,
		cache:       loanCache,
		generator:   amortization.NewGenerator(config.Business.RoundingStep, domain.AmortizationMethod(config.Business.DefaultMethod)),
		validator:   validation.New(),
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

// CreateLoan creates a loan with its installment plan, generated or manual
func (s *BillingService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	if err := s.validator.Struct(request); err != nil {
		return nil, customError.WrapValidation(validation.Message(err))
	}

	now := s.now()
	loanID := request.LoanID
	if loanID == "" {
		loanID = uuid.NewString()
	}

	// Check if loan already exists
	existing, err := s.LoanRepo.GetByID(ctx, loanID)
	if err == nil && existing != nil {
		return nil, customError.WrapLoanAlreadyExists(loanID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	startDate := request.StartDate
	if startDate.IsZero() {
		startDate = utils.DateOnly(now)
	}

	var (
		plan   []domain.Installment
		method = request.Method
	)
	if method == domain.MethodManual {
		if len(request.ManualPlan) != request.Installments {
			return nil, customError.WrapValidation("manual_plan must have one entry per installment")
		}
		plan, err = amortization.Manual(request.Amount, request.ManualPlan)
	} else {
		plan, method, err = s.generator.Generate(method, amortization.Terms{
			Principal:    request.Amount,
			Installments: request.Installments,
			RatePercent:  request.InterestRate,
			StartDate:    startDate,
		})
	}
	if err != nil {
		return nil, err
	}

	for i := range plan {
		plan[i].LoanID = loanID
	}
	ledger.RefreshStatuses(plan, now)

	total := amortization.PlanTotal(plan)
	loan := &domain.Loan{
		ID:              loanID,
		ClientID:        request.ClientID,
		Amount:          request.Amount,
		InterestRate:    request.InterestRate,
		Installments:    len(plan),
		Method:          method,
		StartDate:       startDate,
		EndDate:         plan[len(plan)-1].DueDate,
		TotalAmount:     total,
		Status:          domain.LoanStatusActive,
		RemainingAmount: total,
		CreatedAt:       now,
		UpdatedAt:       now,
		InstallmentPlan: plan,
	}
	ledger.RecalculateAggregates(loan)

	if err = s.LoanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	log.Info().
		Str("loan_id", loan.ID).
		Str("client_id", loan.ClientID).
		Str("method", string(loan.Method)).
		Str("total", loan.TotalAmount.StringFixed(2)).
		Msg("loan created")

	s.syncClientMetrics(ctx, loan.ClientID)

	return &domain.CreateLoanResponse{Loan: loan, Schedule: loan.InstallmentPlan}, nil
}

// PreviewSchedule generates a plan without persisting anything
func (s *BillingService) PreviewSchedule(ctx context.Context, request *domain.PreviewScheduleRequest) (*domain.ScheduleResponse, error) {
	if err := s.validator.Struct(request); err != nil {
		return nil, customError.WrapValidation(validation.Message(err))
	}

	startDate := request.StartDate
	if startDate.IsZero() {
		startDate = utils.DateOnly(s.now())
	}

	plan, method, err := s.generator.Generate(request.Method, amortization.Terms{
		Principal:    request.Amount,
		Installments: request.Installments,
		RatePercent:  request.InterestRate,
		StartDate:    startDate,
	})
	if err != nil {
		return nil, err
	}

	return &domain.ScheduleResponse{
		Method:   string(method),
		Total:    amortization.PlanTotal(plan).StringFixed(2),
		Schedule: plan,
	}, nil
}

// GetLoan returns a loan with its plan, from cache when possible
func (s *BillingService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	if s.cache != nil {
		loan, err := s.cache.Get(ctx, loanID)
		if err == nil {
			return loan, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("loan_id", loanID).Msg("loan cache read failed")
		}
	}

	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, loan); err != nil {
			log.Warn().Err(err).Str("loan_id", loanID).Msg("loan cache write failed")
		}
	}

	return loan, nil
}

// GetSchedule returns the loan's plan with time-derived statuses refreshed.
// Legacy loans without a stored plan get one rebuilt with the Price method.
func (s *BillingService) GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	view := loan.Clone()
	method := view.Method
	if !view.HasPlan() {
		if view.InstallmentPlan, err = ledger.LegacyPlan(view); err != nil {
			return nil, err
		}
		method = domain.MethodPrice
	}
	ledger.RefreshStatuses(view.InstallmentPlan, s.now())

	return &domain.ScheduleResponse{
		LoanID:   view.ID,
		Method:   string(method),
		Total:    amortization.PlanTotal(view.InstallmentPlan).StringFixed(2),
		Schedule: view.InstallmentPlan,
	}, nil
}

// GetLoanMetrics splits a loan into paid and pending capital and interest
func (s *BillingService) GetLoanMetrics(ctx context.Context, loanID string) (*domain.CapitalInterestMetrics, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	m := ledger.CapitalInterestMetrics(*loan)
	return &m, nil
}

// ProcessPayment applies a payment to one installment and commits it.
//
// Payments on the same loan are serialized; the commit is additionally
// version-checked so writers outside this process cannot be overwritten.
// Nothing is returned as updated unless the commit succeeded.
func (s *BillingService) ProcessPayment(ctx context.Context, loanID string, installmentNumber int, data domain.PaymentData) (*domain.PaymentResult, error) {
	unlock := s.locks.Lock(loanID)
	defer unlock()

	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	existing, err := s.PaymentRepo.FindRecord(ctx, loanID, installmentNumber)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	outcome, err := payment.ApplyPayment(*loan, existing, payment.ApplyPaymentCommand{
		InstallmentNumber: installmentNumber,
		Payment:           data,
		Now:               s.now(),
	})
	if err != nil {
		return nil, err
	}

	updated := outcome.Loan
	record := outcome.Record
	if err := s.LoanRepo.CommitPayment(ctx, &updated, &record); err != nil {
		log.Error().Err(err).Str("loan_id", loanID).Int("installment", installmentNumber).Msg("payment commit failed")
		return nil, s.persistenceError(loanID, err)
	}

	s.invalidate(ctx, loanID)

	log.Info().
		Str("loan_id", loanID).
		Int("installment", installmentNumber).
		Str("total_paid", data.TotalPaid.StringFixed(2)).
		Bool("partial", outcome.IsPartialPayment).
		Bool("overpayment", outcome.IsOverpayment).
		Str("loan_status", string(updated.Status)).
		Msg("payment processed")

	if outcome.IsOverpayment {
		log.Warn().
			Str("loan_id", loanID).
			Int("installment", installmentNumber).
			Str("excess", outcome.ExcessAmount.StringFixed(2)).
			Msg("overpayment recorded, excess not applied to other installments")
	}

	s.syncClientMetrics(ctx, updated.ClientID)

	return &domain.PaymentResult{
		Success:          true,
		UpdatedLoan:      &updated,
		Record:           &record,
		IsPartialPayment: outcome.IsPartialPayment,
		IsOverpayment:    outcome.IsOverpayment,
		ExcessAmount:     outcome.ExcessAmount,
	}, nil
}

// EditInstallment overrides amounts or due date of an installment without payments
func (s *BillingService) EditInstallment(ctx context.Context, loanID string, installmentNumber int, request *domain.EditInstallmentRequest) (*domain.Loan, error) {
	if err := s.validator.Struct(request); err != nil {
		return nil, customError.WrapValidation(validation.Message(err))
	}

	unlock := s.locks.Lock(loanID)
	defer unlock()

	loan, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	edited, err := payment.EditInstallment(*loan, payment.EditInstallmentCommand{
		InstallmentNumber: installmentNumber,
		PrincipalAmount:   request.PrincipalAmount,
		InterestAmount:    request.InterestAmount,
		DueDate:           request.DueDate,
		Now:               s.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.LoanRepo.SavePlan(ctx, &edited); err != nil {
		return nil, s.persistenceError(loanID, err)
	}

	s.invalidate(ctx, loanID)

	log.Info().Str("loan_id", loanID).Int("installment", installmentNumber).Msg("installment edited")

	s.syncClientMetrics(ctx, edited.ClientID)

	return &edited, nil
}

// RefreshClientMetrics rescans every loan of the client and stores the result
func (s *BillingService) RefreshClientMetrics(ctx context.Context, clientID string) (*domain.ClientMetrics, error) {
	loans, err := s.LoanRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if len(loans) == 0 {
		return nil, customError.WrapClientNotFound(clientID)
	}

	m := metrics.RecomputeClientMetrics(clientID, loans, s.now())
	if err := s.MetricsRepo.Save(ctx, &m); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &m, nil
}

// GetClientMetrics returns stored metrics, computing them on first access
func (s *BillingService) GetClientMetrics(ctx context.Context, clientID string) (*domain.ClientMetrics, error) {
	m, err := s.MetricsRepo.GetByClientID(ctx, clientID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	return s.RefreshClientMetrics(ctx, clientID)
}

// MarkOverdue persists the overdue status of unpaid installments past their
// due date on every active loan. It returns how many installments changed.
// A loan that changed concurrently is skipped and picked up on the next run.
func (s *BillingService) MarkOverdue(ctx context.Context) (int, error) {
	loans, err := s.LoanRepo.ListActive(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	now := s.now()
	marked := 0
	for _, loan := range loans {
		if !loan.HasPlan() {
			continue
		}

		n, err := s.markLoanOverdue(ctx, loan, now)
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				log.Warn().Str("loan_id", loan.ID).Msg("loan changed while marking overdue, skipped")
				continue
			}
			return marked, customError.WrapDatabaseError(err)
		}
		marked += n
	}

	log.Info().Int("loans", len(loans)).Int("installments", marked).Msg("overdue scan finished")

	return marked, nil
}

func (s *BillingService) markLoanOverdue(ctx context.Context, loan domain.Loan, now time.Time) (int, error) {
	unlock := s.locks.Lock(loan.ID)
	defer unlock()

	next := loan.Clone()
	changed := ledger.RefreshStatuses(next.InstallmentPlan, now)
	if len(changed) == 0 {
		return 0, nil
	}

	next.UpdatedAt = now
	if err := s.LoanRepo.SavePlan(ctx, &next); err != nil {
		return 0, err
	}
	s.invalidate(ctx, loan.ID)

	log.Debug().Str("loan_id", loan.ID).Ints("installments", changed).Msg("installments marked overdue")

	return len(changed), nil
}

// GetFinancialSummary aggregates capital and interest over the whole portfolio
func (s *BillingService) GetFinancialSummary(ctx context.Context) (*domain.FinancialSummary, error) {
	loans, err := s.LoanRepo.ListAll(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	summary := ledger.Summarize(loans)
	return &summary, nil
}

func (s *BillingService) loadLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByID(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func (s *BillingService) persistenceError(loanID string, err error) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return customError.WrapVersionConflict(loanID)
	case errors.Is(err, sql.ErrNoRows):
		return customError.WrapLoanNotFound(loanID)
	default:
		return customError.WrapDatabaseError(err)
	}
}

func (s *BillingService) invalidate(ctx context.Context, loanID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, loanID); err != nil {
		log.Warn().Err(err).Str("loan_id", loanID).Msg("loan cache invalidation failed")
	}
}

// syncClientMetrics recomputes and stores client metrics after a committed
// change. Failures are logged; the change itself already succeeded.
func (s *BillingService) syncClientMetrics(ctx context.Context, clientID string) {
	if _, err := s.RefreshClientMetrics(ctx, clientID); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("client metrics refresh failed")
	}
}
