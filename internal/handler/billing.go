package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/segyhp/installment-engine/internal/domain"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/response"
)

// BillingService is what the HTTP layer needs from the service layer
type BillingService interface {
	CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error)
	PreviewSchedule(ctx context.Context, request *domain.PreviewScheduleRequest) (*domain.ScheduleResponse, error)
	GetLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error)
	GetLoanMetrics(ctx context.Context, loanID string) (*domain.CapitalInterestMetrics, error)
	ProcessPayment(ctx context.Context, loanID string, installmentNumber int, data domain.PaymentData) (*domain.PaymentResult, error)
	EditInstallment(ctx context.Context, loanID string, installmentNumber int, request *domain.EditInstallmentRequest) (*domain.Loan, error)
	RefreshClientMetrics(ctx context.Context, clientID string) (*domain.ClientMetrics, error)
	GetClientMetrics(ctx context.Context, clientID string) (*domain.ClientMetrics, error)
	GetFinancialSummary(ctx context.Context) (*domain.FinancialSummary, error)
}

type BillingHandler struct {
	service BillingService
}

func NewBillingHandler(service BillingService) *BillingHandler {
	return &BillingHandler{service: service}
}

// RegisterRoutes mounts the API under r
func (h *BillingHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans", h.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}", h.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/schedule", h.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/metrics", h.GetLoanMetrics).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/installments/{number}/payments", h.ProcessPayment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/installments/{number}", h.EditInstallment).Methods(http.MethodPut)

	api.HandleFunc("/clients/{clientId}/metrics", h.GetClientMetrics).Methods(http.MethodGet)
	api.HandleFunc("/clients/{clientId}/metrics/refresh", h.RefreshClientMetrics).Methods(http.MethodPost)

	api.HandleFunc("/schedules/preview", h.PreviewSchedule).Methods(http.MethodPost)
	api.HandleFunc("/reports/summary", h.GetFinancialSummary).Methods(http.MethodGet)
}

// CreateLoan handles POST /api/v1/loans
func (h *BillingHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	created, err := h.service.CreateLoan(r.Context(), &request)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Created(w, created)
}

// PreviewSchedule handles POST /api/v1/schedules/preview
func (h *BillingHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var request domain.PreviewScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	schedule, err := h.service.PreviewSchedule(r.Context(), &request)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, schedule)
}

// GetLoan handles GET /api/v1/loans/{loanId}
func (h *BillingHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, loan)
}

// GetSchedule handles GET /api/v1/loans/{loanId}/schedule
func (h *BillingHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, schedule)
}

// GetLoanMetrics handles GET /api/v1/loans/{loanId}/metrics
func (h *BillingHandler) GetLoanMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetLoanMetrics(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, m)
}

// ProcessPayment handles POST /api/v1/loans/{loanId}/installments/{number}/payments
func (h *BillingHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	number, ok := installmentNumber(w, r)
	if !ok {
		return
	}

	var data domain.PaymentData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.service.ProcessPayment(r.Context(), mux.Vars(r)["loanId"], number, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, result)
}

// EditInstallment handles PUT /api/v1/loans/{loanId}/installments/{number}
func (h *BillingHandler) EditInstallment(w http.ResponseWriter, r *http.Request) {
	number, ok := installmentNumber(w, r)
	if !ok {
		return
	}

	var request domain.EditInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	loan, err := h.service.EditInstallment(r.Context(), mux.Vars(r)["loanId"], number, &request)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, loan)
}

// GetClientMetrics handles GET /api/v1/clients/{clientId}/metrics
func (h *BillingHandler) GetClientMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetClientMetrics(r.Context(), mux.Vars(r)["clientId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, m)
}

// RefreshClientMetrics handles POST /api/v1/clients/{clientId}/metrics/refresh
func (h *BillingHandler) RefreshClientMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.RefreshClientMetrics(r.Context(), mux.Vars(r)["clientId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, m)
}

// GetFinancialSummary handles GET /api/v1/reports/summary
func (h *BillingHandler) GetFinancialSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetFinancialSummary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, summary)
}

func installmentNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil || number <= 0 {
		response.Coded(w, http.StatusBadRequest, customError.ErrCodeValidation, "installment number must be a positive integer")
		return 0, false
	}
	return number, true
}

// writeServiceError maps business errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected service error")
		response.InternalServerError(w, "Internal server error", nil)
		return
	}

	status := http.StatusInternalServerError
	switch customError.KindOf(err) {
	case customError.KindValidation:
		status = http.StatusBadRequest
		if be.Code == customError.ErrCodeInstallmentHasPayment {
			status = http.StatusConflict
		}
	case customError.KindNotFound:
		status = http.StatusNotFound
		if be.Code == customError.ErrCodeNothingToPay {
			status = http.StatusConflict
		}
	case customError.KindConflict:
		status = http.StatusConflict
	case customError.KindPersistence:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("persistence failure")
	}

	response.Coded(w, status, be.Code, be.Message)
}
