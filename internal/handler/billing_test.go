package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/handler"
	"github.com/segyhp/installment-engine/internal/service/mocks"
	customError "github.com/segyhp/installment-engine/pkg/errors"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(svc *mocks.MockBillingService) *mux.Router {
	r := mux.NewRouter()
	handler.NewBillingHandler(svc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestBillingHandler_CreateLoan(t *testing.T) {
	svc := mocks.NewMockBillingService()
	created := &domain.CreateLoanResponse{
		Loan: &domain.Loan{ID: "loan-1", ClientID: "client-1", Status: domain.LoanStatusActive},
	}
	svc.On("CreateLoan", mock.Anything, mock.MatchedBy(func(req *domain.CreateLoanRequest) bool {
		return req.ClientID == "client-1" &&
			req.Amount.Equal(decimal.NewFromInt(1000)) &&
			req.Installments == 3 &&
			req.Method == domain.MethodSAC
	})).Return(created, nil).Once()

	body := `{"client_id":"client-1","amount":"1000","interest_rate":"2","installments":3,"method":"sac","start_date":"2024-01-01T00:00:00Z"}`
	w, env := do(t, newRouter(svc), http.MethodPost, "/api/v1/loans", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	var got domain.CreateLoanResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "loan-1", got.Loan.ID)
	svc.AssertExpectations(t)
}

func TestBillingHandler_CreateLoan_InvalidBody(t *testing.T) {
	svc := mocks.NewMockBillingService()

	w, env := do(t, newRouter(svc), http.MethodPost, "/api/v1/loans", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	svc.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything)
}

func TestBillingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", customError.WrapValidation("bad input"), http.StatusBadRequest, customError.ErrCodeValidation},
		{"invalid terms", customError.WrapInvalidTerms("no preset"), http.StatusBadRequest, customError.ErrCodeInvalidTerms},
		{"loan not found", customError.WrapLoanNotFound("loan-1"), http.StatusNotFound, customError.ErrCodeLoanNotFound},
		{"version conflict", customError.WrapVersionConflict("loan-1"), http.StatusConflict, customError.ErrCodeVersionConflict},
		{"database", customError.WrapDatabaseError(errors.New("disk full")), http.StatusInternalServerError, customError.ErrCodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockBillingService()
			svc.On("GetLoan", mock.Anything, "loan-1").Return(nil, tt.err).Once()

			w, env := do(t, newRouter(svc), http.MethodGet, "/api/v1/loans/loan-1", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}

func TestBillingHandler_UnexpectedErrorIsHidden(t *testing.T) {
	svc := mocks.NewMockBillingService()
	svc.On("GetSchedule", mock.Anything, "loan-1").Return(nil, errors.New("boom")).Once()

	w, env := do(t, newRouter(svc), http.MethodGet, "/api/v1/loans/loan-1/schedule", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.False(t, env.Success)
}

func TestBillingHandler_ProcessPayment(t *testing.T) {
	svc := mocks.NewMockBillingService()
	result := &domain.PaymentResult{
		Success:          true,
		IsPartialPayment: true,
		ExcessAmount:     decimal.Zero,
	}
	paymentDate := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	svc.On("ProcessPayment", mock.Anything, "loan-1", 2, mock.MatchedBy(func(data domain.PaymentData) bool {
		return data.TotalPaid.Equal(decimal.NewFromInt(500)) &&
			data.PaymentDate.Equal(paymentDate) &&
			data.PenaltyPaid == nil
	})).Return(result, nil).Once()

	body := `{"payment_date":"2024-05-20T00:00:00Z","principal_paid":"400","interest_paid":"100","total_paid":"500"}`
	w, env := do(t, newRouter(svc), http.MethodPost, "/api/v1/loans/loan-1/installments/2/payments", body)

	assert.Equal(t, http.StatusOK, w.Code)
	var got domain.PaymentResult
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.IsPartialPayment)
	svc.AssertExpectations(t)
}

func TestBillingHandler_ProcessPayment_NothingToPayIsConflict(t *testing.T) {
	svc := mocks.NewMockBillingService()
	svc.On("ProcessPayment", mock.Anything, "loan-1", 1, mock.Anything).
		Return(nil, customError.WrapNothingToPay("loan-1", 1)).Once()

	body := `{"payment_date":"2024-05-20T00:00:00Z","principal_paid":"1","interest_paid":"0","total_paid":"1"}`
	w, env := do(t, newRouter(svc), http.MethodPost, "/api/v1/loans/loan-1/installments/1/payments", body)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, customError.ErrCodeNothingToPay, env.Code)
}

func TestBillingHandler_InvalidInstallmentNumber(t *testing.T) {
	for _, number := range []string{"abc", "0", "-1"} {
		t.Run(number, func(t *testing.T) {
			svc := mocks.NewMockBillingService()

			w, env := do(t, newRouter(svc), http.MethodPut, "/api/v1/loans/loan-1/installments/"+number, `{}`)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, customError.ErrCodeValidation, env.Code)
			svc.AssertNotCalled(t, "EditInstallment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBillingHandler_EditInstallment(t *testing.T) {
	svc := mocks.NewMockBillingService()
	updated := &domain.Loan{ID: "loan-1", Version: 5}
	svc.On("EditInstallment", mock.Anything, "loan-1", 2, mock.MatchedBy(func(req *domain.EditInstallmentRequest) bool {
		return req.PrincipalAmount != nil && req.PrincipalAmount.Equal(decimal.NewFromInt(1000))
	})).Return(updated, nil).Once()

	w, env := do(t, newRouter(svc), http.MethodPut, "/api/v1/loans/loan-1/installments/2", `{"principal_amount":"1000"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var got domain.Loan
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 5, got.Version)
	svc.AssertExpectations(t)
}

func TestBillingHandler_EditInstallment_HasPaymentIsConflict(t *testing.T) {
	svc := mocks.NewMockBillingService()
	svc.On("EditInstallment", mock.Anything, "loan-1", 1, mock.Anything).
		Return(nil, customError.WrapInstallmentHasPayment("loan-1", 1)).Once()

	w, env := do(t, newRouter(svc), http.MethodPut, "/api/v1/loans/loan-1/installments/1", `{"interest_amount":"10"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, customError.ErrCodeInstallmentHasPayment, env.Code)
}

func TestBillingHandler_ClientMetrics(t *testing.T) {
	svc := mocks.NewMockBillingService()
	metrics := &domain.ClientMetrics{ClientID: "client-1", TotalLoans: 2, TotalPaid: decimal.NewFromInt(1980)}
	svc.On("GetClientMetrics", mock.Anything, "client-1").Return(metrics, nil).Once()
	svc.On("RefreshClientMetrics", mock.Anything, "client-1").Return(metrics, nil).Once()
	r := newRouter(svc)

	w, env := do(t, r, http.MethodGet, "/api/v1/clients/client-1/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var got domain.ClientMetrics
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 2, got.TotalLoans)
	assert.True(t, got.TotalPaid.Equal(decimal.NewFromInt(1980)))

	w, _ = do(t, r, http.MethodPost, "/api/v1/clients/client-1/metrics/refresh", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestBillingHandler_PreviewAndSummary(t *testing.T) {
	svc := mocks.NewMockBillingService()
	svc.On("PreviewSchedule", mock.Anything, mock.MatchedBy(func(req *domain.PreviewScheduleRequest) bool {
		return req.Method == domain.MethodPreset && req.Installments == 3
	})).Return(&domain.ScheduleResponse{Method: "preset", Total: "1500.00"}, nil).Once()
	svc.On("GetFinancialSummary", mock.Anything).Return(&domain.FinancialSummary{LoanCount: 4}, nil).Once()
	svc.On("GetLoanMetrics", mock.Anything, "loan-1").Return(&domain.CapitalInterestMetrics{}, nil).Once()
	r := newRouter(svc)

	w, env := do(t, r, http.MethodPost, "/api/v1/schedules/preview", `{"amount":"1000","interest_rate":"0","installments":3,"method":"preset"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(string(env.Data), `"total":"1500.00"`))

	w, env = do(t, r, http.MethodGet, "/api/v1/reports/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var summary domain.FinancialSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 4, summary.LoanCount)

	w, _ = do(t, r, http.MethodGet, "/api/v1/loans/loan-1/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestBillingHandler_MethodNotAllowed(t *testing.T) {
	svc := mocks.NewMockBillingService()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/loans/loan-1", nil)
	w := httptest.NewRecorder()

	newRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
