package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation            = errors.New("validation failed")
	ErrLoanNotFound          = errors.New("loan not found")
	ErrLoanAlreadyExists     = errors.New("loan already exists")
	ErrInstallmentNotFound   = errors.New("installment not found")
	ErrNothingToPay          = errors.New("installment has no remaining amount to pay")
	ErrInstallmentHasPayment = errors.New("installment already has payments")
	ErrInvalidTerms          = errors.New("invalid loan terms")
	ErrPersistence           = errors.New("persistence failed")
	ErrVersionConflict       = errors.New("loan was modified concurrently")
	ErrClientNotFound        = errors.New("client not found")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeLoanNotFound          = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists     = "LOAN_ALREADY_EXISTS"
	ErrCodeInstallmentNotFound   = "INSTALLMENT_NOT_FOUND"
	ErrCodeNothingToPay          = "NOTHING_TO_PAY"
	ErrCodeInstallmentHasPayment = "INSTALLMENT_HAS_PAYMENT"
	ErrCodeInvalidTerms          = "INVALID_TERMS"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeVersionConflict       = "VERSION_CONFLICT"
	ErrCodeClientNotFound        = "CLIENT_NOT_FOUND"
)

// Kind groups error codes into the categories callers act on.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindPersistence Kind = "persistence"
	KindUnknown     Kind = "unknown"
)

// KindOf classifies err. Errors that are not BusinessErrors are KindUnknown.
func KindOf(err error) Kind {
	var be *BusinessError
	if !errors.As(err, &be) {
		return KindUnknown
	}

	switch be.Code {
	case ErrCodeValidation, ErrCodeInvalidTerms, ErrCodeInstallmentHasPayment:
		return KindValidation
	case ErrCodeLoanNotFound, ErrCodeInstallmentNotFound, ErrCodeNothingToPay, ErrCodeClientNotFound:
		return KindNotFound
	case ErrCodeLoanAlreadyExists, ErrCodeVersionConflict:
		return KindConflict
	case ErrCodeDatabaseError:
		return KindPersistence
	default:
		return KindUnknown
	}
}

// Wrap common errors with business context

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

func WrapInvalidTerms(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidTerms, message, ErrInvalidTerms)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapClientNotFound(clientID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClientNotFound,
		fmt.Sprintf("Client with ID %s has no loans", clientID),
		ErrClientNotFound,
	)
}

func WrapLoanAlreadyExists(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("Loan with ID %s already exists", loanID),
		ErrLoanAlreadyExists,
	)
}

func WrapInstallmentNotFound(loanID string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment %d not found on loan %s", number, loanID),
		ErrInstallmentNotFound,
	)
}

func WrapNothingToPay(loanID string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeNothingToPay,
		fmt.Sprintf("Installment %d on loan %s has no remaining amount to pay", number, loanID),
		ErrNothingToPay,
	)
}

func WrapInstallmentHasPayment(loanID string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentHasPayment,
		fmt.Sprintf("Installment %d on loan %s already has payments and cannot be edited", number, loanID),
		ErrInstallmentHasPayment,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		errors.Join(ErrPersistence, err),
	)
}

func WrapVersionConflict(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeVersionConflict,
		fmt.Sprintf("Loan with ID %s was modified by another operation, retry the request", loanID),
		ErrVersionConflict,
	)
}
