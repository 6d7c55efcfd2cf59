package common

import (
	"errors"
	"net/http"
)

// ErrorCode classifies an AppError. Every failure surfaced by the market
// falls into exactly one of these classes.
type ErrorCode string

const (
	// CodeValidation covers malformed input: empty strings, non-positive
	// distance, out-of-range rating values.
	CodeValidation ErrorCode = "validation"
	// CodeAuthorization covers callers lacking the required identity or role
	// relationship for the operation.
	CodeAuthorization ErrorCode = "authorization"
	// CodeState covers operations attempted from a ride status that forbids
	// them, including double registration and double rating.
	CodeState ErrorCode = "state"
	// CodeResource covers unknown ride identifiers, unregistered identities
	// and inactive drivers.
	CodeResource ErrorCode = "resource"
	// CodePayment covers insufficient funds offered at completion and
	// transfer failures during settlement.
	CodePayment ErrorCode = "payment"
	// CodeInternal covers everything that is the service's own fault.
	CodeInternal ErrorCode = "internal"
)

// AppError is the error type every operation returns on failure. The whole
// operation aborts with no partial state change; the code tells the caller
// which class of condition to correct before reissuing the call.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error class to a transport status code.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeState:
		return http.StatusConflict
	case CodeResource:
		return http.StatusNotFound
	case CodePayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewAuthorizationError reports a caller lacking the required relationship.
func NewAuthorizationError(message string) *AppError {
	return &AppError{Code: CodeAuthorization, Message: message}
}

// NewStateError reports an operation forbidden by the current status.
func NewStateError(message string) *AppError {
	return &AppError{Code: CodeState, Message: message}
}

// NewResourceError reports an unknown or unusable record.
func NewResourceError(message string) *AppError {
	return &AppError{Code: CodeResource, Message: message}
}

// NewPaymentError reports a failed or insufficient payment.
func NewPaymentError(message string) *AppError {
	return &AppError{Code: CodePayment, Message: message}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
