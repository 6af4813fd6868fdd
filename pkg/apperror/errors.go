package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError by code, so errors.Is(err, ErrNotMember()) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet & Registry (MSW) ----

func ErrInvalidThreshold(members, required int) *AppError {
	return New("MSW_001",
		fmt.Sprintf("Required confirmations %d invalid for %d members", required, members),
		http.StatusUnprocessableEntity)
}

func ErrDuplicateMember(member string) *AppError {
	return New("MSW_002", fmt.Sprintf("%s is already a member", member), http.StatusConflict)
}

func ErrNotMember(member string) *AppError {
	return New("MSW_003", fmt.Sprintf("%s is not a member", member), http.StatusForbidden)
}

func ErrUnknownTransaction(id uint64) *AppError {
	return New("MSW_004", fmt.Sprintf("Transaction %d not found", id), http.StatusNotFound)
}

func ErrAlreadyExecuted(id uint64) *AppError {
	return New("MSW_005", fmt.Sprintf("Transaction %d already executed", id), http.StatusConflict)
}

func ErrUnknownWallet(handle string) *AppError {
	return New("MSW_006", fmt.Sprintf("Wallet %s not found", handle), http.StatusNotFound)
}

func ErrPaginationOutOfRange(offset, count int64) *AppError {
	return New("MSW_007",
		fmt.Sprintf("Offset %d exceeds wallet count %d", offset, count),
		http.StatusBadRequest)
}

func ErrHandleCollision(handle string) *AppError {
	return New("MSW_008", fmt.Sprintf("Wallet %s already exists", handle), http.StatusConflict)
}

// ErrExecutionFailure describes a failed destination call. It is recorded on
// the transaction and published as an event, never returned from submit/confirm.
func ErrExecutionFailure(err error) *AppError {
	return Wrap("MSW_009", "Destination call failed", http.StatusBadGateway, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidSignature() *AppError {
	return New("AUTH_001", "Invalid signature", http.StatusUnauthorized)
}

func ErrChallengeExpired() *AppError {
	return New("AUTH_002", "Login challenge missing or expired", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
