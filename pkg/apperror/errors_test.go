package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("MSW_003", "not a member", http.StatusForbidden),
			expected: "[MSW_003] not a member",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, New("VAL_001", "test", http.StatusBadRequest).Unwrap())
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("confirm: %w", ErrNotMember("0x01"))

	assert.True(t, errors.Is(err, ErrNotMember("0x02")))
	assert.False(t, errors.Is(err, ErrDuplicateMember("0x01")))
}

func TestWalletErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidThreshold", ErrInvalidThreshold(2, 3), "MSW_001", 422},
		{"DuplicateMember", ErrDuplicateMember("0xa"), "MSW_002", 409},
		{"NotMember", ErrNotMember("0xa"), "MSW_003", 403},
		{"UnknownTransaction", ErrUnknownTransaction(7), "MSW_004", 404},
		{"AlreadyExecuted", ErrAlreadyExecuted(7), "MSW_005", 409},
		{"UnknownWallet", ErrUnknownWallet("0xw"), "MSW_006", 404},
		{"PaginationOutOfRange", ErrPaginationOutOfRange(5, 2), "MSW_007", 400},
		{"HandleCollision", ErrHandleCollision("0xw"), "MSW_008", 409},
		{"ExecutionFailure", ErrExecutionFailure(errors.New("revert")), "MSW_009", 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidSignature", ErrInvalidSignature(), "AUTH_001", 401},
		{"ChallengeExpired", ErrChallengeExpired(), "AUTH_002", 401},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
		{"RateLimit", ErrRateLimitExceeded(), "RATE_001", 429},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Transaction 3 already executed", ErrAlreadyExecuted(3).Message)
	assert.Equal(t, "Offset 4 exceeds wallet count 1", ErrPaginationOutOfRange(4, 1).Message)
	assert.Equal(t, "Required confirmations 3 invalid for 2 members", ErrInvalidThreshold(2, 3).Message)
}

func TestInternalError(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	err := InternalError(inner)
	assert.Equal(t, "SYS_001", err.Code)
	assert.Equal(t, 500, err.HTTPStatus)
	assert.True(t, errors.Is(err, inner))

	assert.Equal(t, "VAL_001", Validation("bad").Code)
}
