package service

import (
	"context"
	"io"
	"testing"

	"multisig-registry/internal/core/domain"
	"multisig-registry/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	alice        = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob          = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol        = common.HexToAddress("0x00000000000000000000000000000000000ca201")
	dave         = common.HexToAddress("0x000000000000000000000000000000000000da7e")
	erin         = common.HexToAddress("0x00000000000000000000000000000000000e2140")
	outsider     = common.HexToAddress("0x0000000000000000000000000000000000000bad")
	walletHandle = common.HexToAddress("0x5a11e7000000000000000000000000000000beef")
	destination  = common.HexToAddress("0x000000000000000000000000000000000000d357")
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// mockTx implements pgx.Tx for testing
type mockTx struct {
	pgx.Tx
	committed bool
}

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error {
	m.committed = true
	return nil
}

func testWallet(required int, members ...domain.Member) *domain.Wallet {
	return &domain.Wallet{
		Handle:   walletHandle,
		Name:     "treasury",
		Creator:  alice,
		Seed:     1,
		Members:  members,
		Required: required,
	}
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok, "expected *apperror.AppError, got %T: %v", err, err)
	require.Equal(t, expectedCode, appErr.Code)
}
