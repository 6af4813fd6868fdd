package postgres

import (
	"context"
	"math/big"
	"testing"
	"time"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction() *domain.Transaction {
	return &domain.Transaction{
		Wallet:        newTestWallet().Handle,
		ID:            7,
		Title:         "pay vendor",
		Description:   "invoice 12",
		Destination:   carol,
		Value:         big.NewInt(1_000_000),
		Payload:       []byte{0xca, 0xfe},
		Confirmations: []domain.Member{alice},
		SubmittedBy:   alice,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transactionColumnNames() []string {
	return []string{
		"wallet", "id", "title", "description", "destination", "value", "payload",
		"executed", "failure_reason", "confirmations", "submitted_by", "created_at", "executed_at",
	}
}

func addTransactionRow(rows *pgxmock.Rows, t *domain.Transaction) *pgxmock.Rows {
	return rows.AddRow(
		t.Wallet, int64(t.ID), t.Title, t.Description, t.Destination, t.Value.String(), t.Payload,
		t.Executed, t.FailureReason, membersToBytes(t.Confirmations), t.SubmittedBy, t.CreatedAt, t.ExecutedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallet_transactions").
		WithArgs(txn.Wallet, int64(7), txn.Title, txn.Description, txn.Destination,
			"1000000", txn.Payload, false, (*string)(nil),
			membersToBytes(txn.Confirmations), alice, txn.CreatedAt, (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, txn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()
	reason := "relay rejected call"
	txn.Executed = true
	txn.FailureReason = &reason

	mock.ExpectQuery("SELECT .+ FROM wallet_transactions WHERE wallet").
		WithArgs(txn.Wallet, int64(7)).
		WillReturnRows(addTransactionRow(pgxmock.NewRows(transactionColumnNames()), txn))

	result, err := repo.Get(context.Background(), txn.Wallet, 7)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, uint64(7), result.ID)
	assert.Equal(t, 0, big.NewInt(1_000_000).Cmp(result.Value))
	assert.Equal(t, []domain.Member{alice}, result.Confirmations)
	assert.Equal(t, domain.TransactionStatusFailed, result.Status())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM wallet_transactions").
		WithArgs(alice, int64(99)).
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.Get(context.Background(), alice, 99)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestTransactionRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()
	txn.Confirm(bob)
	txn.MarkExecuted(time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallet_transactions").
		WithArgs(true, (*string)(nil), membersToBytes([]domain.Member{alice, bob}), txn.ExecutedAt, txn.Wallet, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Update(context.Background(), tx, txn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_RecordFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	wallet := newTestWallet().Handle

	mock.ExpectExec("UPDATE wallet_transactions SET failure_reason").
		WithArgs("reverted", wallet, int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.RecordFailure(context.Background(), wallet, 2, "reverted"))

	mock.ExpectExec("UPDATE wallet_transactions SET failure_reason").
		WithArgs("reverted", wallet, int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.Error(t, repo.RecordFailure(context.Background(), wallet, 3, "reverted"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	first := newTestTransaction()
	first.ID = 0
	second := newTestTransaction()
	second.ID = 1

	pending := domain.TransactionStatusPending
	params := ports.TransactionListParams{Wallet: first.Wallet, Status: &pending, Offset: 0, Limit: 10}

	mock.ExpectQuery("SELECT COUNT.+ FROM wallet_transactions WHERE wallet = .+ AND NOT executed").
		WithArgs(first.Wallet).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	rows := pgxmock.NewRows(transactionColumnNames())
	addTransactionRow(rows, first)
	addTransactionRow(rows, second)
	mock.ExpectQuery("SELECT .+ FROM wallet_transactions WHERE .+ ORDER BY id ASC").
		WithArgs(first.Wallet, 10, 0).
		WillReturnRows(rows)

	txns, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, txns, 2)
	assert.Equal(t, uint64(0), txns[0].ID)
	assert.Equal(t, uint64(1), txns[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
