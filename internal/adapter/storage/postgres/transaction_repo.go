package postgres

import (
	"context"
	"errors"
	"fmt"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `wallet, id, title, description, destination, value::text, payload,
	executed, failure_reason, confirmations, submitted_by, created_at, executed_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a DB transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO wallet_transactions
		(wallet, id, title, description, destination, value, payload, executed, failure_reason, confirmations, submitted_by, created_at, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13)`

	_, err := on(r.pool, tx).Exec(ctx, query,
		t.Wallet, int64(t.ID), t.Title, t.Description, t.Destination,
		bigToText(t.Value), payloadBytes(t.Payload), t.Executed, t.FailureReason,
		membersToBytes(t.Confirmations), t.SubmittedBy, t.CreatedAt, t.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Get fetches a transaction by wallet and id. Returns nil, nil if not found.
func (r *TransactionRepo) Get(ctx context.Context, wallet common.Address, id uint64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE wallet = $1 AND id = $2`
	t, err := scanTransaction(r.pool.QueryRow(ctx, query, wallet, int64(id)))
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// GetForUpdate fetches a transaction with a row lock.
func (r *TransactionRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, wallet common.Address, id uint64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE wallet = $1 AND id = $2 FOR UPDATE`
	t, err := scanTransaction(tx.QueryRow(ctx, query, wallet, int64(id)))
	if err != nil {
		return nil, fmt.Errorf("lock transaction: %w", err)
	}
	return t, nil
}

// Update persists confirmations and execution state.
func (r *TransactionRepo) Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `UPDATE wallet_transactions
		SET executed = $1, failure_reason = $2, confirmations = $3, executed_at = $4
		WHERE wallet = $5 AND id = $6`

	tag, err := tx.Exec(ctx, query,
		t.Executed, t.FailureReason, membersToBytes(t.Confirmations), t.ExecutedAt,
		t.Wallet, int64(t.ID),
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction: %s/%d not found", t.Wallet.Hex(), t.ID)
	}
	return nil
}

// RecordFailure stores the reason an already-executed transaction's call failed.
func (r *TransactionRepo) RecordFailure(ctx context.Context, wallet common.Address, id uint64, reason string) error {
	query := `UPDATE wallet_transactions SET failure_reason = $1
		WHERE wallet = $2 AND id = $3 AND executed`

	tag, err := r.pool.Exec(ctx, query, reason, wallet, int64(id))
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record failure: %s/%d not executed", wallet.Hex(), id)
	}
	return nil
}

// List returns a page of a wallet's transactions by ascending id plus the
// total number matching the filter.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	where := `wallet = $1`
	if params.Status != nil {
		switch *params.Status {
		case domain.TransactionStatusPending:
			where += ` AND NOT executed`
		case domain.TransactionStatusExecuted:
			where += ` AND executed AND failure_reason IS NULL`
		case domain.TransactionStatusFailed:
			where += ` AND executed AND failure_reason IS NOT NULL`
		}
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions WHERE `+where, params.Wallet).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE ` + where +
		` ORDER BY id ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, params.Wallet, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, total, rows.Err()
}

// scanTransaction returns (nil, nil) on no rows.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t             domain.Transaction
		id            int64
		value         string
		confirmations [][]byte
	)
	err := row.Scan(
		&t.Wallet, &id, &t.Title, &t.Description, &t.Destination, &value, &t.Payload,
		&t.Executed, &t.FailureReason, &confirmations, &t.SubmittedBy, &t.CreatedAt, &t.ExecutedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.ID = uint64(id)
	if t.Value, err = textToBig(value); err != nil {
		return nil, err
	}
	if t.Confirmations, err = bytesToMembers(confirmations); err != nil {
		return nil, err
	}
	return &t, nil
}

// payload is NOT NULL; an empty call is stored as zero bytes.
func payloadBytes(p []byte) []byte {
	if p == nil {
		return []byte{}
	}
	return p
}
