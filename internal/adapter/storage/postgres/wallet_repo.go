package postgres

import (
	"context"
	"errors"
	"fmt"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `handle, name, description, creator, seed::text, members, required, transaction_count, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. A duplicate handle or (creator, seed) maps to
// domain.ErrHandleCollision.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (handle, name, description, creator, seed, members, required, transaction_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10)`

	_, err := on(r.pool, tx).Exec(ctx, query,
		w.Handle, w.Name, w.Description, w.Creator, uintToText(w.Seed),
		membersToBytes(w.Members), w.Required, int64(w.TransactionCount),
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrHandleCollision, w.Handle.Hex())
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByHandle fetches a wallet without locking.
func (r *WalletRepo) GetByHandle(ctx context.Context, handle common.Address) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE handle = $1`
	w, err := scanWallet(r.pool.QueryRow(ctx, query, handle))
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// GetByHandleForUpdate fetches a wallet with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByHandleForUpdate(ctx context.Context, tx pgx.Tx, handle common.Address) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE handle = $1 FOR UPDATE`
	w, err := scanWallet(tx.QueryRow(ctx, query, handle))
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return w, nil
}

// Update persists the mutable wallet state.
func (r *WalletRepo) Update(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `UPDATE wallets
		SET name = $1, description = $2, members = $3, required = $4, transaction_count = $5, updated_at = $6
		WHERE handle = $7`

	tag, err := tx.Exec(ctx, query,
		w.Name, w.Description, membersToBytes(w.Members), w.Required,
		int64(w.TransactionCount), w.UpdatedAt, w.Handle,
	)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update wallet: %s not found", w.Handle.Hex())
	}
	return nil
}

// scanWallet returns (nil, nil) on no rows.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		w       domain.Wallet
		seed    string
		members [][]byte
		count   int64
	)
	err := row.Scan(
		&w.Handle, &w.Name, &w.Description, &w.Creator, &seed,
		&members, &w.Required, &count, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if w.Seed, err = textToUint(seed); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if w.Members, err = bytesToMembers(members); err != nil {
		return nil, err
	}
	w.TransactionCount = uint64(count)
	return &w, nil
}
