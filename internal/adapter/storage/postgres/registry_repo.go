package postgres

import (
	"context"
	"errors"
	"fmt"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// RegistryRepo implements ports.RegistryRepository.
//
// member_wallets rows are never deleted: leaving sets removed_at, and a
// re-join inserts a fresh row so the member's order follows the BIGSERIAL id.
type RegistryRepo struct {
	pool Pool
}

// NewRegistryRepo creates a new RegistryRepo.
func NewRegistryRepo(pool Pool) *RegistryRepo {
	return &RegistryRepo{pool: pool}
}

func (r *RegistryRepo) CreateEntry(ctx context.Context, tx pgx.Tx, e *domain.RegistryEntry) error {
	_, err := on(r.pool, tx).Exec(ctx,
		`INSERT INTO registry_entries (wallet, name, description, creator, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.Wallet, e.Name, e.Description, e.Creator, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registry entry: %w", err)
	}
	return nil
}

// GetEntry returns nil, nil if the wallet was never registered.
func (r *RegistryRepo) GetEntry(ctx context.Context, wallet common.Address) (*domain.RegistryEntry, error) {
	var e domain.RegistryEntry
	err := r.pool.QueryRow(ctx,
		`SELECT wallet, name, description, creator, created_at FROM registry_entries WHERE wallet = $1`,
		wallet,
	).Scan(&e.Wallet, &e.Name, &e.Description, &e.Creator, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get registry entry: %w", err)
	}
	return &e, nil
}

func (r *RegistryRepo) UpdateMetadata(ctx context.Context, tx pgx.Tx, wallet common.Address, name, description string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE registry_entries SET name = $1, description = $2 WHERE wallet = $3`,
		name, description, wallet,
	)
	if err != nil {
		return fmt.Errorf("update registry entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update registry entry: %s not registered", wallet.Hex())
	}
	return nil
}

// IndexMember appends wallet to the member's list. Indexing an already
// indexed pair is a no-op.
func (r *RegistryRepo) IndexMember(ctx context.Context, tx pgx.Tx, member domain.Member, wallet common.Address) error {
	_, err := on(r.pool, tx).Exec(ctx,
		`INSERT INTO member_wallets (member, wallet, added_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (member, wallet) WHERE removed_at IS NULL DO NOTHING`,
		member, wallet,
	)
	if err != nil {
		return fmt.Errorf("index member: %w", err)
	}
	return nil
}

func (r *RegistryRepo) UnindexMember(ctx context.Context, tx pgx.Tx, member domain.Member, wallet common.Address) error {
	_, err := tx.Exec(ctx,
		`UPDATE member_wallets SET removed_at = now()
		 WHERE member = $1 AND wallet = $2 AND removed_at IS NULL`,
		member, wallet,
	)
	if err != nil {
		return fmt.Errorf("unindex member: %w", err)
	}
	return nil
}

func (r *RegistryRepo) CountForMember(ctx context.Context, member domain.Member) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM member_wallets WHERE member = $1 AND removed_at IS NULL`,
		member,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count member wallets: %w", err)
	}
	return n, nil
}

func (r *RegistryRepo) ListForMember(ctx context.Context, member domain.Member, offset, limit int) ([]domain.RegistryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.wallet, e.name, e.description, e.creator, e.created_at
		 FROM member_wallets mw
		 JOIN registry_entries e ON e.wallet = mw.wallet
		 WHERE mw.member = $1 AND mw.removed_at IS NULL
		 ORDER BY mw.id ASC
		 LIMIT $2 OFFSET $3`,
		member, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list member wallets: %w", err)
	}
	defer rows.Close()

	var entries []domain.RegistryEntry
	for rows.Next() {
		var e domain.RegistryEntry
		if err := rows.Scan(&e.Wallet, &e.Name, &e.Description, &e.Creator, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registry entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
