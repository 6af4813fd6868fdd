package postgres

import (
	"context"
	"fmt"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
)

// EventRepo implements ports.EventRepository.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	var txID *int64
	if e.TransactionID != nil {
		v := int64(*e.TransactionID)
		txID = &v
	}
	var member []byte
	if e.Member != nil {
		member = e.Member.Bytes()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO events (id, type, wallet, transaction_id, member, change, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, string(e.Type), e.Wallet, txID, member, string(e.Change), e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByWallet returns a wallet's events oldest first.
func (r *EventRepo) ListByWallet(ctx context.Context, wallet common.Address, offset, limit int) ([]domain.Event, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE wallet = $1`, wallet).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, type, wallet, transaction_id, member, change, detail, created_at
		 FROM events WHERE wallet = $1
		 ORDER BY seq ASC
		 LIMIT $2 OFFSET $3`,
		wallet, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e      domain.Event
			typ    string
			txID   *int64
			member []byte
			change string
		)
		if err := rows.Scan(&e.ID, &typ, &e.Wallet, &txID, &member, &change, &e.Detail, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		e.Type = domain.EventType(typ)
		e.Change = domain.MembershipChange(change)
		if txID != nil {
			v := uint64(*txID)
			e.TransactionID = &v
		}
		if len(member) > 0 {
			m := common.BytesToAddress(member)
			e.Member = &m
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
