package memory

import (
	"context"
	"fmt"
	"sort"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	s *Store
}

func NewTransactionRepo(s *Store) *TransactionRepo {
	return &TransactionRepo{s: s}
}

func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	k := txKey{wallet: t.Wallet, id: t.ID}

	r.s.mu.RLock()
	_, exists := r.s.transactions[k]
	r.s.mu.RUnlock()
	if exists {
		return fmt.Errorf("insert transaction: %s/%d already exists", t.Wallet.Hex(), t.ID)
	}

	stored := t.Clone()
	r.s.write(tx, func() {
		r.s.transactions[k] = stored
	}, func() {
		delete(r.s.transactions, k)
	})
	return nil
}

func (r *TransactionRepo) Get(ctx context.Context, wallet common.Address, id uint64) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.transactions[txKey{wallet: wallet, id: id}]
	if !ok {
		return nil, nil
	}
	return t.Clone(), nil
}

func (r *TransactionRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, wallet common.Address, id uint64) (*domain.Transaction, error) {
	return r.Get(ctx, wallet, id)
}

func (r *TransactionRepo) Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	k := txKey{wallet: t.Wallet, id: t.ID}

	r.s.mu.RLock()
	prev, ok := r.s.transactions[k]
	r.s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("update transaction: %s/%d not found", t.Wallet.Hex(), t.ID)
	}

	next := prev.Clone()
	next.Executed = t.Executed
	next.FailureReason = t.FailureReason
	next.Confirmations = append([]domain.Member(nil), t.Confirmations...)
	next.ExecutedAt = t.ExecutedAt
	r.s.write(tx, func() {
		r.s.transactions[k] = next
	}, func() {
		r.s.transactions[k] = prev
	})
	return nil
}

func (r *TransactionRepo) RecordFailure(ctx context.Context, wallet common.Address, id uint64, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := txKey{wallet: wallet, id: id}
	t, ok := r.s.transactions[k]
	if !ok || !t.Executed {
		return fmt.Errorf("record failure: %s/%d is not an executed transaction", wallet.Hex(), id)
	}
	next := t.Clone()
	next.MarkFailed(reason)
	r.s.transactions[k] = next
	return nil
}

func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.s.mu.RLock()
	var matched []domain.Transaction
	for k, t := range r.s.transactions {
		if k.wallet != params.Wallet {
			continue
		}
		if params.Status != nil && t.Status() != *params.Status {
			continue
		}
		matched = append(matched, *t.Clone())
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return page(matched, params.Offset, params.Limit), int64(len(matched)), nil
}
