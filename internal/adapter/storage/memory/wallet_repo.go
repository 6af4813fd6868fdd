package memory

import (
	"context"
	"fmt"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	s *Store
}

func NewWalletRepo(s *Store) *WalletRepo {
	return &WalletRepo{s: s}
}

func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	sk := seedKey{creator: w.Creator, seed: w.Seed}

	r.s.mu.RLock()
	_, handleTaken := r.s.wallets[w.Handle]
	_, seedTaken := r.s.seeds[sk]
	r.s.mu.RUnlock()
	if handleTaken || seedTaken {
		return fmt.Errorf("%w: %s", domain.ErrHandleCollision, w.Handle.Hex())
	}

	stored := w.Clone()
	r.s.write(tx, func() {
		r.s.wallets[w.Handle] = stored
		r.s.seeds[sk] = w.Handle
	}, func() {
		delete(r.s.wallets, w.Handle)
		delete(r.s.seeds, sk)
	})
	return nil
}

func (r *WalletRepo) GetByHandle(ctx context.Context, handle common.Address) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.wallets[handle]
	if !ok {
		return nil, nil
	}
	return w.Clone(), nil
}

// GetByHandleForUpdate needs no row lock: the open transaction already holds
// the store.
func (r *WalletRepo) GetByHandleForUpdate(ctx context.Context, tx pgx.Tx, handle common.Address) (*domain.Wallet, error) {
	return r.GetByHandle(ctx, handle)
}

func (r *WalletRepo) Update(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.s.mu.RLock()
	prev, ok := r.s.wallets[w.Handle]
	r.s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("update wallet: %s not found", w.Handle.Hex())
	}

	next := w.Clone()
	// creator and seed are immutable
	next.Creator, next.Seed, next.CreatedAt = prev.Creator, prev.Seed, prev.CreatedAt
	r.s.write(tx, func() {
		r.s.wallets[w.Handle] = next
	}, func() {
		r.s.wallets[w.Handle] = prev
	})
	return nil
}
