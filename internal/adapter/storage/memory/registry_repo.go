package memory

import (
	"context"
	"fmt"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// RegistryRepo implements ports.RegistryRepository. Index rows are appended
// and flagged removed, never deleted, matching the postgres member_wallets
// table.
type RegistryRepo struct {
	s *Store
}

func NewRegistryRepo(s *Store) *RegistryRepo {
	return &RegistryRepo{s: s}
}

func (r *RegistryRepo) CreateEntry(ctx context.Context, tx pgx.Tx, e *domain.RegistryEntry) error {
	r.s.mu.RLock()
	_, exists := r.s.entries[e.Wallet]
	r.s.mu.RUnlock()
	if exists {
		return fmt.Errorf("insert registry entry: %s already registered", e.Wallet.Hex())
	}

	entry := *e
	r.s.write(tx, func() {
		r.s.entries[e.Wallet] = entry
	}, func() {
		delete(r.s.entries, e.Wallet)
	})
	return nil
}

func (r *RegistryRepo) GetEntry(ctx context.Context, wallet common.Address) (*domain.RegistryEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.entries[wallet]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *RegistryRepo) UpdateMetadata(ctx context.Context, tx pgx.Tx, wallet common.Address, name, description string) error {
	r.s.mu.RLock()
	prev, ok := r.s.entries[wallet]
	r.s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("update registry entry: %s not registered", wallet.Hex())
	}

	next := prev
	next.Name, next.Description = name, description
	r.s.write(tx, func() {
		r.s.entries[wallet] = next
	}, func() {
		r.s.entries[wallet] = prev
	})
	return nil
}

func (r *RegistryRepo) IndexMember(ctx context.Context, tx pgx.Tx, member domain.Member, wallet common.Address) error {
	r.s.mu.RLock()
	active := r.activeRow(member, wallet) >= 0
	r.s.mu.RUnlock()
	if active {
		return nil
	}

	r.s.write(tx, func() {
		r.s.index = append(r.s.index, indexRow{member: member, wallet: wallet})
	}, func() {
		r.s.index = r.s.index[:len(r.s.index)-1]
	})
	return nil
}

func (r *RegistryRepo) UnindexMember(ctx context.Context, tx pgx.Tx, member domain.Member, wallet common.Address) error {
	r.s.mu.RLock()
	i := r.activeRow(member, wallet)
	r.s.mu.RUnlock()
	if i < 0 {
		return nil
	}

	r.s.write(tx, func() {
		r.s.index[i].removed = true
	}, func() {
		r.s.index[i].removed = false
	})
	return nil
}

func (r *RegistryRepo) CountForMember(ctx context.Context, member domain.Member) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, row := range r.s.index {
		if row.member == member && !row.removed {
			n++
		}
	}
	return n, nil
}

func (r *RegistryRepo) ListForMember(ctx context.Context, member domain.Member, offset, limit int) ([]domain.RegistryEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var entries []domain.RegistryEntry
	for _, row := range r.s.index {
		if row.member != member || row.removed {
			continue
		}
		entries = append(entries, r.s.entries[row.wallet])
	}
	return page(entries, offset, limit), nil
}

// activeRow must be called with the data lock held.
func (r *RegistryRepo) activeRow(member domain.Member, wallet common.Address) int {
	for i, row := range r.s.index {
		if row.member == member && row.wallet == wallet && !row.removed {
			return i
		}
	}
	return -1
}
