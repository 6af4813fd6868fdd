package service

import (
	"context"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// RegistryIndexer implements ports.MembershipNotifier: it keeps the
// per-member index and the registry entries in step with wallet membership.
// Wallets call it inside their own storage transaction.
type RegistryIndexer struct {
	repo ports.RegistryRepository
}

func NewRegistryIndexer(repo ports.RegistryRepository) *RegistryIndexer {
	return &RegistryIndexer{repo: repo}
}

func (i *RegistryIndexer) OnMemberAdded(ctx context.Context, tx pgx.Tx, wallet common.Address, member domain.Member) error {
	return i.repo.IndexMember(ctx, tx, member, wallet)
}

func (i *RegistryIndexer) OnMemberRemoved(ctx context.Context, tx pgx.Tx, wallet common.Address, member domain.Member) error {
	return i.repo.UnindexMember(ctx, tx, member, wallet)
}

func (i *RegistryIndexer) OnMetadataChanged(ctx context.Context, tx pgx.Tx, wallet common.Address, name, description string) error {
	return i.repo.UpdateMetadata(ctx, tx, wallet, name, description)
}
