package service

import (
	"context"
	"fmt"
	"time"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"
	"multisig-registry/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// RegistryServiceImpl implements ports.RegistryService. It creates wallets
// through the WalletFactory and owns the discovery index.
type RegistryServiceImpl struct {
	registryRepo ports.RegistryRepository
	factory      ports.WalletFactory
	indexer      ports.MembershipNotifier
	deriver      ports.HandleDeriver
	publisher    ports.EventPublisher
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl.
func NewRegistryService(
	registryRepo ports.RegistryRepository,
	factory ports.WalletFactory,
	indexer ports.MembershipNotifier,
	deriver ports.HandleDeriver,
	publisher ports.EventPublisher,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *RegistryServiceImpl {
	return &RegistryServiceImpl{
		registryRepo: registryRepo,
		factory:      factory,
		indexer:      indexer,
		deriver:      deriver,
		publisher:    publisher,
		transactor:   transactor,
		log:          log,
	}
}

// Create instantiates a wallet at the handle derived from (creator, seed),
// records its registry entry and indexes every initial member, all in one
// storage transaction.
func (s *RegistryServiceImpl) Create(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	if req.Creator == (domain.Member{}) {
		return nil, apperror.Validation("creator is required")
	}
	if err := domain.ValidateMembership(req.Members, req.Required); err != nil {
		return nil, toAppError("validate members", err)
	}

	now := time.Now().UTC()
	w := &domain.Wallet{
		Handle:      s.deriver.Derive(req.Creator, req.Seed),
		Name:        req.Name,
		Description: req.Description,
		Creator:     req.Creator,
		Seed:        req.Seed,
		Members:     append([]domain.Member(nil), req.Members...),
		Required:    req.Required,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.factory.Instantiate(ctx, dbTx, w); err != nil {
		return nil, err
	}

	entry := w.Entry()
	if err := s.registryRepo.CreateEntry(ctx, dbTx, &entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create registry entry: %w", err))
	}

	events := []domain.Event{domain.NewInstantiationEvent(w.Handle, w.Creator)}
	for _, m := range w.Members {
		if err := s.indexer.OnMemberAdded(ctx, dbTx, w.Handle, m); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("index member: %w", err))
		}
		events = append(events, domain.NewMembershipChangedEvent(w.Handle, m, domain.MembershipAdded))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.publisher.Publish(ctx, events)

	s.log.Info().
		Str("wallet", w.Handle.Hex()).
		Str("creator", w.Creator.Hex()).
		Uint64("seed", w.Seed).
		Int("members", len(w.Members)).
		Int("required", w.Required).
		Msg("wallet created")

	return w, nil
}

// GetWalletsForMember returns the slice [offset, offset+limit) of the wallets
// member currently belongs to, in join order. An offset equal to the count
// yields an empty page; a larger one is out of range.
func (s *RegistryServiceImpl) GetWalletsForMember(ctx context.Context, member domain.Member, offset, limit int) ([]domain.RegistryEntry, error) {
	if offset < 0 || limit < 0 {
		return nil, apperror.Validation("offset and limit must not be negative")
	}

	count, err := s.registryRepo.CountForMember(ctx, member)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count member wallets: %w", err))
	}
	if int64(offset) > count {
		return nil, apperror.ErrPaginationOutOfRange(int64(offset), count)
	}
	if int64(offset) == count || limit == 0 {
		return []domain.RegistryEntry{}, nil
	}

	entries, err := s.registryRepo.ListForMember(ctx, member, offset, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list member wallets: %w", err))
	}
	if entries == nil {
		entries = []domain.RegistryEntry{}
	}
	return entries, nil
}

func (s *RegistryServiceImpl) GetNumberOfWalletsForMember(ctx context.Context, member domain.Member) (int64, error) {
	count, err := s.registryRepo.CountForMember(ctx, member)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("count member wallets: %w", err))
	}
	return count, nil
}

// GetWalletInfo returns the registry entry, creator included.
func (s *RegistryServiceImpl) GetWalletInfo(ctx context.Context, handle common.Address) (*domain.RegistryEntry, error) {
	entry, err := s.registryRepo.GetEntry(ctx, handle)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get registry entry: %w", err))
	}
	if entry == nil {
		return nil, apperror.ErrUnknownWallet(handle.Hex())
	}
	return entry, nil
}
