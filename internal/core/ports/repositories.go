package ports

import (
	"context"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repositories return (nil, nil) when a row does not exist.

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByHandle(ctx context.Context, handle common.Address) (*domain.Wallet, error)
	GetByHandleForUpdate(ctx context.Context, tx pgx.Tx, handle common.Address) (*domain.Wallet, error)
	// Update persists members, required, metadata and the transaction counter.
	Update(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
}

// TransactionRepository defines persistence operations for wallet transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	Get(ctx context.Context, wallet common.Address, id uint64) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, wallet common.Address, id uint64) (*domain.Transaction, error)
	// Update persists confirmations and execution state. Immutable fields are never rewritten.
	Update(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	// RecordFailure stores the outcome of an execution attempt made after commit.
	RecordFailure(ctx context.Context, wallet common.Address, id uint64, reason string) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	Wallet common.Address
	Status *domain.TransactionStatus
	Offset int
	Limit  int
}

// RegistryRepository persists registry entries and the per-member wallet index.
type RegistryRepository interface {
	CreateEntry(ctx context.Context, tx pgx.Tx, entry *domain.RegistryEntry) error
	GetEntry(ctx context.Context, wallet common.Address) (*domain.RegistryEntry, error)
	UpdateMetadata(ctx context.Context, tx pgx.Tx, wallet common.Address, name, description string) error
	IndexMember(ctx context.Context, tx pgx.Tx, member domain.Member, wallet common.Address) error
	UnindexMember(ctx context.Context, tx pgx.Tx, member domain.Member, wallet common.Address) error
	CountForMember(ctx context.Context, member domain.Member) (int64, error)
	// ListForMember returns entries in the member's join order.
	ListForMember(ctx context.Context, member domain.Member, offset, limit int) ([]domain.RegistryEntry, error)
}

// EventRepository is the durable event log.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	ListByWallet(ctx context.Context, wallet common.Address, offset, limit int) ([]domain.Event, int64, error)
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// AuditRepository persists audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// WebhookRepository persists event webhook delivery attempts.
type WebhookRepository interface {
	Create(ctx context.Context, log *domain.WebhookDeliveryLog) error
	Update(ctx context.Context, log *domain.WebhookDeliveryLog) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) ([]domain.WebhookDeliveryLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
