// Package memory is a process-local storage driver. It implements the same
// repository ports as the postgres package and serializes every storage
// transaction behind one lock, so it is suitable for tests and single-node
// demos only.
package memory

import (
	"context"
	"errors"
	"sync"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct {
	wallet common.Address
	id     uint64
}

type indexRow struct {
	member  domain.Member
	wallet  common.Address
	removed bool
}

// Store holds every table of the in-memory driver.
type Store struct {
	// sem is held by the open storage transaction.
	sem chan struct{}

	mu           sync.RWMutex
	wallets      map[common.Address]*domain.Wallet
	seeds        map[seedKey]common.Address
	transactions map[txKey]*domain.Transaction
	entries      map[common.Address]domain.RegistryEntry
	index        []indexRow
	events       []domain.Event
	idempotency  map[string]domain.IdempotencyLog
	audit        []domain.AuditLog
	webhooks     []domain.WebhookDeliveryLog
}

type seedKey struct {
	creator domain.Member
	seed    uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sem:          make(chan struct{}, 1),
		wallets:      make(map[common.Address]*domain.Wallet),
		seeds:        make(map[seedKey]common.Address),
		transactions: make(map[txKey]*domain.Transaction),
		entries:      make(map[common.Address]domain.RegistryEntry),
		idempotency:  make(map[string]domain.IdempotencyLog),
	}
}

// write applies a mutation under the data lock. When tx belongs to this
// store the undo func is journaled so Rollback can revert it.
func (s *Store) write(tx pgx.Tx, apply, undo func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply()
	if t, ok := tx.(*Tx); ok && t.store == s && undo != nil {
		t.undo = append(t.undo, undo)
	}
}

// Transactor implements ports.DBTransactor. Only one transaction is open at
// a time; Begin blocks until the previous one commits or rolls back.
type Transactor struct {
	store *Store
}

func NewTransactor(s *Store) *Transactor {
	return &Transactor{store: s}
}

func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	select {
	case t.store.sem <- struct{}{}:
		return &Tx{store: t.store}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Tx is a pgx.Tx over the in-memory store. Writes made through it are
// visible immediately and undone on Rollback. The SQL methods are no-ops.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

var errNested = errors.New("memory: nested transactions are not supported")

func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, errNested }

func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.undo = nil
	<-t.store.sem
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()
	t.undo = nil
	<-t.store.sem
	return nil
}

func (t *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *Tx) Conn() *pgx.Conn                                               { return nil }

// HealthCheck implements ports.HealthChecker; the store is always reachable.
type HealthCheck struct{}

func NewHealthCheck() *HealthCheck { return &HealthCheck{} }

func (h *HealthCheck) Name() string                   { return "memory" }
func (h *HealthCheck) Ping(ctx context.Context) error { return nil }

// page slices items like LIMIT/OFFSET.
func page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) || limit <= 0 {
		return nil
	}
	end := offset + min(limit, len(items)-offset)
	return items[offset:end]
}
