package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"
	"multisig-registry/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// WalletServiceImpl implements ports.WalletService.
//
// Every mutation locks the wallet row first, so operations on one wallet are
// serialized by the storage transaction. Calls to external destinations and
// event publication happen after commit.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	eventRepo  ports.EventRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	codec      ports.GovernanceCodec
	notifier   ports.MembershipNotifier
	executor   ports.CallExecutor
	publisher  ports.EventPublisher
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	eventRepo ports.EventRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	codec ports.GovernanceCodec,
	notifier ports.MembershipNotifier,
	executor ports.CallExecutor,
	publisher ports.EventPublisher,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		eventRepo:  eventRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		codec:      codec,
		notifier:   notifier,
		executor:   executor,
		publisher:  publisher,
		transactor: transactor,
		log:        log,
	}
}

// outcome collects what a mutation produced: events to publish after commit
// and, when a non-self destination reached quorum, the call to hand off.
type outcome struct {
	events []domain.Event
	call   *domain.Call
}

// Instantiate validates and stores a new wallet inside the caller's storage
// transaction.
func (s *WalletServiceImpl) Instantiate(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	if err := w.Validate(); err != nil {
		return toAppError("validate wallet", err)
	}
	if err := s.walletRepo.Create(ctx, tx, w); err != nil {
		if errors.Is(err, domain.ErrHandleCollision) {
			return apperror.ErrHandleCollision(w.Handle.Hex())
		}
		return apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}
	return nil
}

// Submit proposes a transaction. The submitter's confirmation is recorded
// implicitly and execution is attempted immediately.
func (s *WalletServiceImpl) Submit(ctx context.Context, req ports.SubmitRequest) (*domain.Transaction, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, apperror.Validation("value must not be negative")
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildSubmissionIdempotencyKey(req.Wallet, req.Submitter, req.IdempotencyKey)
		txn, err := s.replay(ctx, idempKey)
		if err != nil || txn != nil {
			return txn, err
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.lockWallet(ctx, dbTx, req.Wallet)
	if err != nil {
		return nil, err
	}
	if !w.IsMember(req.Submitter) {
		return nil, apperror.ErrNotMember(req.Submitter.Hex())
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		Wallet:        w.Handle,
		ID:            w.NextTransactionID(),
		Title:         req.Title,
		Description:   req.Description,
		Destination:   req.Destination,
		Value:         value,
		Payload:       req.Payload,
		Confirmations: []domain.Member{req.Submitter},
		SubmittedBy:   req.Submitter,
		CreatedAt:     now,
	}
	w.UpdatedAt = now

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	if err := s.walletRepo.Update(ctx, dbTx, w); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}

	out := &outcome{events: []domain.Event{
		domain.NewSubmissionEvent(w.Handle, txn.ID),
		domain.NewConfirmationEvent(w.Handle, txn.ID, req.Submitter),
	}}
	if err := s.tryExecute(ctx, dbTx, w, txn, out); err != nil {
		return nil, err
	}

	var respJSON []byte
	if idempKey != "" {
		respJSON, err = json.Marshal(txn)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
		}
		if err := s.idempRepo.Create(ctx, dbTx, &domain.IdempotencyLog{
			Key:           idempKey,
			Wallet:        w.Handle,
			TransactionID: txn.ID,
			ResponseJSON:  respJSON,
			CreatedAt:     now,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.afterCommit(ctx, txn, out)

	s.log.Info().
		Str("wallet", w.Handle.Hex()).
		Uint64("tx_id", txn.ID).
		Str("destination", txn.Destination.Hex()).
		Str("submitter", req.Submitter.Hex()).
		Str("status", string(txn.Status())).
		Msg("transaction submitted")

	return txn, nil
}

// SubmitGovernance encodes op as a self-call payload and submits it.
func (s *WalletServiceImpl) SubmitGovernance(ctx context.Context, req ports.GovernanceRequest) (*domain.Transaction, error) {
	if req.Operation == nil {
		return nil, apperror.Validation("governance operation is required")
	}
	payload, err := s.codec.Encode(req.Operation)
	if err != nil {
		return nil, apperror.Validation(fmt.Sprintf("encode %s: %v", req.Operation.Kind(), err))
	}
	return s.Submit(ctx, ports.SubmitRequest{
		Wallet:         req.Wallet,
		Title:          req.Title,
		Description:    req.Description,
		Destination:    req.Wallet,
		Value:          new(big.Int),
		Payload:        payload,
		Submitter:      req.Submitter,
		IdempotencyKey: req.IdempotencyKey,
	})
}

// Confirm records member's confirmation and attempts execution.
func (s *WalletServiceImpl) Confirm(ctx context.Context, handle common.Address, id uint64, member domain.Member) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.lockWallet(ctx, dbTx, handle)
	if err != nil {
		return nil, err
	}
	txn, err := s.lockTransaction(ctx, dbTx, handle, id)
	if err != nil {
		return nil, err
	}
	if txn.Executed {
		return nil, apperror.ErrAlreadyExecuted(id)
	}
	if !w.IsMember(member) {
		return nil, apperror.ErrNotMember(member.Hex())
	}

	out := &outcome{}
	if txn.Confirm(member) {
		if err := s.txRepo.Update(ctx, dbTx, txn); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("update transaction: %w", err))
		}
		out.events = append(out.events, domain.NewConfirmationEvent(handle, id, member))
	}
	if err := s.tryExecute(ctx, dbTx, w, txn, out); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.afterCommit(ctx, txn, out)

	s.log.Info().
		Str("wallet", handle.Hex()).
		Uint64("tx_id", id).
		Str("member", member.Hex()).
		Str("status", string(txn.Status())).
		Msg("transaction confirmed")

	return txn, nil
}

// Revoke withdraws member's confirmation from an unexecuted transaction.
// Revoking a confirmation that was never given is a no-op.
func (s *WalletServiceImpl) Revoke(ctx context.Context, handle common.Address, id uint64, member domain.Member) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.lockWallet(ctx, dbTx, handle)
	if err != nil {
		return nil, err
	}
	if !w.IsMember(member) {
		return nil, apperror.ErrNotMember(member.Hex())
	}
	txn, err := s.lockTransaction(ctx, dbTx, handle, id)
	if err != nil {
		return nil, err
	}
	if txn.Executed {
		return nil, apperror.ErrAlreadyExecuted(id)
	}

	if !txn.Revoke(member) {
		return txn, nil
	}
	if err := s.txRepo.Update(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.publisher.Publish(ctx, []domain.Event{domain.NewRevocationEvent(handle, id, member)})

	s.log.Info().
		Str("wallet", handle.Hex()).
		Uint64("tx_id", id).
		Str("member", member.Hex()).
		Msg("confirmation revoked")

	return txn, nil
}

// Execute retries execution of a transaction, for instance after the
// membership shrank and the existing confirmations now reach quorum. Below
// quorum the transaction is returned unchanged.
func (s *WalletServiceImpl) Execute(ctx context.Context, handle common.Address, id uint64, member domain.Member) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.lockWallet(ctx, dbTx, handle)
	if err != nil {
		return nil, err
	}
	if !w.IsMember(member) {
		return nil, apperror.ErrNotMember(member.Hex())
	}
	txn, err := s.lockTransaction(ctx, dbTx, handle, id)
	if err != nil {
		return nil, err
	}
	if txn.Executed {
		return nil, apperror.ErrAlreadyExecuted(id)
	}

	out := &outcome{}
	if err := s.tryExecute(ctx, dbTx, w, txn, out); err != nil {
		return nil, err
	}
	if !txn.Executed {
		return txn, nil
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.afterCommit(ctx, txn, out)

	s.log.Info().
		Str("wallet", handle.Hex()).
		Uint64("tx_id", id).
		Str("member", member.Hex()).
		Str("status", string(txn.Status())).
		Msg("transaction executed")

	return txn, nil
}

// tryExecute executes txn when the current membership has confirmed it at
// least Required times. The executed flag is persisted before anything is
// invoked. Governance self-calls are applied in dbTx; other destinations are
// queued on out and called after commit.
func (s *WalletServiceImpl) tryExecute(ctx context.Context, dbTx pgx.Tx, w *domain.Wallet, txn *domain.Transaction, out *outcome) error {
	if txn.Executed || !txn.QuorumReached(w) {
		return nil
	}
	txn.MarkExecuted(time.Now().UTC())

	if txn.IsSelfCall() {
		events, err := s.applyGovernance(ctx, dbTx, w, txn)
		if err != nil {
			return err
		}
		out.events = append(out.events, events...)
	} else {
		call := txn.Call()
		out.call = &call
	}

	if err := s.txRepo.Update(ctx, dbTx, txn); err != nil {
		return apperror.InternalError(fmt.Errorf("mark executed: %w", err))
	}
	return nil
}

// applyGovernance decodes and applies a self-call. A payload that does not
// decode, or an operation that would break the membership invariants, leaves
// the wallet untouched and marks txn failed; only storage errors abort.
func (s *WalletServiceImpl) applyGovernance(ctx context.Context, dbTx pgx.Tx, w *domain.Wallet, txn *domain.Transaction) ([]domain.Event, error) {
	fail := func(err error) []domain.Event {
		reason := apperror.ErrExecutionFailure(err).Error()
		txn.MarkFailed(reason)
		s.log.Warn().
			Err(err).
			Str("wallet", w.Handle.Hex()).
			Uint64("tx_id", txn.ID).
			Msg("governance operation rejected")
		return []domain.Event{domain.NewExecutionFailureEvent(w.Handle, txn.ID, reason)}
	}

	op, err := s.codec.Decode(txn.Payload)
	if err != nil {
		return fail(fmt.Errorf("decode governance payload: %w", err)), nil
	}

	next := w.Clone()
	effect, err := op.Apply(next)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", op.Kind(), err)), nil
	}
	next.UpdatedAt = time.Now().UTC()

	if err := s.walletRepo.Update(ctx, dbTx, next); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}
	for _, m := range effect.Removed {
		if err := s.notifier.OnMemberRemoved(ctx, dbTx, w.Handle, m); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("unindex member: %w", err))
		}
	}
	for _, m := range effect.Added {
		if err := s.notifier.OnMemberAdded(ctx, dbTx, w.Handle, m); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("index member: %w", err))
		}
	}
	if effect.MetadataChanged {
		if err := s.notifier.OnMetadataChanged(ctx, dbTx, w.Handle, next.Name, next.Description); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("update registry metadata: %w", err))
		}
	}
	*w = *next

	s.log.Info().
		Str("wallet", w.Handle.Hex()).
		Uint64("tx_id", txn.ID).
		Str("operation", string(op.Kind())).
		Int("members", len(w.Members)).
		Int("required", w.Required).
		Msg("governance operation applied")

	events := domain.MembershipEvents(w, effect)
	return append(events, domain.NewExecutionEvent(w.Handle, txn.ID)), nil
}

// afterCommit performs the external call queued by tryExecute, if any, and
// publishes the events of the operation in order.
func (s *WalletServiceImpl) afterCommit(ctx context.Context, txn *domain.Transaction, out *outcome) {
	if out.call != nil {
		out.events = append(out.events, s.invoke(ctx, txn, *out.call))
	}
	if len(out.events) > 0 {
		s.publisher.Publish(ctx, out.events)
	}
}

// invoke calls the destination exactly once. The executed flag is already
// committed, so a failure is recorded on the transaction instead of being
// retried.
func (s *WalletServiceImpl) invoke(ctx context.Context, txn *domain.Transaction, call domain.Call) domain.Event {
	// the attempt must outlive a cancelled request
	callCtx := context.WithoutCancel(ctx)

	err := s.executor.Call(callCtx, call)
	if err == nil {
		return domain.NewExecutionEvent(call.Wallet, call.TransactionID)
	}

	reason := apperror.ErrExecutionFailure(err).Error()
	txn.MarkFailed(reason)
	if recErr := s.txRepo.RecordFailure(callCtx, call.Wallet, call.TransactionID, reason); recErr != nil {
		s.log.Error().
			Err(recErr).
			Str("wallet", call.Wallet.Hex()).
			Uint64("tx_id", call.TransactionID).
			Msg("failed to record execution failure")
	}
	s.log.Warn().
		Err(err).
		Str("wallet", call.Wallet.Hex()).
		Uint64("tx_id", call.TransactionID).
		Str("destination", call.Destination.Hex()).
		Msg("execution failed")
	return domain.NewExecutionFailureEvent(call.Wallet, call.TransactionID, reason)
}

// replay returns the transaction a previous submission with the same key
// created, checking redis first and the database log second.
func (s *WalletServiceImpl) replay(ctx context.Context, key string) (*domain.Transaction, error) {
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached == nil {
		idempLog, err := s.idempRepo.Get(ctx, key)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if idempLog == nil {
			return nil, nil
		}
		cached = idempLog.ResponseJSON
		if err := s.idempCache.Set(ctx, key, cached, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to warm idempotency cache")
		}
	}

	var prior domain.Transaction
	if err := json.Unmarshal(cached, &prior); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transaction: %w", err))
	}
	// the cached copy predates later confirmations
	current, err := s.txRepo.Get(ctx, prior.Wallet, prior.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if current == nil {
		return &prior, nil
	}
	return current, nil
}

func (s *WalletServiceImpl) lockWallet(ctx context.Context, dbTx pgx.Tx, handle common.Address) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByHandleForUpdate(ctx, dbTx, handle)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrUnknownWallet(handle.Hex())
	}
	return w, nil
}

func (s *WalletServiceImpl) lockTransaction(ctx context.Context, dbTx pgx.Tx, handle common.Address, id uint64) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetForUpdate(ctx, dbTx, handle, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrUnknownTransaction(id)
	}
	return txn, nil
}

// GetWallet returns the wallet's current state.
func (s *WalletServiceImpl) GetWallet(ctx context.Context, handle common.Address) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrUnknownWallet(handle.Hex())
	}
	return w, nil
}

func (s *WalletServiceImpl) GetMembers(ctx context.Context, handle common.Address) ([]domain.Member, error) {
	w, err := s.GetWallet(ctx, handle)
	if err != nil {
		return nil, err
	}
	return w.Members, nil
}

func (s *WalletServiceImpl) GetTransaction(ctx context.Context, handle common.Address, id uint64) (*domain.Transaction, error) {
	txn, err := s.txRepo.Get(ctx, handle, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn != nil {
		return txn, nil
	}
	// distinguish an unknown wallet from an unknown id
	if _, err := s.GetWallet(ctx, handle); err != nil {
		return nil, err
	}
	return nil, apperror.ErrUnknownTransaction(id)
}

// GetConfirmations lists every recorded confirmation, including those of
// members removed since.
func (s *WalletServiceImpl) GetConfirmations(ctx context.Context, handle common.Address, id uint64) ([]domain.Member, error) {
	txn, err := s.GetTransaction(ctx, handle, id)
	if err != nil {
		return nil, err
	}
	return txn.Confirmations, nil
}

func (s *WalletServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if _, err := s.GetWallet(ctx, params.Wallet); err != nil {
		return nil, 0, err
	}
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

func (s *WalletServiceImpl) ListEvents(ctx context.Context, handle common.Address, offset, limit int) ([]domain.Event, int64, error) {
	if _, err := s.GetWallet(ctx, handle); err != nil {
		return nil, 0, err
	}
	events, total, err := s.eventRepo.ListByWallet(ctx, handle, offset, limit)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list events: %w", err))
	}
	return events, total, nil
}
