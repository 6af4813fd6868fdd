package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"
	"multisig-registry/internal/core/ports/mocks"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletMocks struct {
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	eventRepo  *mocks.MockEventRepository
	idempRepo  *mocks.MockIdempotencyRepository
	idempCache *mocks.MockIdempotencyCache
	codec      *mocks.MockGovernanceCodec
	notifier   *mocks.MockMembershipNotifier
	executor   *mocks.MockCallExecutor
	publisher  *mocks.MockEventPublisher
	transactor *mocks.MockDBTransactor
	tx         *mockTx
}

func setupWalletService(t *testing.T) (*WalletServiceImpl, *walletMocks) {
	ctrl := gomock.NewController(t)
	m := &walletMocks{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		eventRepo:  mocks.NewMockEventRepository(ctrl),
		idempRepo:  mocks.NewMockIdempotencyRepository(ctrl),
		idempCache: mocks.NewMockIdempotencyCache(ctrl),
		codec:      mocks.NewMockGovernanceCodec(ctrl),
		notifier:   mocks.NewMockMembershipNotifier(ctrl),
		executor:   mocks.NewMockCallExecutor(ctrl),
		publisher:  mocks.NewMockEventPublisher(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		tx:         &mockTx{},
	}
	svc := NewWalletService(
		m.walletRepo, m.txRepo, m.eventRepo, m.idempRepo, m.idempCache,
		m.codec, m.notifier, m.executor, m.publisher, m.transactor, newTestLogger(),
	)
	return svc, m
}

// expectLocked arranges for the wallet row (and optionally a transaction) to be locked.
func (m *walletMocks) expectLocked(w *domain.Wallet, txn *domain.Transaction) {
	m.transactor.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.walletRepo.EXPECT().GetByHandleForUpdate(gomock.Any(), m.tx, walletHandle).Return(w, nil)
	if txn != nil {
		m.txRepo.EXPECT().GetForUpdate(gomock.Any(), m.tx, walletHandle, txn.ID).Return(txn, nil).MaxTimes(1)
	}
}

func (m *walletMocks) capturePublished() *[]domain.Event {
	var published []domain.Event
	m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Do(func(_ context.Context, events []domain.Event) {
		published = append(published, events...)
	}).AnyTimes()
	return &published
}

func eventTypes(events []domain.Event) []domain.EventType {
	types := make([]domain.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func pendingTx(id uint64, dest domain.Member, confirmations ...domain.Member) *domain.Transaction {
	return &domain.Transaction{
		Wallet:        walletHandle,
		ID:            id,
		Title:         "pay",
		Destination:   dest,
		Value:         big.NewInt(5),
		Payload:       []byte{0xca, 0xfe},
		Confirmations: confirmations,
		SubmittedBy:   confirmations[0],
	}
}

func submitReq(submitter domain.Member) ports.SubmitRequest {
	return ports.SubmitRequest{
		Wallet:      walletHandle,
		Title:       "pay supplier",
		Destination: destination,
		Value:       big.NewInt(100),
		Payload:     []byte{0x01},
		Submitter:   submitter,
	}
}

// ---- Instantiate ----

func TestWalletService_Instantiate(t *testing.T) {
	svc, m := setupWalletService(t)
	w := testWallet(2, alice, bob, carol)
	m.walletRepo.EXPECT().Create(gomock.Any(), m.tx, w).Return(nil)

	require.NoError(t, svc.Instantiate(context.Background(), m.tx, w))
}

func TestWalletService_Instantiate_Collision(t *testing.T) {
	svc, m := setupWalletService(t)
	w := testWallet(1, alice)
	m.walletRepo.EXPECT().Create(gomock.Any(), m.tx, w).Return(domain.ErrHandleCollision)

	err := svc.Instantiate(context.Background(), m.tx, w)
	assertAppError(t, err, "MSW_008")
}

func TestWalletService_Instantiate_Invalid(t *testing.T) {
	svc, _ := setupWalletService(t)
	err := svc.Instantiate(context.Background(), &mockTx{}, testWallet(3, alice, bob))
	assertAppError(t, err, "MSW_001")
}

// ---- Submit ----

func TestWalletService_Submit_BelowQuorum(t *testing.T) {
	svc, m := setupWalletService(t)
	w := testWallet(2, alice, bob, carol)
	w.TransactionCount = 4
	m.expectLocked(w, nil)
	published := m.capturePublished()

	m.txRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.walletRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, w *domain.Wallet) error {
			assert.Equal(t, uint64(5), w.TransactionCount)
			return nil
		})

	txn, err := svc.Submit(context.Background(), submitReq(alice))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), txn.ID)
	assert.False(t, txn.Executed)
	assert.Equal(t, []domain.Member{alice}, txn.Confirmations)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status())
	assert.True(t, m.tx.committed)
	assert.Equal(t, []domain.EventType{domain.EventSubmission, domain.EventConfirmation}, eventTypes(*published))
}

func TestWalletService_Submit_ExecutesImmediately(t *testing.T) {
	svc, m := setupWalletService(t)
	m.expectLocked(testWallet(1, alice, bob), nil)
	published := m.capturePublished()

	m.txRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.walletRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.True(t, txn.Executed, "executed flag is persisted before the call")
			return nil
		})
	m.executor.EXPECT().Call(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, call domain.Call) error {
			assert.True(t, m.tx.committed, "destination is called after commit")
			assert.Equal(t, destination, call.Destination)
			assert.Equal(t, big.NewInt(100), call.Value)
			return nil
		})

	txn, err := svc.Submit(context.Background(), submitReq(alice))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusExecuted, txn.Status())
	assert.NotNil(t, txn.ExecutedAt)
	assert.Equal(t,
		[]domain.EventType{domain.EventSubmission, domain.EventConfirmation, domain.EventExecution},
		eventTypes(*published))
}

func TestWalletService_Submit_ExecutionFailureIsRecorded(t *testing.T) {
	svc, m := setupWalletService(t)
	m.expectLocked(testWallet(1, alice), nil)
	published := m.capturePublished()

	m.txRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.walletRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.executor.EXPECT().Call(gomock.Any(), gomock.Any()).Return(errors.New("reverted"))
	m.txRepo.EXPECT().RecordFailure(gomock.Any(), walletHandle, uint64(0), gomock.Any()).Return(nil)

	txn, err := svc.Submit(context.Background(), submitReq(alice))
	require.NoError(t, err, "a failed destination call does not fail the submission")
	assert.True(t, txn.Executed)
	assert.Equal(t, domain.TransactionStatusFailed, txn.Status())
	require.NotNil(t, txn.FailureReason)
	assert.Contains(t, *txn.FailureReason, "reverted")

	last := (*published)[len(*published)-1]
	assert.Equal(t, domain.EventExecutionFailure, last.Type)
	assert.Equal(t, *txn.FailureReason, last.Detail)
}

func TestWalletService_Submit_Errors(t *testing.T) {
	t.Run("unknown wallet", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.transactor.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.walletRepo.EXPECT().GetByHandleForUpdate(gomock.Any(), m.tx, walletHandle).Return(nil, nil)

		_, err := svc.Submit(context.Background(), submitReq(alice))
		assertAppError(t, err, "MSW_006")
	})

	t.Run("not a member", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.expectLocked(testWallet(1, alice), nil)

		_, err := svc.Submit(context.Background(), submitReq(outsider))
		assertAppError(t, err, "MSW_003")
		assert.False(t, m.tx.committed)
	})

	t.Run("negative value", func(t *testing.T) {
		svc, _ := setupWalletService(t)
		req := submitReq(alice)
		req.Value = big.NewInt(-1)

		_, err := svc.Submit(context.Background(), req)
		assertAppError(t, err, "VAL_001")
	})

	t.Run("begin fails", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.transactor.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("pool closed"))

		_, err := svc.Submit(context.Background(), submitReq(alice))
		assertAppError(t, err, "SYS_001")
	})
}

func TestWalletService_Submit_NilValueIsZero(t *testing.T) {
	svc, m := setupWalletService(t)
	m.expectLocked(testWallet(2, alice, bob), nil)
	m.capturePublished()
	m.txRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.walletRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).Return(nil)

	req := submitReq(alice)
	req.Value = nil
	txn, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, txn.Value.Sign())
}

func TestWalletService_Submit_IdempotencyCacheHit(t *testing.T) {
	svc, m := setupWalletService(t)
	prior := pendingTx(3, destination, alice)
	cached, err := json.Marshal(prior)
	require.NoError(t, err)

	current := prior.Clone()
	current.Confirm(bob)

	req := submitReq(alice)
	req.IdempotencyKey = "client-1"
	key := domain.BuildSubmissionIdempotencyKey(walletHandle, alice, "client-1")

	m.idempCache.EXPECT().Get(gomock.Any(), key).Return(cached, nil)
	m.txRepo.EXPECT().Get(gomock.Any(), walletHandle, uint64(3)).Return(current, nil)

	txn, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []domain.Member{alice, bob}, txn.Confirmations)
}

func TestWalletService_Submit_IdempotencyDBFallback(t *testing.T) {
	svc, m := setupWalletService(t)
	prior := pendingTx(2, destination, alice)
	cached, err := json.Marshal(prior)
	require.NoError(t, err)

	req := submitReq(alice)
	req.IdempotencyKey = "client-2"

	m.idempCache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	m.idempRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(&domain.IdempotencyLog{ResponseJSON: cached}, nil)
	m.idempCache.EXPECT().Set(gomock.Any(), gomock.Any(), cached, idempotencyTTL).Return(errors.New("redis down"))
	m.txRepo.EXPECT().Get(gomock.Any(), walletHandle, uint64(2)).Return(nil, nil)

	txn, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), txn.ID)
}

func TestWalletService_Submit_IdempotencyFirstUse(t *testing.T) {
	svc, m := setupWalletService(t)
	req := submitReq(alice)
	req.IdempotencyKey = "client-3"
	key := domain.BuildSubmissionIdempotencyKey(walletHandle, alice, "client-3")

	m.idempCache.EXPECT().Get(gomock.Any(), key).Return(nil, nil)
	m.idempRepo.EXPECT().Get(gomock.Any(), key).Return(nil, nil)
	m.expectLocked(testWallet(2, alice, bob), nil)
	m.capturePublished()
	m.txRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.walletRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.idempRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, l *domain.IdempotencyLog) error {
			assert.Equal(t, key, l.Key)
			assert.Equal(t, walletHandle, l.Wallet)
			assert.False(t, m.tx.committed, "idempotency log is written in the same transaction")
			return nil
		})
	m.idempCache.EXPECT().Set(gomock.Any(), key, gomock.Any(), idempotencyTTL).Return(errors.New("redis down"))

	txn, err := svc.Submit(context.Background(), req)
	require.NoError(t, err, "cache write failures are ignored")
	assert.Equal(t, uint64(0), txn.ID)
}

// ---- SubmitGovernance ----

func TestWalletService_SubmitGovernance(t *testing.T) {
	svc, m := setupWalletService(t)
	op := domain.AddMember{Member: dave}
	m.codec.EXPECT().Encode(op).Return([]byte{0xab}, nil)
	m.expectLocked(testWallet(2, alice, bob), nil)
	m.capturePublished()
	m.txRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.True(t, txn.IsSelfCall())
			assert.Equal(t, 0, txn.Value.Sign())
			assert.Equal(t, []byte{0xab}, txn.Payload)
			return nil
		})
	m.walletRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).Return(nil)

	txn, err := svc.SubmitGovernance(context.Background(), ports.GovernanceRequest{
		Wallet: walletHandle, Title: "add dave", Operation: op, Submitter: alice,
	})
	require.NoError(t, err)
	assert.Equal(t, walletHandle, txn.Destination)
}

func TestWalletService_SubmitGovernance_EncodeError(t *testing.T) {
	svc, m := setupWalletService(t)
	op := domain.ChangeMetadata{Name: "x"}
	m.codec.EXPECT().Encode(op).Return(nil, errors.New("unsupported"))

	_, err := svc.SubmitGovernance(context.Background(), ports.GovernanceRequest{
		Wallet: walletHandle, Operation: op, Submitter: alice,
	})
	assertAppError(t, err, "VAL_001")
}

// ---- Confirm ----

func TestWalletService_Confirm_ReachesQuorum(t *testing.T) {
	svc, m := setupWalletService(t)
	txn := pendingTx(0, destination, alice)
	m.expectLocked(testWallet(2, alice, bob, carol), txn)
	published := m.capturePublished()

	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, txn).Return(nil).Times(2)
	m.executor.EXPECT().Call(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.Confirm(context.Background(), walletHandle, 0, bob)
	require.NoError(t, err)
	assert.True(t, got.Executed)
	assert.Equal(t, []domain.Member{alice, bob}, got.Confirmations)
	assert.Equal(t, []domain.EventType{domain.EventConfirmation, domain.EventExecution}, eventTypes(*published))
}

func TestWalletService_Confirm_Duplicate(t *testing.T) {
	svc, m := setupWalletService(t)
	txn := pendingTx(0, destination, alice)
	m.expectLocked(testWallet(2, alice, bob), txn)

	got, err := svc.Confirm(context.Background(), walletHandle, 0, alice)
	require.NoError(t, err)
	assert.Equal(t, []domain.Member{alice}, got.Confirmations)
	assert.False(t, got.Executed)
}

func TestWalletService_Confirm_Errors(t *testing.T) {
	t.Run("unknown wallet", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.transactor.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
		m.walletRepo.EXPECT().GetByHandleForUpdate(gomock.Any(), m.tx, walletHandle).Return(nil, nil)

		_, err := svc.Confirm(context.Background(), walletHandle, 0, alice)
		assertAppError(t, err, "MSW_006")
	})

	t.Run("unknown transaction", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.expectLocked(testWallet(1, alice), nil)
		m.txRepo.EXPECT().GetForUpdate(gomock.Any(), m.tx, walletHandle, uint64(9)).Return(nil, nil)

		_, err := svc.Confirm(context.Background(), walletHandle, 9, alice)
		assertAppError(t, err, "MSW_004")
	})

	t.Run("already executed", func(t *testing.T) {
		svc, m := setupWalletService(t)
		txn := pendingTx(0, destination, alice)
		txn.Executed = true
		m.expectLocked(testWallet(1, alice), txn)

		_, err := svc.Confirm(context.Background(), walletHandle, 0, outsider)
		assertAppError(t, err, "MSW_005")
	})

	t.Run("not a member", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.expectLocked(testWallet(2, alice, bob), pendingTx(0, destination, alice))

		_, err := svc.Confirm(context.Background(), walletHandle, 0, outsider)
		assertAppError(t, err, "MSW_003")
	})
}

// ---- Governance execution ----

func TestWalletService_Confirm_AppliesGovernance(t *testing.T) {
	svc, m := setupWalletService(t)
	w := testWallet(2, alice, bob, carol)
	txn := pendingTx(1, walletHandle, alice)
	m.expectLocked(w, txn)
	published := m.capturePublished()

	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, txn).Return(nil).Times(2)
	m.codec.EXPECT().Decode(txn.Payload).Return(domain.ReplaceMember{Old: bob, New: erin}, nil)
	m.walletRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, next *domain.Wallet) error {
			assert.Equal(t, []domain.Member{alice, erin, carol}, next.Members)
			return nil
		})
	gomock.InOrder(
		m.notifier.EXPECT().OnMemberRemoved(gomock.Any(), m.tx, walletHandle, bob).Return(nil),
		m.notifier.EXPECT().OnMemberAdded(gomock.Any(), m.tx, walletHandle, erin).Return(nil),
	)

	got, err := svc.Confirm(context.Background(), walletHandle, 1, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusExecuted, got.Status())
	assert.Equal(t, []domain.EventType{
		domain.EventConfirmation,
		domain.EventMembershipChanged,
		domain.EventMembershipChanged,
		domain.EventExecution,
	}, eventTypes(*published))
	assert.Equal(t, domain.MembershipRemoved, (*published)[1].Change)
	assert.Equal(t, domain.MembershipAdded, (*published)[2].Change)
}

func TestWalletService_Confirm_ChangeMetadata(t *testing.T) {
	svc, m := setupWalletService(t)
	txn := pendingTx(0, walletHandle, alice)
	m.expectLocked(testWallet(1, alice), txn)
	published := m.capturePublished()

	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, txn).Return(nil)
	m.codec.EXPECT().Decode(gomock.Any()).Return(domain.ChangeMetadata{Name: "ops", Description: "daily"}, nil)
	m.walletRepo.EXPECT().Update(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.notifier.EXPECT().OnMetadataChanged(gomock.Any(), m.tx, walletHandle, "ops", "daily").Return(nil)

	_, err := svc.Execute(context.Background(), walletHandle, 0, alice)
	require.NoError(t, err)
	require.Len(t, *published, 2)
	assert.Equal(t, domain.EventMetadataChanged, (*published)[0].Type)
	assert.Equal(t, "ops", (*published)[0].Detail)
}

func TestWalletService_Governance_InvalidOperationFails(t *testing.T) {
	svc, m := setupWalletService(t)
	w := testWallet(2, alice, bob)
	txn := pendingTx(0, walletHandle, alice)
	m.expectLocked(w, txn)
	published := m.capturePublished()

	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, txn).Return(nil).Times(2)
	// removing bob would leave 1 member with required 2
	m.codec.EXPECT().Decode(gomock.Any()).Return(domain.RemoveMember{Member: bob}, nil)

	got, err := svc.Confirm(context.Background(), walletHandle, 0, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, got.Status())
	assert.Equal(t, []domain.Member{alice, bob}, w.Members, "wallet is untouched")
	assert.True(t, m.tx.committed)
	assert.Equal(t, []domain.EventType{domain.EventConfirmation, domain.EventExecutionFailure}, eventTypes(*published))
}

func TestWalletService_Governance_UndecodablePayloadFails(t *testing.T) {
	svc, m := setupWalletService(t)
	txn := pendingTx(0, walletHandle, alice)
	m.expectLocked(testWallet(1, alice), txn)
	m.capturePublished()

	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, txn).Return(nil)
	m.codec.EXPECT().Decode(gomock.Any()).Return(nil, errors.New("unknown selector"))

	got, err := svc.Execute(context.Background(), walletHandle, 0, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, got.Status())
	assert.Contains(t, *got.FailureReason, "unknown selector")
}

// ---- Revoke ----

func TestWalletService_Revoke(t *testing.T) {
	svc, m := setupWalletService(t)
	txn := pendingTx(0, destination, alice, bob)
	m.expectLocked(testWallet(3, alice, bob, carol), txn)
	published := m.capturePublished()
	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, txn).Return(nil)

	got, err := svc.Revoke(context.Background(), walletHandle, 0, bob)
	require.NoError(t, err)
	assert.Equal(t, []domain.Member{alice}, got.Confirmations)
	require.Len(t, *published, 1)
	assert.Equal(t, domain.EventRevocation, (*published)[0].Type)
}

func TestWalletService_Revoke_NotConfirmedIsNoop(t *testing.T) {
	svc, m := setupWalletService(t)
	txn := pendingTx(0, destination, alice)
	m.expectLocked(testWallet(3, alice, bob, carol), txn)

	got, err := svc.Revoke(context.Background(), walletHandle, 0, carol)
	require.NoError(t, err)
	assert.Equal(t, []domain.Member{alice}, got.Confirmations)
	assert.False(t, m.tx.committed)
}

func TestWalletService_Revoke_Errors(t *testing.T) {
	t.Run("not a member", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.expectLocked(testWallet(1, alice), nil)

		_, err := svc.Revoke(context.Background(), walletHandle, 0, outsider)
		assertAppError(t, err, "MSW_003")
	})

	t.Run("already executed", func(t *testing.T) {
		svc, m := setupWalletService(t)
		txn := pendingTx(0, destination, alice)
		txn.Executed = true
		m.expectLocked(testWallet(1, alice), txn)

		_, err := svc.Revoke(context.Background(), walletHandle, 0, alice)
		assertAppError(t, err, "MSW_005")
	})
}

// ---- Execute ----

func TestWalletService_Execute_BelowQuorumIsUnchanged(t *testing.T) {
	svc, m := setupWalletService(t)
	txn := pendingTx(0, destination, alice)
	m.expectLocked(testWallet(2, alice, bob), txn)

	got, err := svc.Execute(context.Background(), walletHandle, 0, bob)
	require.NoError(t, err)
	assert.False(t, got.Executed)
	assert.False(t, m.tx.committed)
}

func TestWalletService_Execute_AfterMembershipShrank(t *testing.T) {
	svc, m := setupWalletService(t)
	// carol's confirmation predates her removal and no longer counts
	txn := pendingTx(0, destination, alice, carol)
	m.expectLocked(testWallet(1, alice, bob), txn)
	m.capturePublished()
	m.txRepo.EXPECT().Update(gomock.Any(), m.tx, txn).Return(nil)
	m.executor.EXPECT().Call(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.Execute(context.Background(), walletHandle, 0, bob)
	require.NoError(t, err)
	assert.True(t, got.Executed)
	assert.Equal(t, []domain.Member{alice, carol}, got.Confirmations)
}

// ---- Reads ----

func TestWalletService_GetTransaction(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc, m := setupWalletService(t)
		txn := pendingTx(0, destination, alice)
		m.txRepo.EXPECT().Get(gomock.Any(), walletHandle, uint64(0)).Return(txn, nil)

		got, err := svc.GetConfirmations(context.Background(), walletHandle, 0)
		require.NoError(t, err)
		assert.Equal(t, []domain.Member{alice}, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.txRepo.EXPECT().Get(gomock.Any(), walletHandle, uint64(7)).Return(nil, nil)
		m.walletRepo.EXPECT().GetByHandle(gomock.Any(), walletHandle).Return(testWallet(1, alice), nil)

		_, err := svc.GetTransaction(context.Background(), walletHandle, 7)
		assertAppError(t, err, "MSW_004")
	})

	t.Run("unknown wallet", func(t *testing.T) {
		svc, m := setupWalletService(t)
		m.txRepo.EXPECT().Get(gomock.Any(), walletHandle, uint64(0)).Return(nil, nil)
		m.walletRepo.EXPECT().GetByHandle(gomock.Any(), walletHandle).Return(nil, nil)

		_, err := svc.GetTransaction(context.Background(), walletHandle, 0)
		assertAppError(t, err, "MSW_006")
	})
}

func TestWalletService_GetMembers(t *testing.T) {
	svc, m := setupWalletService(t)
	m.walletRepo.EXPECT().GetByHandle(gomock.Any(), walletHandle).Return(testWallet(2, alice, bob, carol), nil)

	members, err := svc.GetMembers(context.Background(), walletHandle)
	require.NoError(t, err)
	assert.Equal(t, []domain.Member{alice, bob, carol}, members)
}

func TestWalletService_ListTransactions(t *testing.T) {
	svc, m := setupWalletService(t)
	status := domain.TransactionStatusPending
	params := ports.TransactionListParams{Wallet: walletHandle, Status: &status, Limit: 20}

	m.walletRepo.EXPECT().GetByHandle(gomock.Any(), walletHandle).Return(testWallet(1, alice), nil)
	m.txRepo.EXPECT().List(gomock.Any(), params).Return([]domain.Transaction{*pendingTx(0, destination, alice)}, int64(1), nil)

	txns, total, err := svc.ListTransactions(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, txns, 1)
}

func TestWalletService_ListEvents(t *testing.T) {
	svc, m := setupWalletService(t)
	m.walletRepo.EXPECT().GetByHandle(gomock.Any(), walletHandle).Return(testWallet(1, alice), nil)
	m.eventRepo.EXPECT().ListByWallet(gomock.Any(), walletHandle, 0, 50).
		Return([]domain.Event{domain.NewSubmissionEvent(walletHandle, 0)}, int64(1), nil)

	events, total, err := svc.ListEvents(context.Background(), walletHandle, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, domain.EventSubmission, events[0].Type)
}
