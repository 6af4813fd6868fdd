package postgres

import (
	"context"
	"testing"

	"multisig-registry/internal/core/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventColumnNames = []string{"id", "type", "wallet", "transaction_id", "member", "change", "detail", "created_at"}

func TestEventRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)
	w := newTestWallet()
	confirm := domain.NewConfirmationEvent(w.Handle, 3, bob)
	meta := domain.NewMetadataChangedEvent(w.Handle, "ops")

	txID := int64(3)
	mock.ExpectExec("INSERT INTO events").
		WithArgs(confirm.ID, "CONFIRMATION", w.Handle, &txID, bob.Bytes(), "", "", confirm.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO events").
		WithArgs(meta.ID, "METADATA_CHANGED", w.Handle, (*int64)(nil), []byte(nil), "", "ops", meta.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &confirm))
	require.NoError(t, repo.Create(context.Background(), &meta))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_ListByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)
	w := newTestWallet()
	submitted := domain.NewSubmissionEvent(w.Handle, 0)
	added := domain.NewMembershipChangedEvent(w.Handle, carol, domain.MembershipAdded)
	txID := int64(0)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM events").
		WithArgs(w.Handle).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectQuery("FROM events WHERE wallet = \\$1 ORDER BY seq ASC").
		WithArgs(w.Handle, 2, 1).
		WillReturnRows(pgxmock.NewRows(eventColumnNames).
			AddRow(submitted.ID, "SUBMISSION", w.Handle, &txID, nil, "", "", submitted.CreatedAt).
			AddRow(added.ID, "MEMBERSHIP_CHANGED", w.Handle, nil, carol.Bytes(), "ADDED", "", added.CreatedAt))

	events, total, err := repo.ListByWallet(context.Background(), w.Handle, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, events, 2)

	assert.Equal(t, domain.EventSubmission, events[0].Type)
	require.NotNil(t, events[0].TransactionID)
	assert.Equal(t, uint64(0), *events[0].TransactionID)
	assert.Nil(t, events[0].Member)

	assert.Equal(t, domain.EventMembershipChanged, events[1].Type)
	assert.Equal(t, domain.MembershipAdded, events[1].Change)
	assert.Nil(t, events[1].TransactionID)
	require.NotNil(t, events[1].Member)
	assert.Equal(t, carol, *events[1].Member)
	assert.NoError(t, mock.ExpectationsWereMet())
}
