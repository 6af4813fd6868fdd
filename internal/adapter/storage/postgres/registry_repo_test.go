package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registryColumnNames = []string{"wallet", "name", "description", "creator", "created_at"}

func TestRegistryRepo_CreateEntry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRegistryRepo(mock)
	e := newTestWallet().Entry()

	mock.ExpectExec("INSERT INTO registry_entries").
		WithArgs(e.Wallet, e.Name, e.Description, e.Creator, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateEntry(context.Background(), nil, &e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryRepo_GetEntry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRegistryRepo(mock)
	e := newTestWallet().Entry()

	mock.ExpectQuery("SELECT .+ FROM registry_entries WHERE wallet").
		WithArgs(e.Wallet).
		WillReturnRows(pgxmock.NewRows(registryColumnNames).
			AddRow(e.Wallet, e.Name, e.Description, e.Creator, e.CreatedAt))

	got, err := repo.GetEntry(context.Background(), e.Wallet)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e, *got)

	mock.ExpectQuery("SELECT .+ FROM registry_entries WHERE wallet").
		WithArgs(bob).
		WillReturnError(pgx.ErrNoRows)

	got, err = repo.GetEntry(context.Background(), bob)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryRepo_UpdateMetadata(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRegistryRepo(mock)
	w := newTestWallet()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE registry_entries SET name").
		WithArgs("ops", "operations", w.Handle).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE registry_entries SET name").
		WithArgs("ops", "operations", bob).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.UpdateMetadata(context.Background(), tx, w.Handle, "ops", "operations"))
	assert.Error(t, repo.UpdateMetadata(context.Background(), tx, bob, "ops", "operations"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryRepo_IndexAndUnindex(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRegistryRepo(mock)
	w := newTestWallet()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO member_wallets .+ ON CONFLICT").
		WithArgs(carol, w.Handle).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE member_wallets SET removed_at").
		WithArgs(carol, w.Handle).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.IndexMember(context.Background(), tx, carol, w.Handle))
	require.NoError(t, repo.UnindexMember(context.Background(), tx, carol, w.Handle))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistryRepo_IndexMember_DBError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRegistryRepo(mock)

	mock.ExpectExec("INSERT INTO member_wallets").
		WithArgs(anyArgs(2)...).
		WillReturnError(errors.New("connection reset"))

	err = repo.IndexMember(context.Background(), nil, carol, bob)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index member")
}

func TestRegistryRepo_CountAndList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRegistryRepo(mock)
	first := newTestWallet().Entry()
	second := first
	second.Wallet = carol
	second.Name = "ops"

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM member_wallets").
		WithArgs(alice).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery("FROM member_wallets mw JOIN registry_entries e .+ ORDER BY mw.id ASC LIMIT").
		WithArgs(alice, 10, 0).
		WillReturnRows(pgxmock.NewRows(registryColumnNames).
			AddRow(first.Wallet, first.Name, first.Description, first.Creator, first.CreatedAt).
			AddRow(second.Wallet, second.Name, second.Description, second.Creator, second.CreatedAt))

	n, err := repo.CountForMember(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err := repo.ListForMember(context.Background(), alice, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.Wallet, entries[0].Wallet)
	assert.Equal(t, "ops", entries[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
