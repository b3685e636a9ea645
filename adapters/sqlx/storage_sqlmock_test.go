package sqlx_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "repkit/adapters/sqlx"
	"repkit/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func stateJSON(t *testing.T, state core.GameState) string {
	t.Helper()
	b, err := json.Marshal(state)
	require.NoError(t, err)
	return string(b)
}

func TestSQLMock_Load(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	state := core.NewGameState("u1", time.Now().UTC())
	state.ReputationScore = 2600
	state.ReputationTier = core.TierGold

	mock.ExpectQuery(`SELECT state, version FROM user_game_state`).
		WithArgs(core.UserID("u1")).
		WillReturnRows(sqlmock.NewRows([]string{"state", "version"}).
			AddRow(stateJSON(t, state), int64(4)))

	got, err := store.Load(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 2600, got.ReputationScore)
	require.Equal(t, core.TierGold, got.ReputationTier)
	require.Equal(t, int64(4), got.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Load_NotFound(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT state, version FROM user_game_state`).
		WithArgs(core.UserID("ghost")).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Load(context.Background(), "ghost")
	require.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Save(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	state := core.NewGameState("u1", time.Now().UTC())
	state.Version = 2

	mock.ExpectExec(`UPDATE user_game_state`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), core.UserID("u1"), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	saved, err := store.Save(context.Background(), "u1", state)
	require.NoError(t, err)
	require.Equal(t, int64(3), saved.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Save_VersionConflict(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	state := core.NewGameState("u1", time.Now().UTC())
	state.Version = 1

	mock.ExpectExec(`UPDATE user_game_state`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), core.UserID("u1"), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(core.UserID("u1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := store.Save(context.Background(), "u1", state)
	require.ErrorIs(t, err, core.ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Save_NotFound(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE user_game_state`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), core.UserID("ghost"), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(core.UserID("ghost")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := store.Save(context.Background(), "ghost", core.GameState{})
	require.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Create(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	state := core.NewGameState("u1", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(core.UserID("u1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO user_game_state`).
		WithArgs(core.UserID("u1"), sqlmock.AnyArg(), int64(0), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Create(context.Background(), "u1", state))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Create_AlreadyRegistered(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(core.UserID("u1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := store.Create(context.Background(), "u1", core.NewGameState("u1", time.Now().UTC()))
	require.ErrorIs(t, err, core.ErrAlreadyRegistered)
	require.NoError(t, mock.ExpectationsWereMet())
}
