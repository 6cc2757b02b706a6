package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizwanabrish101/shayari/internal/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, nil), mock
}

func TestUpsertFavorite(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`(?s)^INSERT INTO favorites \(verse_id, created_at\).*ON CONFLICT \(verse_id\) DO UPDATE`).
		WithArgs("1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpsertFavorite(context.Background(), "1", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFavorite_EmptyID(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.UpsertFavorite(context.Background(), "", time.Now())
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFavorite_DBError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO favorites`).WillReturnError(errors.New("connection reset"))

	err := s.UpsertFavorite(context.Background(), "1", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDeleteFavorite(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`^DELETE FROM favorites WHERE verse_id = \$1$`).
		WithArgs("9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.DeleteFavorite(context.Background(), "9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFavorite_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT verse_id, created_at FROM favorites WHERE verse_id = \$1`).
		WithArgs("404").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetFavorite(context.Background(), "404")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListFavorites(t *testing.T) {
	s, mock := newMockStore(t)
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT verse_id, created_at FROM favorites ORDER BY seq`).
		WillReturnRows(sqlmock.NewRows([]string{"verse_id", "created_at"}).
			AddRow("3", t0).
			AddRow("1", t0.Add(time.Minute)))

	favs, err := s.ListFavorites(context.Background())
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "3", favs[0].VerseID)
	assert.Equal(t, "1", favs[1].VerseID)
	assert.True(t, favs[1].CreatedAt.Equal(t0.Add(time.Minute)))
}

func TestMigrate(t *testing.T) {
	s, _ := newMockStore(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, s.Migrate(context.Background()))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
