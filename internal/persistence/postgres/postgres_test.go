package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/availability-scheduler/internal/persistence"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

type anyBytes struct{}

func (anyBytes) Match(v driver.Value) bool {
	_, ok := v.([]byte)
	return ok
}

func TestStore_Upsert(t *testing.T) {
	store, mock := newMockStore(t)
	expires := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms (code, doc, expires_at, updated_at)")).
		WithArgs("123456", anyBytes{}, expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Upsert(context.Background(), persistence.RoomSnapshot{Code: "123456", ExpiresAt: expires})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertWrapsDriverErrors(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO rooms").WillReturnError(sql.ErrConnDone)

	err := store.Upsert(context.Background(), persistence.RoomSnapshot{Code: "123456"})
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestStore_Load(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"code", "doc"}).
		AddRow("111111", []byte(`{"code":"111111","startDate":"2025-01-10","endDate":"2025-01-10","members":[]}`)).
		AddRow("222222", []byte(`garbage`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, doc FROM rooms")).WithArgs(now).WillReturnRows(rows)

	loaded, err := store.Load(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "111111", loaded[0].Code)
	assert.Equal(t, "09:00", loaded[0].DayStart)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).WithArgs("123456").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "123456"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_UsesEmbeddedDirectory(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, "migrations", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.ErrorContains(t, Migrate(context.Background(), db), "migrate postgres")
}
