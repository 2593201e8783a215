package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
)

var (
	testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	columns = []string{"id", "name", "category", "year", "created_at", "updated_at"}
)

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s := New(mock)
	s.now = func() time.Time { return testNow }
	return s, mock
}

func TestCreate(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO items").
		WithArgs(pgxmock.AnyArg(), "Ocean Explorer", "Sailboat", 2020, testNow, testNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	it, err := s.Create(context.Background(), item.Fields{Name: "Ocean Explorer", Category: item.Sailboat, Year: 2020})
	require.NoError(t, err)
	assert.Len(t, it.ID(), 36)
	assert.Equal(t, "Ocean Explorer", it.Name())
	assert.Equal(t, testNow, it.CreatedAt())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO items").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.Create(context.Background(), item.Fields{Name: "X", Category: item.Yacht, Year: 2000})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT id, name, category, year, created_at, updated_at FROM items WHERE id").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows(columns).AddRow("a", "Sea Star", "Ketch", 2001, testNow, testNow))

	it, err := s.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Sea Star", it.Name())
	assert.Equal(t, item.Ketch, it.Category())
	assert.Equal(t, 2001, it.Year())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMany(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("WHERE id > \\$1 ORDER BY id LIMIT \\$2").
		WithArgs("a", 2).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("b", "B", "Sloop", 2000, testNow, testNow).
			AddRow("c", "C", "Sloop", 2001, testNow, testNow))

	items, err := s.FindMany(context.Background(), "a", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID())
	assert.Equal(t, "c", items[1].ID())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMany_QueryError(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	_, err := s.FindMany(context.Background(), "", 10)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.Exists(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_OnlyPatchFields(t *testing.T) {
	s, mock := newTestStore(t)
	year := 2021
	p, err := patch.New(nil, nil, &year, testNow)
	require.NoError(t, err)

	mock.ExpectQuery("UPDATE items SET year = \\$1, updated_at = \\$2 WHERE id = \\$3 RETURNING").
		WithArgs(2021, testNow, "a").
		WillReturnRows(pgxmock.NewRows(columns).AddRow("a", "Ocean Explorer", "Sailboat", 2021, testNow, testNow))

	it, err := s.Update(context.Background(), "a", p)
	require.NoError(t, err)
	assert.Equal(t, 2021, it.Year())
	assert.Equal(t, "Ocean Explorer", it.Name())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	s, mock := newTestStore(t)
	name := "New"
	p, err := patch.New(&name, nil, nil, testNow)
	require.NoError(t, err)

	mock.ExpectQuery("UPDATE items SET name = \\$1, updated_at = \\$2").
		WithArgs("New", testNow, "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = s.Update(context.Background(), "missing", p)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM items").WithArgs("a").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM items").WithArgs("a").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.ErrorIs(t, s.Delete(context.Background(), "a"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("GROUP BY category").
		WillReturnRows(pgxmock.NewRows([]string{"category", "count"}).
			AddRow("Sailboat", 2).
			AddRow("Yacht", 1))
	mock.ExpectQuery("MIN\\(year\\)").
		WillReturnRows(pgxmock.NewRows([]string{"min", "max"}).AddRow(1990, 2020))

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.ByCategory[item.Sailboat])
	assert.Equal(t, 1990, st.MinYear)
	assert.Equal(t, 2020, st.MaxYear)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS items").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))

	assert.Error(t, New(mock).Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForReady_RetriesUntilPingSucceeds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("starting up"))
	mock.ExpectPing()

	require.NoError(t, New(mock).WaitForReady(context.Background(), 5*time.Second))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitForReady_Timeout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))

	err = New(mock).WaitForReady(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
