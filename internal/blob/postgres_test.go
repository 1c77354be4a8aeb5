package blob_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livehike/livehike/internal/blob"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(
		pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp),
		pgxmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_blobs`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	store := blob.NewPostgresStore(mock, nil)
	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	mock := newMockPool(t)
	store := blob.NewPostgresStore(mock, nil)

	mock.ExpectQuery(`SELECT value FROM kv_blobs WHERE key = \$1`).
		WithArgs("trails").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	got, err := store.Get(context.Background(), "trails")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	mock.ExpectQuery(`SELECT value FROM kv_blobs`).
		WithArgs("hazardPins").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.Get(context.Background(), "hazardPins")
	assert.ErrorIs(t, err, blob.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutMany(t *testing.T) {
	t.Run("commits batch", func(t *testing.T) {
		mock := newMockPool(t)
		store := blob.NewPostgresStore(mock, nil)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO kv_blobs`).
			WithArgs("pinLocations", []byte(`[]`)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		err := store.PutMany(context.Background(), map[string][]byte{"pinLocations": []byte(`[]`)})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		mock := newMockPool(t)
		store := blob.NewPostgresStore(mock, nil)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO kv_blobs`).
			WithArgs("trails", []byte(`[]`)).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := store.PutMany(context.Background(), map[string][]byte{"trails": []byte(`[]`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_PingAndClose(t *testing.T) {
	mock := newMockPool(t)
	closed := false
	store := blob.NewPostgresStore(mock, func() { closed = true })

	mock.ExpectPing()
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())
	assert.True(t, closed)
	require.NoError(t, mock.ExpectationsWereMet())
}
