package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sapid/pkg/platform/sentinel"
)

const testKey = "cookie-consent:visitor-1"

var testBlob = []byte(`{"necessary":true,"analytics":true,"marketing":false,"preferences":false}`)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	_, err := s.Load(ctx, testKey)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.Save(ctx, testKey, testBlob))
	got, err := s.Load(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, testBlob, got)

	got[0] = 'x'
	again, err := s.Load(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, testBlob, again, "callers must not alias stored bytes")

	assert.NoError(t, s.Health(ctx))
}

func newMiniredisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, opts...), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s, _ := newMiniredisStore(t)
		_, err := s.Load(ctx, testKey)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("round trip under the storage key", func(t *testing.T) {
		s, mr := newMiniredisStore(t)
		require.NoError(t, s.Save(ctx, testKey, testBlob))

		raw, err := mr.Get(testKey)
		require.NoError(t, err)
		assert.JSONEq(t, string(testBlob), raw)

		got, err := s.Load(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, testBlob, got)
	})

	t.Run("expiry", func(t *testing.T) {
		s, mr := newMiniredisStore(t, WithExpiry(time.Hour))
		require.NoError(t, s.Save(ctx, testKey, testBlob))
		assert.Equal(t, time.Hour, mr.TTL(testKey))

		mr.FastForward(2 * time.Hour)
		_, err := s.Load(ctx, testKey)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("server down", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { _ = client.Close() })
		s := NewRedisStore(client)
		mr.Close()

		_, err = s.Load(ctx, testKey)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.ErrorIs(t, s.Save(ctx, testKey, testBlob), sentinel.ErrUnavailable)
		assert.Error(t, s.Health(ctx))
	})
}

func newSQLMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load existing", func(t *testing.T) {
		s, mock := newSQLMockStore(t)
		mock.ExpectQuery("SELECT blob FROM consent_preferences").
			WithArgs(testKey).
			WillReturnRows(sqlmock.NewRows([]string{"blob"}).AddRow(testBlob))

		got, err := s.Load(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, testBlob, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("load missing", func(t *testing.T) {
		s, mock := newSQLMockStore(t)
		mock.ExpectQuery("SELECT blob FROM consent_preferences").
			WithArgs(testKey).
			WillReturnRows(sqlmock.NewRows([]string{"blob"}))

		_, err := s.Load(ctx, testKey)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("load failure", func(t *testing.T) {
		s, mock := newSQLMockStore(t)
		mock.ExpectQuery("SELECT blob FROM consent_preferences").
			WithArgs(testKey).
			WillReturnError(errors.New("connection reset"))

		_, err := s.Load(ctx, testKey)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("save upserts", func(t *testing.T) {
		s, mock := newSQLMockStore(t)
		mock.ExpectExec("INSERT INTO consent_preferences").
			WithArgs(testKey, string(testBlob)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Save(ctx, testKey, testBlob))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("save failure", func(t *testing.T) {
		s, mock := newSQLMockStore(t)
		mock.ExpectExec("INSERT INTO consent_preferences").
			WillReturnError(errors.New("read-only transaction"))

		assert.ErrorIs(t, s.Save(ctx, testKey, testBlob), sentinel.ErrUnavailable)
	})

	t.Run("migrate", func(t *testing.T) {
		s, mock := newSQLMockStore(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS consent_preferences").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, s.Migrate(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
