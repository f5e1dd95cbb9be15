package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

var sampleRecord = domain.Record{
	Token:    "header.payload.sig",
	Role:     "admin",
	UserID:   "64f0c2",
	UserName: "Rita Admin",
}

// runStoreContract exercises the behaviour every driver must share.
func runStoreContract(t *testing.T, ks Keyspace) {
	t.Helper()
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := ks.For("round-trip")
		require.NoError(t, store.Save(ctx, sampleRecord))

		got, err := store.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleRecord, got)
		assert.Len(t, got.Values(), 4)
	})

	t.Run("read empty", func(t *testing.T) {
		got, err := ks.For("never-written").Read(ctx)
		require.NoError(t, err)
		assert.True(t, got.Empty())
	})

	t.Run("save replaces whole record", func(t *testing.T) {
		store := ks.For("replace")
		require.NoError(t, store.Save(ctx, sampleRecord))

		next := domain.Record{Token: "t2", Role: "employee", UserID: "u2", UserName: "Sam"}
		require.NoError(t, store.Save(ctx, next))

		got, err := store.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, next, got)
	})

	t.Run("save rejects partial record", func(t *testing.T) {
		store := ks.For("partial")
		err := store.Save(ctx, domain.Record{Token: "only-token"})
		assert.ErrorIs(t, err, ErrIncompleteRecord)

		got, err := store.Read(ctx)
		require.NoError(t, err)
		assert.True(t, got.Empty())
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		store := ks.For("clear")
		require.NoError(t, store.Save(ctx, sampleRecord))
		require.NoError(t, store.Clear(ctx))
		require.NoError(t, store.Clear(ctx))

		got, err := store.Read(ctx)
		require.NoError(t, err)
		assert.True(t, got.Empty())
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		a, b := ks.For("browser-a"), ks.For("browser-b")
		require.NoError(t, a.Save(ctx, sampleRecord))
		require.NoError(t, b.Clear(ctx))

		got, err := a.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleRecord, got)
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestFileStoreContract(t *testing.T) {
	ks, err := NewFile(t.TempDir())
	require.NoError(t, err)
	runStoreContract(t, ks)
}

func TestRedisStoreContract(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	runStoreContract(t, NewRedis(client, "test:session:", 0))
}

func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("HREADY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HREADY_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migration, err := os.ReadFile(filepath.Join("..", "persistence", "migrations", "002_session_records.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(migration))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM session_records`)
	require.NoError(t, err)

	runStoreContract(t, NewPostgres(pool, 0))
}

func TestFileStorePermissionsAndCorruption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ks, err := NewFile(dir)
	require.NoError(t, err)

	store := ks.For("http://127.0.0.1:5000/api")
	require.NoError(t, store.Save(ctx, sampleRecord))

	path := filepath.Join(dir, fileName("http://127.0.0.1:5000/api"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = store.Read(ctx)
	assert.Error(t, err)

	require.NoError(t, store.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreReadsPartialRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ks, err := NewFile(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, fileName("origin"))
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"abc","role":"admin"}`), 0o600))

	got, err := ks.For("origin").Read(ctx)
	require.NoError(t, err)
	assert.False(t, got.Complete())
	assert.Equal(t, "abc", got.Token)
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedis(client, "", time.Minute).For("ns")
	require.NoError(t, store.Save(ctx, sampleRecord))
	assert.Equal(t, time.Minute, mr.TTL(defaultRedisPrefix+"ns"))

	mr.FastForward(2 * time.Minute)
	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestFactory(t *testing.T) {
	ks, err := New(Config{}, Dependencies{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryKeyspace{}, ks)

	ks, err = New(Config{Driver: DriverFile, Dir: t.TempDir()}, Dependencies{})
	require.NoError(t, err)
	assert.IsType(t, &FileKeyspace{}, ks)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ks, err = New(Config{Driver: DriverRedis}, Dependencies{Redis: client})
	require.NoError(t, err)
	assert.IsType(t, &RedisKeyspace{}, ks)

	_, err = New(Config{Driver: DriverRedis}, Dependencies{})
	assert.Error(t, err)
	_, err = New(Config{Driver: DriverPostgres}, Dependencies{})
	assert.Error(t, err)
	_, err = New(Config{Driver: "etcd"}, Dependencies{})
	assert.Error(t, err)
}
