package sessions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "user", `{"id":"u1"}`))
	require.NoError(t, s.Set(ctx, "authToken", "t1"))
	require.NoError(t, s.Set(ctx, "authToken", "t2"))

	v, ok, err := s.Get(ctx, "authToken")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "t2", v)

	require.NoError(t, s.Delete(ctx, "user", "authToken", "missing"))
	for _, k := range []string{"user", "authToken"} {
		_, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		require.False(t, ok, k)
	}
	require.NoError(t, s.Delete(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	exerciseStore(t, NewRedisStore(client, "test:session:", 0))
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: m.Addr()}), "", time.Second)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "user", "x"))
	require.True(t, m.Exists("session:user"))

	m.FastForward(2 * time.Second)
	_, ok, err := s.Get(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "authToken", "persisted"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, "authToken")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persisted", v)
}
