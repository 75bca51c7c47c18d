package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg := DefaultConfig()
	cfg.TTL = time.Minute
	c := NewRedis(client, cfg)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

// backends runs the shared contract against each real backend.
func backends(t *testing.T) map[string]Cache {
	mem, err := NewMemory(16)
	require.NoError(t, err)
	rc, _ := setupTestRedis(t)
	return map[string]Cache{"memory": mem, "redis": rc}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "v3:movie:list:d=1:g=", Key(3, "movie", "list", "d=1", "g="))
	assert.NotEqual(t, Key(1, "movie", "7"), Key(2, "movie", "7"))
}

func TestCache_SetGetMiss(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(ctx, "absent")
			assert.ErrorIs(t, err, ErrCacheMiss)

			require.NoError(t, c.Set(ctx, "k", []byte(`{"id":1}`)))
			got, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"id":1}`), got)
		})
	}
}

func TestCache_VersionAndBump(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v0, err := c.Version(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), v0)

			v1, err := c.Bump(ctx)
			require.NoError(t, err)
			assert.Equal(t, v0+1, v1)

			current, err := c.Version(ctx)
			require.NoError(t, err)
			assert.Equal(t, v1, current)
		})
	}
}

func TestCache_StaleVersionIsUnreachable(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, _ := c.Version(ctx)
			require.NoError(t, c.Set(ctx, Key(v, "genre", "1"), []byte("old")))

			next, err := c.Bump(ctx)
			require.NoError(t, err)

			_, err = c.Get(ctx, Key(next, "genre", "1"))
			assert.ErrorIs(t, err, ErrCacheMiss)
		})
	}
}

func TestMemory_BumpPurges(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(4)
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	assert.Equal(t, 2, m.Len())

	_, err = m.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_EvictsBeyondSize(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(2)
	require.NoError(t, err)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, m.Set(ctx, k, []byte(k)))
	}
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 2, m.Len())
}

func TestMemory_CanceledContext(t *testing.T) {
	m, err := NewMemory(2)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedis_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := setupTestRedis(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	assert.True(t, mr.Exists("catalog:k"))

	mr.FastForward(2 * time.Minute)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedis_VersionSharedAcrossClients(t *testing.T) {
	ctx := context.Background()
	a, mr := setupTestRedis(t)
	b := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), DefaultConfig())
	defer b.Close()

	_, err := a.Bump(ctx)
	require.NoError(t, err)

	v, err := b.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{Backend: BackendNone})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	c, err = New(ctx, Config{Backend: BackendMemory, Size: 8})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	mr := miniredis.RunT(t)
	c, err = New(ctx, Config{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, c)
	c.Close()

	_, err = New(ctx, Config{Backend: "memcached"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}
	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
