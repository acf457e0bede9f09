package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_SetGetClear(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	store := RedisRegistry(client).Open("sid-1")

	_, ok := store.Get(ctx)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "a.b.c"))
	token, ok := store.Get(ctx)
	assert.True(t, ok)
	assert.Equal(t, "a.b.c", token)

	value, err := mr.Get("token:sid-1")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", value)
	assert.Zero(t, mr.TTL("token:sid-1"))

	require.NoError(t, store.Clear(ctx, "", ClearOptions{Path: "/ignored"}))
	_, ok = store.Get(ctx)
	assert.False(t, ok)
	assert.False(t, mr.Exists("token:sid-1"))
}

func TestRedisStore_SetForExpiresKey(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	store := RedisRegistry(client).Open("sid-1")

	require.NoError(t, SetFor(ctx, store, "a.b.c", 90*time.Second))
	assert.Equal(t, 90*time.Second, mr.TTL("token:sid-1"))

	token, ok := store.Get(ctx)
	assert.True(t, ok)
	assert.Equal(t, "a.b.c", token)

	mr.FastForward(91 * time.Second)
	_, ok = store.Get(ctx)
	assert.False(t, ok)
	assert.False(t, mr.Exists("token:sid-1"))
}

func TestRedisStore_SessionsAreIsolated(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	registry := RedisRegistry(client)

	require.NoError(t, registry.Open("sid-1").Set(ctx, "one"))
	require.NoError(t, registry.Open("sid-2").Set(ctx, "two"))
	require.NoError(t, registry.Open("sid-1").Clear(ctx, DefaultName, ClearOptions{}))

	_, ok := registry.Open("sid-1").Get(ctx)
	assert.False(t, ok)
	token, ok := registry.Open("sid-2").Get(ctx)
	assert.True(t, ok)
	assert.Equal(t, "two", token)
}

func TestRedisStore_ClearIsIdempotent(t *testing.T) {
	_, client := newTestRedis(t)
	store := RedisRegistry(client).Open("sid")

	assert.NoError(t, store.Clear(context.Background(), DefaultName, ClearOptions{}))
	assert.NoError(t, store.Clear(context.Background(), DefaultName, ClearOptions{}))
}

func TestRedisStore_UnreachableReadsAsAbsent(t *testing.T) {
	mr, client := newTestRedis(t)
	store := RedisRegistry(client).Open("sid")
	require.NoError(t, store.Set(context.Background(), "a.b.c"))
	mr.Close()

	_, ok := store.Get(context.Background())
	assert.False(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = NewRedisClient("127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
