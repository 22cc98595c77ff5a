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

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "ligue:"), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestLocker(t)

	release, ok, err := locker.TryLock(ctx, "checkout:acc-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("ligue:checkout:acc-1"))

	_, ok, err = locker.TryLock(ctx, "checkout:acc-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// other keys are independent
	other, ok, err := locker.TryLock(ctx, "checkout:acc-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	other()

	release()
	assert.False(t, mr.Exists("ligue:checkout:acc-1"))

	_, ok, err = locker.TryLock(ctx, "checkout:acc-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerExpiredHolderCannotRelease(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestLocker(t)

	stale, ok, err := locker.TryLock(ctx, "checkout:acc-1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryLock(ctx, "checkout:acc-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	stale()
	assert.True(t, mr.Exists("ligue:checkout:acc-1"))
}

func TestRedisLockerConnectionError(t *testing.T) {
	locker, mr := newTestLocker(t)
	mr.Close()

	_, ok, err := locker.TryLock(context.Background(), "checkout:acc-1", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, locker.Ping(context.Background()))
}

func TestNewRedisClient(t *testing.T) {
	_, err := NewRedisClient("")
	assert.Error(t, err)

	_, err = NewRedisClient("://bad")
	assert.Error(t, err)

	client, err := NewRedisClient("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", client.Options().Addr)
	_ = client.Close()
}
