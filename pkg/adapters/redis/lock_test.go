package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/storyline/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "reader:7", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:reader:7"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:reader:7"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "reader:7", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "reader:7", 5*time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "reader:7", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestRedisLocker_StaleUnlockIsNoop(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", 5*time.Second)
	require.NoError(t, err)

	// Someone else took over after expiry.
	require.NoError(t, mr.Set("test:lock:k", "other-owner"))
	require.NoError(t, unlock(ctx))

	got, err := mr.Get("test:lock:k")
	require.NoError(t, err)
	assert.Equal(t, "other-owner", got)
}
