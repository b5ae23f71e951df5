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

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLeaseIsExclusive(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)

	a := NewLease(client, time.Minute)
	b := NewLease(client, time.Minute)

	ok, err := a.Acquire(ctx, "reminders")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx, "reminders")
	require.NoError(t, err)
	assert.False(t, ok)

	// b cannot release a's lease
	require.NoError(t, b.Release(ctx, "reminders"))
	ok, err = b.Acquire(ctx, "reminders")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Release(ctx, "reminders"))
	ok, err = b.Acquire(ctx, "reminders")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLeaseExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)

	a := NewLease(client, time.Minute)
	b := NewLease(client, time.Minute)

	ok, err := a.Acquire(ctx, "milestones")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = b.Acquire(ctx, "milestones")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
