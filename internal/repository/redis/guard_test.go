package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGuard(t *testing.T, ttl time.Duration) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewGuard(rdb, ttl), s
}

func TestGuard_FirstClaimWins(t *testing.T) {
	g, _ := setupGuard(t, time.Minute)
	ctx := context.Background()

	ok, err := g.Claim(ctx, 1, 42, "email")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Claim(ctx, 1, 42, "email")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGuard_KeysAreIndependent(t *testing.T) {
	g, _ := setupGuard(t, time.Minute)
	ctx := context.Background()

	for _, tc := range []struct {
		n, u int64
		ch   string
	}{
		{1, 42, "email"},
		{1, 42, "sms"},
		{1, 43, "email"},
		{2, 42, "email"},
	} {
		ok, err := g.Claim(ctx, tc.n, tc.u, tc.ch)
		require.NoError(t, err)
		assert.True(t, ok, "%d/%d/%s", tc.n, tc.u, tc.ch)
	}
}

func TestGuard_ExpiresAfterTTL(t *testing.T) {
	g, s := setupGuard(t, time.Minute)
	ctx := context.Background()

	ok, err := g.Claim(ctx, 7, 1, "push")
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(2 * time.Minute)

	ok, err = g.Claim(ctx, 7, 1, "push")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGuard_Release(t *testing.T) {
	g, _ := setupGuard(t, time.Minute)
	ctx := context.Background()

	_, err := g.Claim(ctx, 3, 9, "sms")
	require.NoError(t, err)
	require.NoError(t, g.Release(ctx, 3, 9, "sms"))

	ok, err := g.Claim(ctx, 3, 9, "sms")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGuard_ServerDown(t *testing.T) {
	g, s := setupGuard(t, time.Minute)
	s.Close()

	_, err := g.Claim(context.Background(), 1, 1, "email")
	assert.Error(t, err)
}
