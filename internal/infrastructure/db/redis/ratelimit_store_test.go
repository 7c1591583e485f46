package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore_FailsOpenWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRateLimitStore(client, 15*time.Minute, 100, zerolog.Nop())

	allowed, err := store.Allow("203.0.113.7")
	require.Error(t, err)
	assert.True(t, allowed)
}

func TestRateLimitStore_Key(t *testing.T) {
	store := NewRateLimitStore(nil, time.Minute, 1, zerolog.Nop())
	assert.Equal(t, "ratelimit:203.0.113.7", store.key("203.0.113.7"))
}

func newMiniredisStore(t *testing.T, window time.Duration, limit int) (*RateLimitStore, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewRateLimitStore(client, window, limit, zerolog.Nop())
	store.now = func() time.Time { return now }
	return store, &now
}

func TestRateLimitStore_SlidingWindow(t *testing.T) {
	store, now := newMiniredisStore(t, time.Minute, 3)

	var got []bool
	for i := 0; i < 4; i++ {
		allowed, err := store.Allow("203.0.113.7")
		require.NoError(t, err)
		got = append(got, allowed)
	}
	assert.Equal(t, []bool{true, true, true, false}, got)

	*now = now.Add(30 * time.Second)
	allowed, err := store.Allow("203.0.113.7")
	require.NoError(t, err)
	assert.False(t, allowed, "still inside the window")

	*now = now.Add(31 * time.Second)
	allowed, err = store.Allow("203.0.113.7")
	require.NoError(t, err)
	assert.True(t, allowed, "earlier requests have left the window")
}

func TestRateLimitStore_RejectedRequestsAreNotCounted(t *testing.T) {
	store, now := newMiniredisStore(t, time.Minute, 2)

	for i := 0; i < 2; i++ {
		allowed, err := store.Allow("203.0.113.7")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	// rejections in the second half of the window must not extend it
	*now = now.Add(40 * time.Second)
	for i := 0; i < 5; i++ {
		allowed, err := store.Allow("203.0.113.7")
		require.NoError(t, err)
		require.False(t, allowed)
	}

	*now = now.Add(21 * time.Second)
	allowed, err := store.Allow("203.0.113.7")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitStore_BudgetIsPerIdentifier(t *testing.T) {
	store, _ := newMiniredisStore(t, time.Minute, 1)

	allowed, err := store.Allow("203.0.113.7")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = store.Allow("203.0.113.7")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = store.Allow("198.51.100.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}
