package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/gpu-reservation-poc/pkg/contracts/events"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, ttl), mr
}

func TestKey(t *testing.T) {
	assert.Equal(t, "gpuapi:last_call:user-12345", Key("user-12345"))
}

func TestGetLast_Miss(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	_, ok, err := c.GetLast(context.Background(), "user-12345")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetLast_OverwritesAndExpires(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	first := events.APICallRecorded{
		EventID: "3b6b1c1e-8d0a-4c55-9b1e-5e2f3a9a0001",
		Action:  "get_my_reservations",
		UserID:  "user-abcde",
		Outcome: "ok",
		At:      time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
	second := first
	second.EventID = "3b6b1c1e-8d0a-4c55-9b1e-5e2f3a9a0002"
	second.Action = "cancel_reservation"

	require.NoError(t, c.SetLast(ctx, first))
	require.NoError(t, c.SetLast(ctx, second))

	got, ok, err := c.GetLast(ctx, "user-abcde")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, got)
	assert.Equal(t, time.Hour, mr.TTL(Key("user-abcde")))

	mr.FastForward(time.Hour + time.Second)
	_, ok, err = c.GetLast(ctx, "user-abcde")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetLast_CorruptValue(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	require.NoError(t, mr.Set(Key("user-abcde"), "{not json"))

	_, _, err := c.GetLast(context.Background(), "user-abcde")
	assert.Error(t, err)
}
