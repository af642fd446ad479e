package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideCachesFetchResult(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 1, Name: "alice"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &first, UserTTL, fetch(&first)))
	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(1), &second, UserTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("user:1"))
	assert.Equal(t, UserTTL, mr.TTL("user:1"))

	InvalidateUser(ctx, 1)
	assert.False(t, mr.Exists("user:1"))
}

func TestAsideFetchErrorNotCached(t *testing.T) {
	mr := setupRedis(t)
	boom := errors.New("boom")

	var u cachedUser
	err := Aside(context.Background(), ChannelStatsKey(3), &u, ChannelStatsTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("channel:3:stats"))
}

func TestHelpersWithoutRedis(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	found, err := GetJSON(ctx, "missing", &cachedUser{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetJSON(ctx, "k", cachedUser{}, time.Minute))

	calls := 0
	var u cachedUser
	require.NoError(t, Aside(ctx, UserKey(2), &u, UserTTL, func() error { calls++; return nil }))
	require.NoError(t, Aside(ctx, UserKey(2), &u, UserTTL, func() error { calls++; return nil }))
	assert.Equal(t, 2, calls)

	bl := NewTokenBlacklist()
	assert.NoError(t, bl.Revoke(ctx, "jti", time.Minute))
	revoked, err := bl.IsRevoked(ctx, "jti")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()
	bl := NewTokenBlacklist()

	require.NoError(t, bl.Revoke(ctx, "abc", 15*time.Minute))
	revoked, err := bl.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 15*time.Minute, mr.TTL("blacklist:abc"))

	revoked, err = bl.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(16 * time.Minute)
	revoked, err = bl.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "expired", 0))
	assert.False(t, mr.Exists("blacklist:expired"))
}

func TestWSTickets(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()
	tickets := NewWSTickets()

	ticket, err := tickets.Issue(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, WSTicketTTL, mr.TTL(WSTicketKey(ticket)))

	userID, ok, err := tickets.Redeem(ctx, ticket)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(42), userID)

	_, ok, err = tickets.Redeem(ctx, ticket)
	require.NoError(t, err)
	assert.False(t, ok, "tickets are single use")

	expiring, err := tickets.Issue(ctx, 7)
	require.NoError(t, err)
	mr.FastForward(WSTicketTTL + time.Second)
	_, ok, err = tickets.Redeem(ctx, expiring)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWSTicketsWithoutRedis(t *testing.T) {
	SetClient(nil)
	_, err := NewWSTickets().Issue(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTicketsUnavailable)
}

func TestClientOptions(t *testing.T) {
	opts, err := clientOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = clientOptions("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = clientOptions("  ")
	assert.Error(t, err)
	_, err = clientOptions("redis://host:6379/notadb")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	t.Cleanup(func() { SetClient(nil) })
	mr := miniredis.RunT(t)

	rdb := Connect(context.Background(), mr.Addr())
	require.NotNil(t, rdb)
	assert.Same(t, rdb, client)

	mr.Close()
	assert.Nil(t, Connect(context.Background(), mr.Addr()))
	assert.Nil(t, client)
}
