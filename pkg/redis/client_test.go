package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/craftmarket/bundles-backend/pkg/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromClient(raw), mr
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.DraftKey("seller-1", "draft-9"); got != "cb:draft:seller-1:draft-9" {
		t.Fatalf("unexpected draft key %s", got)
	}
	if got := client.DraftLeaseKey("draft-9"); got != "cb:lease:draft:draft-9" {
		t.Fatalf("unexpected lease key %s", got)
	}
	if got := client.buildKey("draft", "", " x "); got != "cb:draft:x" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
	require.Equal(t, time.Minute, mr.TTL("k"))

	require.NoError(t, client.Del(ctx, "k"))
	_, err = client.Get(ctx, "k")
	require.ErrorIs(t, err, Nil)
}

func TestWithLeaseReleasesOnReturn(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	key := client.DraftLeaseKey("d1")

	calls := 0
	err := client.WithLease(ctx, key, time.Second, 0, func(context.Context) error {
		calls++
		require.True(t, mr.Exists(key))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.False(t, mr.Exists(key))

	boom := errors.New("boom")
	err = client.WithLease(ctx, key, time.Second, 0, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists(key), "lease released after callback error")
}

func TestWithLeaseHeldByOther(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	key := client.DraftLeaseKey("d2")
	require.NoError(t, mr.Set(key, "someone-else"))

	err := client.WithLease(ctx, key, time.Second, 120*time.Millisecond, func(context.Context) error {
		t.Fatal("callback must not run without the lease")
		return nil
	})
	require.ErrorIs(t, err, ErrLeaseHeld)

	got, _ := mr.Get(key)
	require.Equal(t, "someone-else", got, "foreign lease untouched")
}

func TestWithLeaseDoesNotDeleteForeignToken(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	key := client.DraftLeaseKey("d3")

	err := client.WithLease(ctx, key, time.Second, 0, func(context.Context) error {
		// simulate expiry and takeover by another editor
		return mr.Set(key, "new-owner")
	})
	require.NoError(t, err)
	got, _ := mr.Get(key)
	require.Equal(t, "new-owner", got)
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)
	require.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6380", DB: 3})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 3, opts.DB)
}

func TestWithLeaseRenewsWhileCallbackRuns(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	key := client.DraftLeaseKey("d4")

	err := client.WithLease(ctx, key, 300*time.Millisecond, 0, func(context.Context) error {
		mr.FastForward(250 * time.Millisecond)
		time.Sleep(150 * time.Millisecond)
		mr.FastForward(100 * time.Millisecond)
		require.True(t, mr.Exists(key), "lease outlived its original ttl")
		return nil
	})
	require.NoError(t, err)
	require.False(t, mr.Exists(key))
}

func TestWithLeaseCancelsCallbackWhenLost(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	key := client.DraftLeaseKey("d5")

	err := client.WithLease(ctx, key, 150*time.Millisecond, 0, func(leaseCtx context.Context) error {
		require.NoError(t, mr.Set(key, "new-owner"))
		select {
		case <-leaseCtx.Done():
			return context.Cause(leaseCtx)
		case <-time.After(time.Second):
			return errors.New("callback was not cancelled")
		}
	})
	require.ErrorIs(t, err, ErrLeaseLost)
	got, _ := mr.Get(key)
	require.Equal(t, "new-owner", got)
}
