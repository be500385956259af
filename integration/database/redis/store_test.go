package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/session"
	"github.com/dmitrymomot/sessionguard/integration/database/redis"
)

func newTestStore(t *testing.T) (*redis.Store, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewStore(client, redis.Config{KeyPrefix: "sessionguard"}), client
}

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://" + mr.Addr(),
			RetryAttempts:  1,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		require.NoError(t, client.Ping(context.Background()).Err())
	})

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Connect(context.Background(), redis.Config{})
		require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("malformed url", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://nope"})
		require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://127.0.0.1:1",
			RetryAttempts:  1,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: 500 * time.Millisecond,
		})
		require.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	check := redis.Healthcheck(client)
	require.NoError(t, check(context.Background()))

	mr.Close()
	require.ErrorIs(t, check(context.Background()), redis.ErrHealthcheckFailed)
}

func TestStore_GetMerge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing record", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		_, err := store.Get(ctx, "nobody@example.com")
		require.ErrorIs(t, err, session.ErrRecordNotFound)
	})

	t.Run("empty account id", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		_, err := store.Get(ctx, "")
		require.ErrorIs(t, err, session.ErrMissingAccountID)
		require.ErrorIs(t, store.Merge(ctx, "", session.TouchPatch(now)), session.ErrMissingAccountID)
	})

	t.Run("login creates the record", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		device := session.DeviceInfo{UserAgent: "laptop", CreatedAt: now}
		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("sess-1", now, device)))

		rec, err := store.Get(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", rec.AccountID)
		assert.Equal(t, "sess-1", rec.CurrentSessionID)
		assert.True(t, rec.LastActivity.Equal(now))
		assert.Equal(t, "laptop", rec.DeviceInfo.UserAgent)
	})

	t.Run("touch preserves unrelated fields", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("sess-1", now, session.DeviceInfo{UserAgent: "laptop"})))

		later := now.Add(10 * time.Minute)
		require.NoError(t, store.Merge(ctx, "user@example.com", session.TouchPatch(later)))

		rec, err := store.Get(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", rec.CurrentSessionID)
		assert.True(t, rec.LastActivity.Equal(later))
		assert.Equal(t, "laptop", rec.DeviceInfo.UserAgent)
	})

	t.Run("last login wins", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("device-a", now, session.DeviceInfo{UserAgent: "laptop"})))
		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("device-b", now.Add(time.Minute), session.DeviceInfo{UserAgent: "phone"})))

		rec, err := store.Get(ctx, "user@example.com")
		require.NoError(t, err)
		assert.True(t, rec.Matches("device-b"))
		assert.False(t, rec.Matches("device-a"))
	})

	t.Run("clear removes the session id", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("sess-1", now, session.DeviceInfo{})))
		require.NoError(t, store.Merge(ctx, "user@example.com", session.ClearPatch(now.Add(time.Minute))))

		rec, err := store.Get(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Empty(t, rec.CurrentSessionID)
		assert.False(t, rec.Matches("sess-1"))
	})
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("observes merges", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		changes := make(chan session.Record, 4)
		sub, err := store.Subscribe(ctx, "user@example.com",
			func(rec session.Record) { changes <- rec }, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sub.Close() })

		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("sess-1", now, session.DeviceInfo{})))

		select {
		case rec := <-changes:
			assert.Equal(t, "sess-1", rec.CurrentSessionID)
			assert.Equal(t, "user@example.com", rec.AccountID)
		case <-time.After(time.Second):
			t.Fatal("no change notification received")
		}
	})

	t.Run("scoped to the account", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		changes := make(chan session.Record, 4)
		sub, err := store.Subscribe(ctx, "user@example.com",
			func(rec session.Record) { changes <- rec }, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sub.Close() })

		require.NoError(t, store.Merge(ctx, "other@example.com",
			session.LoginPatch("sess-x", now, session.DeviceInfo{})))

		select {
		case rec := <-changes:
			t.Fatalf("unexpected notification for %s", rec.AccountID)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("second login reaches the first device", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("device-a", now, session.DeviceInfo{UserAgent: "laptop"})))

		changes := make(chan session.Record, 4)
		sub, err := store.Subscribe(ctx, "user@example.com",
			func(rec session.Record) { changes <- rec }, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sub.Close() })

		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("device-b", now.Add(time.Minute), session.DeviceInfo{UserAgent: "phone"})))

		select {
		case rec := <-changes:
			assert.False(t, rec.Matches("device-a"), "device A must observe it lost the session")
			assert.True(t, rec.Matches("device-b"))
		case <-time.After(time.Second):
			t.Fatal("no change notification received")
		}
	})

	t.Run("closed subscription stops delivery", func(t *testing.T) {
		t.Parallel()

		store, _ := newTestStore(t)
		changes := make(chan session.Record, 4)
		sub, err := store.Subscribe(ctx, "user@example.com",
			func(rec session.Record) { changes <- rec }, nil)
		require.NoError(t, err)
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close(), "close must be idempotent")

		require.NoError(t, store.Merge(ctx, "user@example.com",
			session.LoginPatch("sess-1", now, session.DeviceInfo{})))

		select {
		case <-changes:
			t.Fatal("notification delivered after close")
		case <-time.After(100 * time.Millisecond):
		}
	})
}
