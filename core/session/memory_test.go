package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/session"
)

func TestMemoryStore_GetMerge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()

	t.Run("get absent record", func(t *testing.T) {
		_, err := store.Get(ctx, "nobody@example.com")
		require.ErrorIs(t, err, session.ErrRecordNotFound)
	})

	t.Run("merge creates record", func(t *testing.T) {
		now := time.Now()
		dev := session.DeviceInfo{UserAgent: "laptop", CreatedAt: now}
		require.NoError(t, store.Merge(ctx, "user@example.com", session.LoginPatch("session-a", now, dev)))

		rec, err := store.Get(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", rec.AccountID)
		assert.Equal(t, "session-a", rec.CurrentSessionID)
		assert.Equal(t, dev, rec.DeviceInfo)
	})

	t.Run("merge is partial", func(t *testing.T) {
		at := time.Now().Add(time.Minute)
		require.NoError(t, store.Merge(ctx, "user@example.com", session.TouchPatch(at)))

		rec, err := store.Get(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, "session-a", rec.CurrentSessionID, "touch must not disturb the session id")
		assert.Equal(t, at, rec.LastActivity)
	})

	t.Run("empty account id rejected", func(t *testing.T) {
		_, err := store.Get(ctx, "")
		require.ErrorIs(t, err, session.ErrMissingAccountID)
		require.ErrorIs(t, store.Merge(ctx, "", session.Patch{}), session.ErrMissingAccountID)
	})
}

func TestMemoryStore_Subscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("subscriber observes merges for its account only", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		var got []session.Record
		sub, err := store.Subscribe(ctx, "a@example.com", func(rec session.Record) {
			got = append(got, rec)
		}, nil)
		require.NoError(t, err)
		defer sub.Close()

		now := time.Now()
		require.NoError(t, store.Merge(ctx, "a@example.com", session.TouchPatch(now)))
		require.NoError(t, store.Merge(ctx, "b@example.com", session.TouchPatch(now)))

		require.Len(t, got, 1)
		assert.Equal(t, "a@example.com", got[0].AccountID)
	})

	t.Run("closed subscription receives nothing", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		calls := 0
		sub, err := store.Subscribe(ctx, "a@example.com", func(session.Record) { calls++ }, nil)
		require.NoError(t, err)

		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close()) // double close is a no-op

		require.NoError(t, store.Merge(ctx, "a@example.com", session.TouchPatch(time.Now())))
		assert.Zero(t, calls)
	})

	t.Run("second login is visible to the first device", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		now := time.Now()
		require.NoError(t, store.Merge(ctx, "a@example.com",
			session.LoginPatch("device-a", now, session.DeviceInfo{UserAgent: "laptop"})))

		var observed session.Record
		sub, err := store.Subscribe(ctx, "a@example.com", func(rec session.Record) {
			observed = rec
		}, nil)
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, store.Merge(ctx, "a@example.com",
			session.LoginPatch("device-b", now.Add(time.Second), session.DeviceInfo{UserAgent: "phone"})))

		assert.False(t, observed.Matches("device-a"), "first device must observe divergence")
		assert.True(t, observed.Matches("device-b"))
	})
}

func TestMemoryStore_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Close())

	_, err := store.Get(ctx, "a@example.com")
	require.ErrorIs(t, err, session.ErrStoreClosed)
	require.ErrorIs(t, store.Merge(ctx, "a@example.com", session.Patch{}), session.ErrStoreClosed)

	_, err = store.Subscribe(ctx, "a@example.com", nil, nil)
	require.ErrorIs(t, err, session.ErrStoreClosed)
}
