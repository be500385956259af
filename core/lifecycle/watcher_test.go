package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/lifecycle"
	"github.com/dmitrymomot/sessionguard/core/session"
)

func TestRemoteWatcher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const account = "user@example.com"

	login := func(t *testing.T, store *session.MemoryStore, id string) {
		t.Helper()
		require.NoError(t, store.Merge(ctx, account,
			session.LoginPatch(id, time.Now(), session.DeviceInfo{})))
	}

	t.Run("matching notifications do not fire", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		login(t, store, "session-a")

		w := lifecycle.NewRemoteWatcher(store, nil)
		fired := 0
		require.NoError(t, w.Watch(ctx, account,
			func() string { return "session-a" },
			func(session.Record) { fired++ }))
		defer w.Close()

		require.NoError(t, store.Merge(ctx, account, session.TouchPatch(time.Now())))
		assert.Zero(t, fired)
	})

	t.Run("divergence fires exactly once", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		login(t, store, "session-a")

		w := lifecycle.NewRemoteWatcher(store, nil)
		var got []session.Record
		require.NoError(t, w.Watch(ctx, account,
			func() string { return "session-a" },
			func(rec session.Record) { got = append(got, rec) }))
		defer w.Close()

		// Second device logs in, then keeps producing activity.
		login(t, store, "session-b")
		require.NoError(t, store.Merge(ctx, account, session.TouchPatch(time.Now())))
		require.NoError(t, store.Merge(ctx, account, session.TouchPatch(time.Now())))

		require.Len(t, got, 1, "must not re-fire for the same divergence")
		assert.Equal(t, "session-b", got[0].CurrentSessionID)
	})

	t.Run("cleared session id counts as divergence", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		login(t, store, "session-a")

		w := lifecycle.NewRemoteWatcher(store, nil)
		fired := 0
		require.NoError(t, w.Watch(ctx, account,
			func() string { return "session-a" },
			func(session.Record) { fired++ }))
		defer w.Close()

		require.NoError(t, store.Merge(ctx, account, session.ClearPatch(time.Now())))
		assert.Equal(t, 1, fired)
	})

	t.Run("convergence re-arms the latch", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		login(t, store, "session-a")

		// The local id follows this process's logins, as the controller's
		// cache does.
		localID := "session-a"
		w := lifecycle.NewRemoteWatcher(store, nil)
		var got []session.Record
		require.NoError(t, w.Watch(ctx, account,
			func() string { return localID },
			func(rec session.Record) { got = append(got, rec) }))
		defer w.Close()

		// First divergence fires.
		login(t, store, "session-b")
		require.Len(t, got, 1)

		// The process logs in again and the record matches once more; the
		// next takeover must fire a second time.
		localID = "session-c"
		login(t, store, "session-c")
		require.Len(t, got, 1, "matching record must not fire")

		login(t, store, "session-d")
		require.Len(t, got, 2, "a new divergence fires again")
		assert.Equal(t, "session-d", got[1].CurrentSessionID)
	})

	t.Run("close releases the subscription", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		login(t, store, "session-a")

		w := lifecycle.NewRemoteWatcher(store, nil)
		fired := 0
		require.NoError(t, w.Watch(ctx, account,
			func() string { return "session-a" },
			func(session.Record) { fired++ }))

		require.NoError(t, w.Close())
		require.NoError(t, w.Close()) // idempotent

		login(t, store, "session-b")
		assert.Zero(t, fired)
	})

	t.Run("watch twice without close is a no-op", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		login(t, store, "session-a")

		w := lifecycle.NewRemoteWatcher(store, nil)
		fired := 0
		require.NoError(t, w.Watch(ctx, account,
			func() string { return "session-a" },
			func(session.Record) { fired++ }))
		require.NoError(t, w.Watch(ctx, account,
			func() string { return "session-a" },
			func(session.Record) { fired++ }))
		defer w.Close()

		login(t, store, "session-b")
		assert.Equal(t, 1, fired, "exactly one live subscription at a time")
	})
}
