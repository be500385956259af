package pg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/session"
	"github.com/dmitrymomot/sessionguard/integration/database/pg"
)

// newIntegrationStore connects to the database named by TEST_PG_CONN_URL and
// applies migrations. Tests are skipped when the variable is unset so the
// suite stays green without a local PostgreSQL.
func newIntegrationStore(t *testing.T) *pg.Store {
	t.Helper()

	connURL := os.Getenv("TEST_PG_CONN_URL")
	if connURL == "" {
		t.Skip("TEST_PG_CONN_URL is not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: connURL,
		RetryAttempts:    1,
		RetryInterval:    100 * time.Millisecond,
		MigrationsTable:  "schema_migrations",
	}

	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, logger.Discard()))
	return pg.NewStore(pool, cfg)
}

// testAccountID returns a unique account per test so runs never interfere.
func testAccountID(t *testing.T) string {
	t.Helper()
	return t.Name() + "-" + uuid.NewString() + "@example.com"
}

func TestStoreIntegration_GetMerge(t *testing.T) {
	t.Parallel()

	store := newIntegrationStore(t)
	ctx := context.Background()
	account := testAccountID(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := store.Get(ctx, account)
	require.ErrorIs(t, err, session.ErrRecordNotFound)

	require.NoError(t, store.Merge(ctx, account,
		session.LoginPatch("sess-1", now, session.DeviceInfo{UserAgent: "laptop", CreatedAt: now})))

	rec, err := store.Get(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, account, rec.AccountID)
	assert.Equal(t, "sess-1", rec.CurrentSessionID)
	assert.True(t, rec.LastActivity.Equal(now))
	assert.Equal(t, "laptop", rec.DeviceInfo.UserAgent)

	// Touch keeps the session id and device.
	later := now.Add(10 * time.Minute)
	require.NoError(t, store.Merge(ctx, account, session.TouchPatch(later)))

	rec, err = store.Get(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", rec.CurrentSessionID)
	assert.True(t, rec.LastActivity.Equal(later))
	assert.Equal(t, "laptop", rec.DeviceInfo.UserAgent)

	// A second login supersedes the first.
	require.NoError(t, store.Merge(ctx, account,
		session.LoginPatch("sess-2", later, session.DeviceInfo{UserAgent: "phone"})))

	rec, err = store.Get(ctx, account)
	require.NoError(t, err)
	assert.True(t, rec.Matches("sess-2"))
	assert.False(t, rec.Matches("sess-1"))

	// Clear leaves the row but removes the authoritative id.
	require.NoError(t, store.Merge(ctx, account, session.ClearPatch(later)))
	rec, err = store.Get(ctx, account)
	require.NoError(t, err)
	assert.Empty(t, rec.CurrentSessionID)
}

func TestStoreIntegration_Subscribe(t *testing.T) {
	t.Parallel()

	store := newIntegrationStore(t)
	ctx := context.Background()
	account := testAccountID(t)
	other := testAccountID(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	changes := make(chan session.Record, 4)
	sub, err := store.Subscribe(ctx, account,
		func(rec session.Record) { changes <- rec }, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	// Another account's change must not leak through the shared channel.
	require.NoError(t, store.Merge(ctx, other,
		session.LoginPatch("sess-other", now, session.DeviceInfo{})))

	require.NoError(t, store.Merge(ctx, account,
		session.LoginPatch("sess-1", now, session.DeviceInfo{})))

	select {
	case rec := <-changes:
		assert.Equal(t, account, rec.AccountID)
		assert.Equal(t, "sess-1", rec.CurrentSessionID)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification received")
	}

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "close must be idempotent")
}
