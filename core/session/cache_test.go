package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sessionguard/core/session"
)

func TestLocalCache(t *testing.T) {
	t.Parallel()

	t.Run("empty cache is not authenticated", func(t *testing.T) {
		t.Parallel()

		snap := session.NewLocalCache().Snapshot()
		assert.False(t, snap.Authenticated())
	})

	t.Run("login seeds all session fields", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		cache := session.NewLocalCache()
		cache.SetLogin("user@example.com", "session-a", now)
		cache.SetProfile("Jane Doe", "jane-doe-a1b2c3")

		snap := cache.Snapshot()
		assert.True(t, snap.Authenticated())
		assert.Equal(t, "user@example.com", snap.AccountID)
		assert.Equal(t, "session-a", snap.SessionID)
		assert.Equal(t, "Jane Doe", snap.Username)
		assert.Equal(t, "jane-doe-a1b2c3", snap.Slug)
		assert.Equal(t, now, snap.LastActivity)
	})

	t.Run("touch never moves activity backwards", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		cache := session.NewLocalCache()
		cache.SetLogin("user@example.com", "session-a", now)

		cache.Touch(now.Add(time.Minute))
		cache.Touch(now.Add(-time.Hour)) // stale coalesced signal

		assert.Equal(t, now.Add(time.Minute), cache.Snapshot().LastActivity)
	})

	t.Run("clear wipes every field", func(t *testing.T) {
		t.Parallel()

		cache := session.NewLocalCache()
		cache.SetLogin("user@example.com", "session-a", time.Now())
		cache.SetProfile("Jane Doe", "jane-doe-a1b2c3")

		cache.Clear()

		snap := cache.Snapshot()
		assert.Equal(t, session.Snapshot{}, snap)
		assert.False(t, snap.Authenticated())
	})

	t.Run("concurrent touch and snapshot are safe", func(t *testing.T) {
		t.Parallel()

		cache := session.NewLocalCache()
		cache.SetLogin("user@example.com", "session-a", time.Now())

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				cache.Touch(time.Now())
			}()
			go func() {
				defer wg.Done()
				_ = cache.Snapshot()
			}()
		}
		wg.Wait()

		assert.True(t, cache.Snapshot().Authenticated())
	})
}
