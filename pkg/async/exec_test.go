package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/async"
)

func TestExec(t *testing.T) {
	t.Parallel()

	t.Run("returns function error", func(t *testing.T) {
		t.Parallel()

		want := errors.New("boom")
		fut := async.Exec(context.Background(), func(context.Context) error {
			return want
		})
		require.ErrorIs(t, fut.Await(), want)
		assert.True(t, fut.Done())
	})

	t.Run("nil error on success", func(t *testing.T) {
		t.Parallel()

		fut := async.Exec(context.Background(), func(context.Context) error {
			return nil
		})
		require.NoError(t, fut.Await())
	})

	t.Run("pre-cancelled context skips the function", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		fut := async.Exec(ctx, func(context.Context) error {
			called = true
			return nil
		})
		require.ErrorIs(t, fut.Await(), context.Canceled)
		assert.False(t, called)
	})

	t.Run("await with timeout", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		fut := async.Exec(context.Background(), func(context.Context) error {
			<-block
			return nil
		})

		require.ErrorIs(t, fut.AwaitWithTimeout(20*time.Millisecond), async.ErrTimeout)
		assert.False(t, fut.Done())

		close(block)
		require.NoError(t, fut.Await())
	})
}
