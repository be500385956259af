package async

import (
	"context"
	"time"
)

// Future represents the result of an asynchronous computation that only
// returns an error.
type Future struct {
	err  error
	done chan struct{}
}

// Await blocks until the function completes and returns its error.
func (f *Future) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout waits for completion or the timeout, whichever comes
// first. On timeout ErrTimeout is returned; the underlying function keeps
// running and its result is discarded.
func (f *Future) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// Done reports completion without blocking.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Exec runs fn in a new goroutine and returns a Future for its error.
// A pre-cancelled context short-circuits without invoking fn.
func Exec(ctx context.Context, fn func(context.Context) error) *Future {
	f := &Future{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.err = fn(ctx)
	}()

	return f
}
