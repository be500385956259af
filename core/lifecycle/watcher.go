package lifecycle

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/sessionguard/core/logger"
	"github.com/dmitrymomot/sessionguard/core/session"
)

// RemoteWatcher subscribes to record changes for one account and raises an
// invalidation exactly once when the remote session id diverges from the
// local one. Transport errors are logged and never treated as divergence,
// leaving the session in its last-known-valid state.
type RemoteWatcher struct {
	store session.RecordStore
	log   *slog.Logger

	mu    sync.Mutex
	sub   session.Subscription
	fired bool
}

// NewRemoteWatcher creates a watcher over the given store.
func NewRemoteWatcher(store session.RecordStore, log *slog.Logger) *RemoteWatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &RemoteWatcher{store: store, log: log}
}

// Watch subscribes to change notifications for accountID. localID is
// re-read on every notification so a login happening in this process is
// compared against its own fresh id. onInvalidated fires at most once per
// divergence: repeated divergent notifications are suppressed until a
// matching record re-arms the latch.
func (w *RemoteWatcher) Watch(ctx context.Context, accountID string, localID func() string, onInvalidated func(session.Record)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sub != nil {
		return nil // already watching
	}
	w.fired = false

	sub, err := w.store.Subscribe(ctx, accountID,
		func(rec session.Record) {
			if rec.Matches(localID()) {
				// A matching record re-arms the latch so a later
				// divergence raises a fresh invalidation.
				w.mu.Lock()
				w.fired = false
				w.mu.Unlock()
				return
			}

			w.mu.Lock()
			if w.fired {
				w.mu.Unlock()
				return
			}
			w.fired = true
			w.mu.Unlock()

			w.log.Info("remote session divergence detected",
				logger.Component("watcher"),
				logger.AccountID(rec.AccountID),
			)
			onInvalidated(rec)
		},
		func(err error) {
			w.log.Error("session change subscription error",
				logger.Error(err),
				logger.Component("watcher"),
				logger.AccountID(accountID),
			)
		},
	)
	if err != nil {
		return err
	}

	w.sub = sub
	return nil
}

// Close releases the subscription. Safe to call multiple times and while not
// watching.
func (w *RemoteWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub == nil {
		return nil
	}
	err := w.sub.Close()
	w.sub = nil
	return err
}
