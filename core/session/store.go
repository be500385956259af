package session

import "context"

// Subscription is a cancellable handle to a change-notification stream.
// Close releases the underlying resources; closing an already-closed
// subscription is a no-op.
type Subscription interface {
	Close() error
}

// RecordStore defines the persistence contract for session records: a keyed,
// durable store shared across all devices of one account. Implementations must
// handle concurrent access safely; the only cross-device mutation discipline is
// last-writer-wins.
type RecordStore interface {
	// Get returns the record for the account, or ErrRecordNotFound.
	Get(ctx context.Context, accountID string) (Record, error)

	// Merge applies a partial update to the account's record, creating it if
	// absent, and notifies subscribers of the resulting state.
	Merge(ctx context.Context, accountID string, patch Patch) error

	// Subscribe delivers the record to onChange after each remote mutation of
	// the account's record. Transport failures go to onErr and must never be
	// treated as data divergence. The returned Subscription must be released
	// on every exit path.
	Subscribe(ctx context.Context, accountID string, onChange func(Record), onErr func(error)) (Subscription, error)
}
