package lifecycle

import "errors"

var (
	// ErrNilStore is returned when constructing a controller without a record store.
	ErrNilStore = errors.New("record store is required")
	// ErrInvalidConfig is returned when the timing model is inconsistent.
	ErrInvalidConfig = errors.New("invalid lifecycle configuration")
	// ErrStartSession is returned when bootstrapping a new session fails.
	ErrStartSession = errors.New("failed to start session")
	// ErrUpdateActivity is returned when persisting an activity refresh fails.
	// The session remains valid locally; the error is informational.
	ErrUpdateActivity = errors.New("failed to update last activity")
)
