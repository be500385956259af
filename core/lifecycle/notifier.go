package lifecycle

import (
	"context"
	"time"
)

// Human-readable forced-logout reasons surfaced to the user.
const (
	ReasonExpired     = "Session expired due to inactivity"
	ReasonInvalidated = "Session invalidated - logged in from another device"
)

// Notifier receives the two user-visible lifecycle outcomes. Callbacks are
// invoked from the controller's serialized event path and must not call back
// into the controller synchronously.
type Notifier interface {
	// SessionWarning fires at most once per threshold crossing with the time
	// remaining before expiry.
	SessionWarning(remaining time.Duration)

	// ForcedLogout fires after cleanup of a system-initiated logout with the
	// human-readable reason.
	ForcedLogout(reason string)
}

// NotifierFuncs adapts plain functions to the Notifier interface.
// Nil functions are ignored, so the zero value is a valid no-op Notifier.
type NotifierFuncs struct {
	OnWarning      func(remaining time.Duration)
	OnForcedLogout func(reason string)
}

func (n NotifierFuncs) SessionWarning(remaining time.Duration) {
	if n.OnWarning != nil {
		n.OnWarning(remaining)
	}
}

func (n NotifierFuncs) ForcedLogout(reason string) {
	if n.OnForcedLogout != nil {
		n.OnForcedLogout(reason)
	}
}

// Navigator performs the navigation-away side effect after logout so the user
// cannot keep interacting with a UI that believes it is still authenticated.
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) {
	if f != nil {
		f(path)
	}
}

// IdentityProvider revokes the upstream provider session during logout.
// Sign-out failures are logged and never abort the remaining cleanup steps.
type IdentityProvider interface {
	SignOut(ctx context.Context) error
}

// NoopIdentityProvider is used when the upstream provider needs no explicit
// revocation.
type NoopIdentityProvider struct{}

func (NoopIdentityProvider) SignOut(context.Context) error { return nil }

// MinutesRemaining converts a remaining duration to whole minutes, rounding
// up, for "session expires in N minutes" messages.
func MinutesRemaining(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Minute - 1) / time.Minute)
}
