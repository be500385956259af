package lifecycle

import (
	"time"

	"github.com/dmitrymomot/sessionguard/core/session"
)

// ActivityKind classifies a user interaction signal. The set is fixed;
// unknown kinds are ignored by the monitor.
type ActivityKind string

const (
	ActivityPointer  ActivityKind = "pointer"
	ActivityKeyboard ActivityKind = "keyboard"
	ActivityScroll   ActivityKind = "scroll"
	ActivityTouch    ActivityKind = "touch"
)

// Valid reports whether k is one of the registered interaction kinds.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityPointer, ActivityKeyboard, ActivityScroll, ActivityTouch:
		return true
	default:
		return false
	}
}

type signalKind int

const (
	sigActivity signalKind = iota
	sigTick
	sigRemote
)

// signal is a typed event pushed by the independent producers (activity
// monitor, timeout supervisor, remote watcher) onto the controller's single
// ordered channel. The run loop drains it one signal at a time, which
// guarantees that no two transitions execute concurrently.
type signal struct {
	kind   signalKind
	at     time.Time
	record session.Record // sigRemote only
}
