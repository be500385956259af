package lifecycle

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/sessionguard/core/session"
)

// ActivityMonitor accepts user interaction reports (pointer, keyboard,
// scroll, touch) and forwards them to the controller as coalesced activity
// signals. The local cache always records the newest timestamp, so bursts of
// reports collapse into one pending signal without losing the "activity
// occurred" decision or persisting a stale timestamp.
type ActivityMonitor struct {
	cache *session.LocalCache
	clock func() time.Time

	mu   sync.Mutex
	sink func(at time.Time)

	pending atomic.Bool
}

func newActivityMonitor(cache *session.LocalCache, clock func() time.Time) *ActivityMonitor {
	return &ActivityMonitor{cache: cache, clock: clock}
}

// Report registers an interaction of the given kind. Unknown kinds are
// ignored. Reports while monitoring is not armed only refresh the local
// timestamp.
func (m *ActivityMonitor) Report(kind ActivityKind) {
	if !kind.Valid() {
		return
	}

	now := m.clock()
	m.cache.Touch(now)

	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	if sink == nil {
		return
	}

	// One in-flight signal per burst; the controller reads the freshest
	// timestamp from the cache when it consumes it.
	if !m.pending.Swap(true) {
		sink(now)
	}
}

func (m *ActivityMonitor) arm(sink func(at time.Time)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
	m.pending.Store(false)
}

func (m *ActivityMonitor) disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = nil
	m.pending.Store(false)
}

// consumed marks the pending signal as handled so the next report enqueues
// a fresh one.
func (m *ActivityMonitor) consumed() {
	m.pending.Store(false)
}
