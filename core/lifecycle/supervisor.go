package lifecycle

import (
	"sync"
	"time"
)

// Verdict is the outcome of an idle-time evaluation.
type Verdict int

const (
	// VerdictActive means the session is within normal idle bounds.
	VerdictActive Verdict = iota
	// VerdictWarn means idle time has entered the warning window.
	VerdictWarn
	// VerdictExpire means idle time has reached the timeout threshold.
	VerdictExpire
)

// TimeoutSupervisor re-evaluates idle time on a fixed period and classifies
// it against the warning and expiry thresholds. Evaluation is stateless; the
// one-shot warning suppression lives in the controller, and expiry is checked
// unconditionally on every tick so a missed warning still leads to expiry.
type TimeoutSupervisor struct {
	timeout       time.Duration
	warningWindow time.Duration
	interval      time.Duration
	clock         func() time.Time
	onTick        func(now time.Time)

	mu   sync.Mutex
	stop chan struct{}
}

// NewTimeoutSupervisor creates a supervisor that calls onTick every interval.
func NewTimeoutSupervisor(timeout, warningWindow, interval time.Duration, clock func() time.Time, onTick func(time.Time)) *TimeoutSupervisor {
	if clock == nil {
		clock = time.Now
	}
	return &TimeoutSupervisor{
		timeout:       timeout,
		warningWindow: warningWindow,
		interval:      interval,
		clock:         clock,
		onTick:        onTick,
	}
}

// Start arms the recurring timer. Calling Start on a running supervisor is a no-op.
func (s *TimeoutSupervisor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.onTick(s.clock())
			}
		}
	}()
}

// Stop releases the timer. Safe to call multiple times and while stopped.
func (s *TimeoutSupervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

// Check classifies the idle time at now against the thresholds and returns
// the time remaining before expiry. A zero lastActivity counts as no idle
// time, so a freshly started session never expires on its first tick.
func (s *TimeoutSupervisor) Check(lastActivity, now time.Time) (Verdict, time.Duration) {
	if lastActivity.IsZero() {
		return VerdictActive, s.timeout
	}

	idle := now.Sub(lastActivity)
	remaining := s.timeout - idle
	switch {
	case idle >= s.timeout:
		return VerdictExpire, 0
	case idle >= s.timeout-s.warningWindow:
		return VerdictWarn, remaining
	default:
		return VerdictActive, remaining
	}
}
