package middleware

import (
	"net/http"

	"github.com/dmitrymomot/sessionguard/core/lifecycle"
)

// ActivityHeader carries the activity kind reported by the client.
const ActivityHeader = "X-Activity-Kind"

// ActivityReporter receives activity signals. *lifecycle.ActivityMonitor
// satisfies it.
type ActivityReporter interface {
	Report(kind lifecycle.ActivityKind)
}

// ActivityConfig configures the activity middleware.
type ActivityConfig struct {
	// Skip defines a function to skip middleware execution for specific
	// requests, e.g. health probes and static assets.
	Skip func(r *http.Request) bool
	// HeaderName overrides the header the kind is read from (default
	// "X-Activity-Kind").
	HeaderName string
	// DefaultKind is reported when the header is absent or carries an
	// unknown value (default pointer). A request reaching the handler is
	// user interaction regardless of how it was labeled.
	DefaultKind lifecycle.ActivityKind
}

// Activity creates an activity middleware with default configuration.
// Every request passing through it refreshes the session idle timer.
func Activity(reporter ActivityReporter) func(http.Handler) http.Handler {
	return ActivityWithConfig(reporter, ActivityConfig{})
}

// ActivityWithConfig creates an activity middleware with custom configuration.
func ActivityWithConfig(reporter ActivityReporter, cfg ActivityConfig) func(http.Handler) http.Handler {
	if cfg.HeaderName == "" {
		cfg.HeaderName = ActivityHeader
	}
	if !cfg.DefaultKind.Valid() {
		cfg.DefaultKind = lifecycle.ActivityPointer
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			kind := lifecycle.ActivityKind(r.Header.Get(cfg.HeaderName))
			if !kind.Valid() {
				kind = cfg.DefaultKind
			}
			reporter.Report(kind)

			next.ServeHTTP(w, r)
		})
	}
}
