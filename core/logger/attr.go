package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// This allows calls like log.Info("msg", logger.Error(err)) without explicit
// nil checks, following the principle of making zero values useful.

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors, enabling safe usage without nil checks.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component identifies the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event names the lifecycle event being logged (e.g. "forced_logout").
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// AccountID attaches the account identifier owning the session record.
func AccountID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("account_id", id)
}

// SessionID attaches the session identifier. Only a short prefix is logged
// so the full token never reaches log storage.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return slog.String("session_id", id)
}

// Phase records the controller phase as a string.
func Phase(p string) slog.Attr {
	return slog.String("phase", p)
}

// Reason carries the human-readable reason of a forced logout.
func Reason(r string) slog.Attr {
	if r == "" {
		return slog.Attr{}
	}
	return slog.String("reason", r)
}

// Idle records how long the session has been without activity.
func Idle(d time.Duration) slog.Attr {
	return slog.Duration("idle", d)
}

// Remaining records time left before an idle session expires.
func Remaining(d time.Duration) slog.Attr {
	return slog.Duration("remaining", d)
}
