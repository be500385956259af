package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

// DeviceInfo is an opaque descriptor of the device that created a session.
// It is diagnostic only and never participates in session validity decisions.
type DeviceInfo struct {
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Record is the durable, store-held representation of which login is currently
// authoritative for an account. At most one CurrentSessionID is authoritative
// per account at any time; a successful login overwrites it unconditionally,
// superseding any prior session.
type Record struct {
	AccountID        string     `json:"account_id"`
	CurrentSessionID string     `json:"current_session_id"`
	LastActivity     time.Time  `json:"last_activity"`
	DeviceInfo       DeviceInfo `json:"device_info,omitempty"`
}

// Matches reports whether sessionID is the authoritative session for this record.
// An empty CurrentSessionID never matches: a cleared record supersedes everyone.
func (r Record) Matches(sessionID string) bool {
	return r.CurrentSessionID != "" && r.CurrentSessionID == sessionID
}

// Idle returns the elapsed duration since the last recorded activity.
// A zero LastActivity yields zero idle time, so a freshly created record is
// never considered expired.
func (r Record) Idle(now time.Time) time.Duration {
	if r.LastActivity.IsZero() {
		return 0
	}
	return now.Sub(r.LastActivity)
}

// Patch is a partial record for merge writes. Nil fields are left untouched;
// a non-nil pointer to the zero value clears the field. Merge semantics are
// last-writer-wins across devices.
type Patch struct {
	CurrentSessionID *string     `json:"current_session_id,omitempty"`
	LastActivity     *time.Time  `json:"last_activity,omitempty"`
	DeviceInfo       *DeviceInfo `json:"device_info,omitempty"`
}

// Apply returns a copy of r with the patch fields merged in.
func (p Patch) Apply(r Record) Record {
	if p.CurrentSessionID != nil {
		r.CurrentSessionID = *p.CurrentSessionID
	}
	if p.LastActivity != nil {
		r.LastActivity = *p.LastActivity
	}
	if p.DeviceInfo != nil {
		r.DeviceInfo = *p.DeviceInfo
	}
	return r
}

// TouchPatch records activity at the given time.
func TouchPatch(at time.Time) Patch {
	return Patch{LastActivity: &at}
}

// LoginPatch installs a freshly generated session id as the authoritative one.
func LoginPatch(sessionID string, at time.Time, device DeviceInfo) Patch {
	return Patch{
		CurrentSessionID: &sessionID,
		LastActivity:     &at,
		DeviceInfo:       &device,
	}
}

// ClearPatch removes the authoritative session id so a stale tab cannot
// resurrect the session after logout.
func ClearPatch(at time.Time) Patch {
	empty := ""
	return Patch{
		CurrentSessionID: &empty,
		LastActivity:     &at,
	}
}

// NewSessionID creates a cryptographically secure session identifier using
// 32 bytes (256 bits) encoded as base64 URL-safe string without padding.
// A new id is generated on every successful login.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrSessionIDGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
