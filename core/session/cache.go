package session

import (
	"sync"
	"time"
)

// LocalCache holds the process-local view of the authenticated session:
// the account identifier, the session id this process believes is
// authoritative, profile fields, and the last known activity timestamp.
// Its lifetime is the authenticated process; it is destroyed on logout,
// forced logout, or process termination.
type LocalCache struct {
	mu           sync.RWMutex
	accountID    string
	sessionID    string
	username     string
	slug         string
	lastActivity time.Time
}

// Snapshot is a point-in-time copy of the cache contents.
type Snapshot struct {
	AccountID    string
	SessionID    string
	Username     string
	Slug         string
	LastActivity time.Time
}

// Authenticated reports whether the snapshot carries a usable login.
func (s Snapshot) Authenticated() bool {
	return s.AccountID != "" && s.SessionID != ""
}

// NewLocalCache returns an empty cache.
func NewLocalCache() *LocalCache {
	return &LocalCache{}
}

// SetLogin installs a fresh login. The session id is set exactly once per
// login and only a new login in the same process replaces it.
func (c *LocalCache) SetLogin(accountID, sessionID string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accountID = accountID
	c.sessionID = sessionID
	c.lastActivity = at
}

// SetProfile stores the display name and URL slug of the logged-in user.
func (c *LocalCache) SetProfile(username, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.slug = slug
}

// Touch records local activity. Timestamps never move backwards, so a late
// coalesced signal cannot overwrite a newer one.
func (c *LocalCache) Touch(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if at.After(c.lastActivity) {
		c.lastActivity = at
	}
}

// Snapshot returns a consistent copy of all fields.
func (c *LocalCache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		AccountID:    c.accountID,
		SessionID:    c.sessionID,
		Username:     c.username,
		Slug:         c.slug,
		LastActivity: c.lastActivity,
	}
}

// Clear wipes every field. Called on all logout paths; no partial session
// state may survive.
func (c *LocalCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accountID = ""
	c.sessionID = ""
	c.username = ""
	c.slug = ""
	c.lastActivity = time.Time{}
}
