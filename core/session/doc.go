// Package session defines the session record data model and the durable
// store contract shared by all devices of an account.
//
// A Record holds which login is currently authoritative for an account:
// exactly one CurrentSessionID is valid at any time, and a new login
// overwrites it unconditionally. A device whose local session id no longer
// matches the stored one has diverged and must self-invalidate.
//
// # Store Contract
//
// RecordStore is a keyed store with read, write-with-merge, and
// subscribe-to-changes capabilities:
//
//	rec, err := store.Get(ctx, accountID)
//
//	err = store.Merge(ctx, accountID, session.TouchPatch(time.Now()))
//
//	sub, err := store.Subscribe(ctx, accountID, onChange, onErr)
//	defer sub.Close()
//
// Merge applies a partial Patch with last-writer-wins semantics; there is no
// cross-device transaction. Correctness relies on the invariant that only a
// fresh login sets CurrentSessionID, so a losing device always observes a
// divergence and self-invalidates instead of overwriting the winner.
//
// # Local State
//
// LocalCache is the process-local counterpart: the account id, the session id
// this process believes is authoritative, profile fields, and the last known
// activity timestamp. It is cleared completely on every logout path.
//
// MemoryStore provides an in-process RecordStore implementation used by tests
// and single-process deployments. Redis and Postgres implementations live
// under integration/database.
package session
