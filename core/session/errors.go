package session

import "errors"

var (
	// ErrRecordNotFound is returned when no session record exists for the account.
	ErrRecordNotFound = errors.New("session record not found")
	// ErrMissingAccountID is returned when an operation requires a non-empty account identifier.
	ErrMissingAccountID = errors.New("account identifier is required")
	// ErrSessionIDGeneration is returned when generating a session id fails.
	ErrSessionIDGeneration = errors.New("failed to generate session id")
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("record store is closed")
)
