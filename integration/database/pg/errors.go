package pg

import "errors"

// Domain-specific PostgreSQL errors for consistent error handling across the application.
// Use errors.Is() to check error types for retry logic and user-facing messages.
var (
	ErrEmptyConnectionString = errors.New("empty postgres connection string")
	ErrFailedToParseConnCfg  = errors.New("failed to parse postgres connection config")
	ErrPostgresNotReady      = errors.New("postgres did not become ready within the given time period")
	ErrHealthcheckFailed     = errors.New("postgres healthcheck failed")
	ErrMigrationFailed       = errors.New("failed to apply database migrations")
	ErrDecodePayload         = errors.New("failed to decode change notification payload")
)
