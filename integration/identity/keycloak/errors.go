package keycloak

import "errors"

// Domain-specific Keycloak errors checked with errors.Is().
var (
	ErrMissingBaseURL  = errors.New("empty keycloak base URL")
	ErrMissingRealm    = errors.New("empty keycloak realm")
	ErrMissingClientID = errors.New("empty keycloak client id")
	ErrLogoutFailed    = errors.New("keycloak logout request failed")
)
