package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed        = fmt.Errorf("authorization failed")
	ErrNotAuthenticated  = fmt.Errorf("not authenticated")
	ErrTokenExpired      = fmt.Errorf("access token expired")
	ErrNoRefreshToken    = fmt.Errorf("no refresh token available")
	ErrStateMismatch     = fmt.Errorf("state mismatch")
	ErrMalformedResponse = fmt.Errorf("malformed token response")
	ErrTimeout           = fmt.Errorf("operation timed out")

	// Credential cache errors
	ErrCacheCorrupt = fmt.Errorf("cached credential is corrupt")
	ErrNoMigrations = fmt.Errorf("no applied migrations")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
