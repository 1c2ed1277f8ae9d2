package auth

import (
	"errors"
	"fmt"

	"github.com/desertthunder/spotx/internal/shared"
)

// AuthorizationError reports a non-success response from the token or authorization endpoint, or a rejected redirect.
type AuthorizationError struct {
	StatusCode int    // HTTP status of the token endpoint, 0 for locally detected failures
	Reason     string // server- or locally-generated reason
	Err        error  // optional cause
}

func (e *AuthorizationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v (status %d): %s", shared.ErrAuthFailed, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("%v: %s", shared.ErrAuthFailed, e.Reason)
}

func (e *AuthorizationError) Is(target error) bool {
	return target == shared.ErrAuthFailed
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a success response that is missing a required field or is not valid JSON.
type MalformedResponseError struct {
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%v: missing %s", shared.ErrMalformedResponse, e.Field)
	}
	return fmt.Sprintf("%v: %v", shared.ErrMalformedResponse, e.Err)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == shared.ErrMalformedResponse
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// CacheCorruptError reports stored credential data that cannot be read back as a Token.
type CacheCorruptError struct {
	ID  string
	Err error
}

func (e *CacheCorruptError) Error() string {
	return fmt.Sprintf("%v: %s: %v", shared.ErrCacheCorrupt, e.ID, e.Err)
}

func (e *CacheCorruptError) Is(target error) bool {
	return target == shared.ErrCacheCorrupt
}

func (e *CacheCorruptError) Unwrap() error {
	return e.Err
}

// IsAuthorizationError reports whether err carries an [AuthorizationError].
func IsAuthorizationError(err error) bool {
	var authErr *AuthorizationError
	return errors.As(err, &authErr)
}
