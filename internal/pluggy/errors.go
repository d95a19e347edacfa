package pluggy

import (
	"errors"
	"fmt"
)

// APIError is a non-success HTTP response from the aggregator. The client
// never retries; retry policy belongs to the callers.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pluggy API error (status %d): %s", e.StatusCode, e.Body)
}

// AuthError means credential issuance failed. No partial credential is
// retained when it occurs.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("pluggy authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is (or wraps) a credential issuance failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
