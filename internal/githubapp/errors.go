package githubapp

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAppID      = errors.New("app id not configured")
	ErrMissingPrivateKey = errors.New("private key not configured")
)

// AuthError reports a configuration or token exchange failure.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github app %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is, or wraps, an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
