package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the response never reveals which one failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUsernameTaken      = errors.New("auth: username already exists")
	ErrEmailTaken         = errors.New("auth: email already exists")
	ErrTokenInvalid       = errors.New("auth: token invalid")
	ErrTokenRevoked       = errors.New("auth: token revoked")
)

// ValidationError carries a client-facing message for malformed input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "auth: " + e.Reason
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
