package auth

import "errors"

// Sentinel errors returned by the Gateway. Callers match with errors.Is.
var (
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCode        = errors.New("invalid confirmation code")
	ErrExpiredCode        = errors.New("confirmation code expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverifiedAccount  = errors.New("account is not verified")

	// ErrNotAuthenticated marks expected-absence conditions: an operation
	// that needs a live session found none. It is flow control, not a
	// failure, and must not be logged as an error.
	ErrNotAuthenticated = errors.New("not authenticated")
)
