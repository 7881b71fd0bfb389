// Package common defines shared constants and sentinel errors used across
// the accounts service layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Account lifecycle errors.
	ErrDuplicateEmail     = errors.New("that email is not available")
	ErrPasswordMismatch   = errors.New("the passwords must be equal")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("activation token not found")
	ErrTokenAlreadyUsed   = errors.New("activation token has already been used")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDependencyUnavailable wraps failures of the store, hasher, signer
	// or mail gateway.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// Request validation errors.
	ErrValidation = errors.New("validation error")

	// Bearer token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
