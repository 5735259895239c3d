// Package common defines shared constants and sentinel errors used across
// the credkeeper server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// ErrInvalidToken is returned for any access token that fails signature,
	// issuer, audience or lifetime checks. The cause is deliberately not
	// exposed.
	ErrInvalidToken = errors.New("invalid token")
)
