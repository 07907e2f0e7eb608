package auth

import "errors"

// Closed set of failure kinds for the credential and session subsystem.
// Handlers map these to HTTP status codes and must not re-interpret them.
var (
	// ErrValidation marks malformed or out-of-policy input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a username/email uniqueness violation.
	ErrConflict = errors.New("already exists")

	// ErrInvalidCredentials covers unknown email, wrong password and
	// deactivated accounts. The three causes are deliberately
	// indistinguishable so login cannot be used to probe for accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated marks a missing, invalid or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden marks a valid identity with an insufficient role.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited marks an over-quota client; recoverable once the
	// window rolls over.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
)

// Token verification failures. Both wrap into ErrUnauthenticated at the
// service boundary; they stay distinct so callers can tell a tampered
// token (reject) from a stale one (prompt refresh or re-login).
var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)
