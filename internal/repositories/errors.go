// Package repositories implements data access for users, checklists,
// single-use links, and the checklist type catalog on top of the kv.Store
// abstraction.
//
// Repositories return the sentinel errors below for domain outcomes so
// handlers can map them to HTTP status codes without string matching.
// Storage failures are wrapped with context and satisfy none of the
// sentinels.
package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a create collided with an existing record
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidInput indicates the caller supplied an unusable value
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials indicates a failed login. It deliberately does
	// not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLinkUsed indicates the single-use link was already consumed
	ErrLinkUsed = errors.New("link already used")

	// ErrLinkExpired indicates the link's validity window has passed
	ErrLinkExpired = errors.New("link expired")
)
