// Package store provides database access methods for all blog entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import "errors"

// Domain errors surfaced by store methods. Handlers translate these into
// user-visible warnings rather than failures.
var (
	// ErrSelfReport is returned when a user reports their own comment.
	ErrSelfReport = errors.New("cannot report your own comment")

	// ErrDuplicateReport is returned when a user reports the same comment twice.
	ErrDuplicateReport = errors.New("comment already reported by this user")

	// ErrUsernameTaken is returned on signup with an existing username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken is returned on signup with an existing email address.
	ErrEmailTaken = errors.New("email already registered")
)
