package storage

import "errors"

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("resource already exists")

	// ErrTokenSpent is returned when a registration token is unknown,
	// expired, or already used. The three cases are deliberately not
	// distinguishable so that callers cannot enumerate tokens.
	ErrTokenSpent = errors.New("invalid or expired registration token")
)
