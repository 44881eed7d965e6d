package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFilter marks malformed query input (inverted or negative
	// ranges, non-positive windows). Callers surface it, they never retry.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrConflict is a generic sentinel for duplicate writes.
	ErrConflict = errors.New("conflict")
)
