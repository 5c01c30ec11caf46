package inventory

import "errors"

// Domain errors for the inventory package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrRecordNotFound is returned when a record does not exist.
	ErrRecordNotFound = errors.New("inventory: record not found")

	// ErrInvalidRecord is returned when a record misses required fields.
	ErrInvalidRecord = errors.New("inventory: invalid record")
)
