package finders

import "errors"

// Domain-specific errors for discovery finders.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyStarted is returned when Start is called on a running finder.
	ErrAlreadyStarted = errors.New("finders: already started")

	// ErrNotStarted is returned when an operation requires a running finder.
	ErrNotStarted = errors.New("finders: not started")

	// ErrNilCandidates is returned when a nil candidate set is supplied.
	ErrNilCandidates = errors.New("finders: nil candidate set")
)
