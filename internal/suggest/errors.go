package suggest

import "errors"

// Domain errors for the suggest package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNilFinder is returned when a nil finder is passed to the registry.
	ErrNilFinder = errors.New("suggest: nil finder")

	// ErrNilCatalog is returned when an aggregator is built without a catalog.
	ErrNilCatalog = errors.New("suggest: nil catalog")

	// ErrNilRegistry is returned when an aggregator is built without a registry.
	ErrNilRegistry = errors.New("suggest: nil registry")

	// ErrFinderPanic is recorded when a finder panics during aggregation.
	ErrFinderPanic = errors.New("suggest: finder panicked")
)
