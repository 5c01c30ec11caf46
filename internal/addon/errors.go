package addon

import "errors"

// Domain errors for the addon package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, addon.ErrAddonNotFound) {
//	    // handle not found case
//	}
var (
	// ErrAddonNotFound is returned when an add-on ID does not exist in the catalog.
	ErrAddonNotFound = errors.New("addon: not found")

	// ErrInvalidAddon is returned when add-on validation fails.
	ErrInvalidAddon = errors.New("addon: invalid")

	// ErrDuplicateID is returned when two catalog entries share an ID.
	ErrDuplicateID = errors.New("addon: duplicate id")

	// ErrInvalidPattern is returned when a match property regex does not compile.
	ErrInvalidPattern = errors.New("addon: invalid match pattern")

	// ErrUnknownFinder is returned when a discovery method names an
	// unsupported finder kind.
	ErrUnknownFinder = errors.New("addon: unknown finder kind")

	// ErrEmptyCatalog is returned when the catalog file contains no add-ons.
	ErrEmptyCatalog = errors.New("addon: catalog is empty")
)
