package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPathFormat marks a script path that does not encode catalog coordinates.
	ErrPathFormat = errors.New("path format")
	// ErrTurnSchema marks a script payload whose turn records are malformed.
	ErrTurnSchema = errors.New("turn schema")
	// ErrGraphStore marks a connectivity failure or rejected mutation in the graph store.
	ErrGraphStore = errors.New("graph store")
)

// IsInputError reports whether err was caused by bad caller input rather than
// infrastructure. Input errors should not be retried.
func IsInputError(err error) bool {
	return errors.Is(err, ErrPathFormat) ||
		errors.Is(err, ErrTurnSchema) ||
		errors.Is(err, ErrInvalidArgument)
}

// IsStoreError reports whether err came from the graph store.
func IsStoreError(err error) bool {
	return errors.Is(err, ErrGraphStore)
}
