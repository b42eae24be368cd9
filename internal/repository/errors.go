package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleVersion is returned when a versioned job write observes a
	// StatusVersion other than the one the caller read. The operation
	// is not applied.
	ErrStaleVersion = errors.New("job status version is stale")
)
