package domain

import "errors"

var (
	// ErrInvalidRequest wraps every reason an analysis request is rejected before the provider is called.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned by repositories and job lookups for unknown ids.
	ErrNotFound = errors.New("not found")
	// ErrProvider wraps failures of external processors (NDVI imagery, disease model).
	ErrProvider = errors.New("provider error")
)
