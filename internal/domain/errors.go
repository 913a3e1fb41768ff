package domain

import "errors"

var (
	// ErrValidation marks requests rejected before any external call.
	ErrValidation = errors.New("validation failed")
	// ErrGeneration marks an API-level failure or a response with no usable image.
	ErrGeneration = errors.New("generation failed")
	// ErrFetch marks a failed download of a referenced (non-inline) image.
	ErrFetch = errors.New("fetch failed")
	// ErrStorage marks blob store write/read/sign failures.
	ErrStorage = errors.New("storage failed")
	// ErrNotFound marks an absent record or artifact.
	ErrNotFound = errors.New("not found")
)
