package domain

import "errors"

var (
	// ErrExtractionFailure means the completion call failed or its text held
	// no parseable object matching the extraction schema.
	ErrExtractionFailure = errors.New("extraction failure")
	// ErrUnknownSurfaceType means a surface type is outside the vocabulary.
	ErrUnknownSurfaceType = errors.New("unknown surface type")
	// ErrInvalidSettings means a percentage is negative or out of range.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrNotReady means pricing was requested before minimum data exists.
	ErrNotReady = errors.New("quote data not ready for pricing")
)
