package core

import "errors"

// Sentinel errors shared across packages.
var (
	// ErrUnknownLayer is returned when a layer name is not one of the known layers.
	ErrUnknownLayer = errors.New("unknown layer")
	// ErrInvalidRecord is returned when an execution record fails validation.
	ErrInvalidRecord = errors.New("invalid execution record")
	// ErrMalformedTimestamp is returned when a timestamp cannot be parsed.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrNotFound is returned by stores when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
