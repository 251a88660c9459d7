package domain

import "errors"

var (
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("validation error")
	// ErrTransport marks a failed or rejected call to a backend service.
	ErrTransport = errors.New("transport error")
	// ErrSoftLoad marks read data that could not be loaded and was replaced
	// by an empty collection.
	ErrSoftLoad = errors.New("soft load failure")
)
