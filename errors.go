package mediagate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when a unique constraint would be violated
	ErrConflict = errors.New("conflict")
	// ErrRangeNotSatisfiable is returned when no byte of a requested range lies inside the object
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// UpstreamError reports a failure of the blob storage or metadata backend.
// Op is a short description that is safe to show to clients; Err carries the
// backend detail and is only logged.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
