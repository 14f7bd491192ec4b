package index

import (
	"errors"
)

var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrValidation    = errors.New("validation error")

	// ErrDuplicateFilename rejects a second upload of the same file name for
	// a release; the legacy protocol's message is load-bearing for clients.
	ErrDuplicateFilename error = &ValidationError{Message: "That file has already been uploaded..."}
)

// NotAuthorizedError carries the human-readable reason the protocol returns
// in the 403 body.
type NotAuthorizedError struct {
	Reason string
}

func (e *NotAuthorizedError) Error() string {
	return e.Reason
}

func (e *NotAuthorizedError) Unwrap() error {
	return ErrNotAuthorized
}

// ValidationError is a client error; its message becomes the 400 body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
