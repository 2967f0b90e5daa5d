package posts

import (
	"errors"
	"fmt"
)

// Sentinel errors for the mutation pipelines. The service converts these to
// user-facing results; they never escape to HTTP handlers.
var (
	// ErrNotFound is returned when the target post does not exist.
	ErrNotFound = errors.New("post not found")

	// ErrNotOwner is returned when the acting identity does not match the
	// post's author.
	ErrNotOwner = errors.New("post belongs to another user")

	// ErrSlugTaken is returned by the repository when a write hits the
	// storage-level unique constraint on slug. The pre-write existence check
	// usually catches collisions first; this covers the race between check
	// and write.
	ErrSlugTaken = errors.New("slug already in use")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
