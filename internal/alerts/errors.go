package alerts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the alert (or responder) is absent from the
	// partition the operation expected it in.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyHandled means the transition's source record is already
	// gone: a concurrent caller accepted, completed or canceled it first.
	// Callers should re-query.
	ErrAlreadyHandled = errors.New("alert already handled")
)

// ValidationError names the offending field of a rejected payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
