package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed field on a write operation.
// The record is left unmodified.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return e.Message
}

// NotFoundError reports an operation targeting a nonexistent record id.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("fund review %s not found", e.ID)
}

// UnparsableDateError reports a date string that could not be interpreted as
// a calendar day. The metrics engine treats such values as absent rather than
// propagating the failure.
type UnparsableDateError struct {
	Value string
}

func (e UnparsableDateError) Error() string {
	return fmt.Sprintf("unparsable date %q", e.Value)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
