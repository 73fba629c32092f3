package common

import (
	"errors"
	"fmt"
)

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Revision engine errors
	ErrUnauthenticated = errors.New("mutation requires an authenticated user")
	ErrConflict        = errors.New("edit is based on a stale revision")
	ErrRevisionMissing = errors.New("revision not found")
	ErrDocumentMissing = errors.New("document not found")

	// Validation errors
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyContents     = errors.New("editable field has empty contents")
	ErrInvalidUpdateType = errors.New("update type must be one of initial, patch, minor, major")
)

// ConversionError reports that the content converter rejected the payload.
// It aborts the mutation before any write.
type ConversionError struct {
	ContentType string
	Reason      string
	Err         error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s content: %s", e.ContentType, e.Reason)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ValidationError reports that a pre-flight check failed (e.g. the companion
// first comment of a debate post could not validate). The whole document
// creation is aborted.
type ValidationError struct {
	Check  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Check, e.Reason)
}
