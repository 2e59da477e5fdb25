// Package apperr defines the typed business errors the services return.
// All of them are synchronous rejections: a failed operation leaves every
// entity unchanged, and nothing here is retryable.
package apperr

import (
	"errors"
	"strings"
)

// ValidationError aggregates every field/business-rule violation found
// before any mutation. Validation never short-circuits: the caller gets the
// full list at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidation builds a ValidationError from the collected messages.
func NewValidation(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// StateError marks an attempted workflow transition that is not legal from
// the document's current status (wrong edge, status already final, or the
// actor's roles do not unlock it).
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// NewState builds a StateError with the given message.
func NewState(msg string) *StateError { return &StateError{Msg: msg} }

// ReferentialError marks a blocked deletion: the target is still referenced
// by another record.
type ReferentialError struct {
	Msg string
}

func (e *ReferentialError) Error() string { return e.Msg }

// NewReferential builds a ReferentialError with the given message.
func NewReferential(msg string) *ReferentialError { return &ReferentialError{Msg: msg} }

// NotFoundError marks a reference to a document/status/role that does not
// exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// NewNotFound builds a NotFoundError with the given message.
func NewNotFound(msg string) *NotFoundError { return &NotFoundError{Msg: msg} }

// AsValidation unwraps err into a ValidationError if one is in the chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// IsState reports whether a StateError is in the chain.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsReferential reports whether a ReferentialError is in the chain.
func IsReferential(err error) bool {
	var re *ReferentialError
	return errors.As(err, &re)
}

// IsNotFound reports whether a NotFoundError is in the chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
