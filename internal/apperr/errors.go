// Package apperr defines the error kinds every core operation reports.
// Callers dispatch on them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not allowed")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("temporarily unavailable")

	// ErrInvalidState refines ErrConflict: the entity is in the wrong state
	// for the requested transition.
	ErrInvalidState = errors.New("invalid state")
)

// Error is a classified failure with enough context to build a
// "Field: x. Error: y. Value: z" message for the caller.
type Error struct {
	Kind    error
	Field   string
	Message string
	Value   any
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Field != "" {
		fmt.Fprintf(&b, "Field: %s. Error: ", e.Field)
	}
	b.WriteString(e.Message)
	if e.Value != nil {
		fmt.Fprintf(&b, ". Value: %v", e.Value)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func Validation(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: ErrAuthorization, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

func Conflict(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(field string, value any, format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Cause: ErrInvalidState, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

func Unavailable(cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrUnavailable, Cause: cause, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind sentinel of err, or nil for unclassified errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrAuthorization, ErrConflict, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
