// Package apperr defines the error taxonomy shared by the domain services.
//
// Services return *Error values for every failure a user can act on. The HTTP
// layer maps the Kind to a status code; anything that is not an *Error is
// treated as unexpected and never shown to the caller.
package apperr

import (
	"errors"
	"fmt"
	"sort"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindExpired           Kind = "expired"
	KindPrecondition      Kind = "precondition"
	KindTransientExternal Kind = "transient_external"
)

type Error struct {
	Kind    Kind
	Field   string
	Message string
	// Fields carries every failing field when a whole form was checked.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, apperr.ErrExpired).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Field == "" && t.Message == ""
}

// Kind sentinels for errors.Is checks.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrExpired           = &Error{Kind: KindExpired}
	ErrPrecondition      = &Error{Kind: KindPrecondition}
	ErrTransientExternal = &Error{Kind: KindTransientExternal}
)

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Invalid reports a set of field errors. Field and Message hold the first
// one in name order so single-field callers still see something useful.
func Invalid(fields map[string]string) *Error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	e := &Error{Kind: KindValidation, Fields: fields}
	if len(names) > 0 {
		e.Field = names[0]
		e.Message = fields[names[0]]
	}
	return e
}

func Conflict(field, message string) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Expired(message string) *Error {
	return &Error{Kind: KindExpired, Message: message}
}

func Precondition(message string) *Error {
	return &Error{Kind: KindPrecondition, Message: message}
}

func TransientExternal(message string, err error) *Error {
	return &Error{Kind: KindTransientExternal, Message: message, Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" for unexpected errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}
