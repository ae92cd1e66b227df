package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
)

// Error carries a business-rule rejection. Kind is one of the sentinels above,
// so callers match with errors.Is.
type Error struct {
	Kind    error
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

func InvalidState(msg string) error {
	return &Error{Kind: ErrInvalidState, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func Validation(field, msg string) error {
	return &Error{Kind: ErrValidation, Field: field, Message: msg}
}

// IsBusiness reports whether err is a client-correctable rejection rather
// than a store failure.
func IsBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
