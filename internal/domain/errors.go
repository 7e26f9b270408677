package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

// Closed set of error kinds. Conflict and BusinessRule are reserved: they
// are mapped by callers but nothing raises them yet.
const (
	ErrValidation   ErrorKind = "validation_error"
	ErrNotFound     ErrorKind = "not_found"
	ErrConflict     ErrorKind = "conflict"
	ErrBusinessRule ErrorKind = "business_rule"
	ErrIndex        ErrorKind = "index_error"
	ErrInternal     ErrorKind = "internal_error"
)

// Error is the single error variant used across the service. Kind selects
// the failure class; Details carries field-level context such as the field
// name and violated constraint.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func ValidationError(message string, details map[string]any) *Error {
	return &Error{Kind: ErrValidation, Message: message, Details: details}
}

func NotFoundError(id string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("todo %s not found", id), Details: map[string]any{"id": id}}
}

func IndexError(op string, err error) *Error {
	return &Error{Kind: ErrIndex, Message: fmt.Sprintf("%s: %v", op, err)}
}

func InternalError(err error) *Error {
	return &Error{Kind: ErrInternal, Message: err.Error()}
}

// KindOf reports the kind of err, or ErrInternal when err does not carry
// one.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrInternal
}

func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
