package coodecraft

import "fmt"

// ValidationError marks malformed caller input. It is safe to return
// verbatim to the client.
type ValidationError struct {
	msg string
}

func (e ValidationError) Error() string {
	return e.msg
}

func NewValidationError(format string, args ...any) ValidationError {
	return ValidationError{msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means an update or delete target identifier matched no
// persisted course.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("course %q not found", e.ID)
}

// ConflictError is a deletion-guard refusal.
type ConflictError struct {
	msg string
}

func (e ConflictError) Error() string {
	return e.msg
}

func NewConflictError(format string, args ...any) ConflictError {
	return ConflictError{msg: fmt.Sprintf(format, args...)}
}
