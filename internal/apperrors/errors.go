package apperrors

import "fmt"

// Kind classifies an error so handlers can map it to an HTTP status and
// clients can tell "retry with corrected input" from "too late" from "fatal".
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindExpired      Kind = "expired"
	KindCompleted    Kind = "completed"
	KindUnauthorized Kind = "unauthorized"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValidation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewExpired(format string, args ...interface{}) *Error {
	return &Error{Kind: KindExpired, Message: fmt.Sprintf(format, args...)}
}

func NewCompleted(format string, args ...interface{}) *Error {
	return &Error{Kind: KindCompleted, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := err.(*Error)
	return ok && appErr.Kind == kind
}
