package core

import "github.com/pkg/errors"

var (
	// ErrUnauthenticated is returned when no valid actor could be resolved for a request.
	ErrUnauthenticated = errors.New("user not authenticated")

	// ErrForbidden is returned when the actor's roles do not allow an operation.
	ErrForbidden = errors.New("permission denied")

	// ErrConflict is returned when a conditional write lost the race against a
	// concurrent update; the caller may retry on a fresh read.
	ErrConflict = errors.New("conflicting concurrent update")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
