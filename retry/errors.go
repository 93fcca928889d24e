package retry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when no handler is registered for a job kind
	ErrUnknownKind = errors.New("unknown job kind")
	// ErrPermanent marks failures that must skip the remaining attempts
	ErrPermanent = errors.New("permanent failure")
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() []error { return []error{ErrPermanent, e.err} }

// Permanent wraps err so the scheduler goes straight to the terminal path
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

func panicError(v interface{}) error {
	return fmt.Errorf("handler panic: %v", v)
}
