package viewmodel

import (
	"errors"
	"fmt"
)

// ErrNotMounted is returned when waiting on a view model that has no subscription.
var ErrNotMounted = errors.New("view model is not mounted")

// ValidationError reports bad user input. No write is issued when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RemoteWriteError reports a store write that failed. The mirror is left as it was.
type RemoteWriteError struct {
	Action string
	Err    error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Action, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
