package session

import "errors"

// ErrEmptyProblem is returned when the problem statement is blank.
var ErrEmptyProblem = errors.New("please enter a problem statement")

// ValidationError is a client-side input error. It is raised before any
// network call is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
