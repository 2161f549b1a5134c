package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a lookup miss in a repository.
var ErrNotFound = errors.New("mailcenter: not found")

// ValidationError reports a caller-supplied argument violating a
// precondition. Recoverable by correcting the input; never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// InvalidStateError reports a state transition attempted on an entity not in
// the required source state, e.g. paying an already-waived fee.
type InvalidStateError struct {
	Entity    string
	Current   string
	Attempted string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf(
		"invalid state: cannot %s %s in state %q",
		e.Attempted, e.Entity, e.Current,
	)
}
