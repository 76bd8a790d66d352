package pagination

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every precondition failure reported by Maths.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError describes a page or offset value that violates a bound.
type ArgumentError struct {
	// Op is the Maths operation that rejected the value.
	Op string
	// Value is the offending input, formatted for humans.
	Value string
	// Bound is the violated constraint, e.g. "<= max_offset (100)".
	Bound string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s: %s must be %s", e.Op, ErrInvalidArgument, e.Value, e.Bound)
}

// Unwrap lets errors.Is match ErrInvalidArgument.
func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func invalidArgument(op string, value any, bound string, args ...any) error {
	return &ArgumentError{
		Op:    op,
		Value: fmt.Sprint(value),
		Bound: fmt.Sprintf(bound, args...),
	}
}
