package kinematics

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch indicates source and destination batches of
	// different sizes.
	ErrLengthMismatch = errors.New("kinematics: batch length mismatch")

	// ErrSingular is the sentinel wrapped by SingularityError.
	ErrSingular = errors.New("kinematics: rotation axis undefined")
)

// SingularityError reports an event whose rotation axis cannot be derived,
// either because the vectors are (anti-)parallel or one has zero length.
type SingularityError struct {
	Event int
	Sin   float64
}

func (e *SingularityError) Error() string {
	return fmt.Sprintf("kinematics: event %d: rotation axis undefined (|sin| = %.3g)", e.Event, e.Sin)
}

func (e *SingularityError) Unwrap() error { return ErrSingular }
