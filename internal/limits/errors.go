package limits

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSamples indicates an estimation with no values for a feature.
	ErrNoSamples = errors.New("limits: no sample values")

	// ErrNonFinite indicates NaN or Inf in an estimation sample.
	ErrNonFinite = errors.New("limits: non-finite sample value")

	// ErrUnknownFeature indicates a lookup of a feature with no bound.
	ErrUnknownFeature = errors.New("limits: unknown feature")

	// ErrInvalidBound indicates min > max or a non-finite bound.
	ErrInvalidBound = errors.New("limits: invalid bound")

	// ErrLogDomain indicates a value at or below -LogOffset passed to Compress.
	ErrLogDomain = errors.New("limits: value outside log-compression domain")

	// ErrDegenerate is the sentinel wrapped by DegenerateRangeError.
	ErrDegenerate = errors.New("limits: degenerate range")
)

// DegenerateRangeError reports an affine normalisation over a bound with
// max == min.
type DegenerateRangeError struct {
	Feature string
	Value   float64
}

func (e *DegenerateRangeError) Error() string {
	return fmt.Sprintf("limits: feature %q has degenerate range [%g, %g]", e.Feature, e.Value, e.Value)
}

func (e *DegenerateRangeError) Unwrap() error { return ErrDegenerate }
