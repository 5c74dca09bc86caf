package limits

import (
	"fmt"
	"math"
)

// LogOffset is added before taking the log of boost-sensitive components.
const LogOffset = 5.0

// Bound is the closed interval a feature is normalised over.
type Bound struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Span is Max - Min.
func (b Bound) Span() float64 { return b.Max - b.Min }

// Contains reports whether x lies in [Min, Max].
func (b Bound) Contains(x float64) bool { return x >= b.Min && x <= b.Max }

func (b Bound) validate(name string) error {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
		return fmt.Errorf("%w: %q [%g, %g]", ErrInvalidBound, name, b.Min, b.Max)
	}
	if b.Min > b.Max {
		return fmt.Errorf("%w: %q min %g > max %g", ErrInvalidBound, name, b.Min, b.Max)
	}
	return nil
}

// Normalizer is the affine map of a bound onto [-1, 1], checked once.
type Normalizer struct {
	min, span float64
}

// Normalizer returns the affine map for the bound or a DegenerateRangeError.
func (b Bound) Normalizer(feature string) (Normalizer, error) {
	if b.Max == b.Min {
		return Normalizer{}, &DegenerateRangeError{Feature: feature, Value: b.Min}
	}
	return Normalizer{min: b.Min, span: b.Max - b.Min}, nil
}

// Forward maps x to 2*(x-min)/(max-min) - 1.
func (n Normalizer) Forward(x float64) float64 { return (x-n.min)/n.span*2 - 1 }

// Inverse maps y back to (y+1)/2*(max-min) + min.
func (n Normalizer) Inverse(y float64) float64 { return (y+1)/2*n.span + n.min }

// Normalize is the single-value form of Normalizer.Forward.
func (b Bound) Normalize(feature string, x float64) (float64, error) {
	n, err := b.Normalizer(feature)
	if err != nil {
		return 0, err
	}
	return n.Forward(x), nil
}

// Denormalize is the single-value form of Normalizer.Inverse.
func (b Bound) Denormalize(feature string, y float64) (float64, error) {
	n, err := b.Normalizer(feature)
	if err != nil {
		return 0, err
	}
	return n.Inverse(y), nil
}

// Compress is ln(x + LogOffset).
func Compress(x float64) (float64, error) {
	if x <= -LogOffset || math.IsNaN(x) {
		return 0, fmt.Errorf("%w: %g", ErrLogDomain, x)
	}
	return math.Log(x + LogOffset), nil
}

// Expand is exp(y) - LogOffset.
func Expand(y float64) float64 { return math.Exp(y) - LogOffset }
