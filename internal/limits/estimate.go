package limits

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Spec describes how one feature's bound is derived.
type Spec struct {
	Name string
	// Log applies Compress before scanning.
	Log bool
	// Fixed, when set, replaces the estimated bound.
	Fixed *Bound
	// ZeroMin forces the minimum to 0 after padding.
	ZeroMin bool
	// Pad defaults to Outward.
	Pad Pad
}

// Sample maps feature names to the values observed for them. Values of
// interchangeable particle slots are pooled under one name.
type Sample map[string][]float64

// FixedBound is a convenience for Spec.Fixed.
func FixedBound(lo, hi float64) *Bound { return &Bound{Min: lo, Max: hi} }

// Estimate derives frozen limits from one or more samples.
func Estimate(specs []Spec, samples ...Sample) (Limits, error) {
	entries := make([]Entry, 0, len(specs))
	for _, s := range specs {
		b, err := estimateOne(s, samples)
		if err != nil {
			return Limits{}, err
		}
		entries = append(entries, Entry{Name: s.Name, Min: b.Min, Max: b.Max})
	}
	return New(entries...)
}

func estimateOne(s Spec, samples []Sample) (Bound, error) {
	if s.Fixed != nil {
		return *s.Fixed, nil
	}

	var (
		b    Bound
		seen bool
	)
	for _, sample := range samples {
		vals := sample[s.Name]
		if len(vals) == 0 {
			continue
		}
		raw, err := scan(s, vals)
		if err != nil {
			return Bound{}, err
		}
		if !seen {
			b, seen = raw, true
			continue
		}
		b.Min = math.Min(b.Min, raw.Min)
		b.Max = math.Max(b.Max, raw.Max)
	}
	if !seen {
		return Bound{}, fmt.Errorf("%w: %q", ErrNoSamples, s.Name)
	}

	pad := s.Pad
	if pad == nil {
		pad = Outward
	}
	b = pad(b)
	if s.ZeroMin {
		b.Min = 0
	}
	return b, nil
}

func scan(s Spec, vals []float64) (Bound, error) {
	xs := vals
	if s.Log {
		xs = make([]float64, len(vals))
		for i, v := range vals {
			c, err := Compress(v)
			if err != nil {
				return Bound{}, fmt.Errorf("feature %q: %w", s.Name, err)
			}
			xs[i] = c
		}
	}
	if floats.HasNaN(xs) {
		return Bound{}, fmt.Errorf("%w: %q", ErrNonFinite, s.Name)
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Bound{}, fmt.Errorf("%w: %q", ErrNonFinite, s.Name)
	}
	return Bound{Min: lo, Max: hi}, nil
}
