// Package quantile implements a monotone quantile transform onto a standard
// normal, fitted once at construction and immutable afterwards.
package quantile

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// boundsThreshold keeps the uniform level away from 0 and 1 so the normal
// quantile stays finite.
const boundsThreshold = 1e-7

var (
	ErrTooFewQuantiles = errors.New("quantile: need at least 2 quantiles")
	ErrEmptySample     = errors.New("quantile: empty sample")
	ErrBadParams       = errors.New("quantile: references and levels differ in length")
)

// Params are the learned parameters of a Transform.
type Params struct {
	Levels     []float64 `json:"levels" yaml:"levels"`
	References []float64 `json:"references" yaml:"references"`
}

// Transform maps values through the empirical CDF of the fit sample and then
// the inverse standard normal CDF.
type Transform struct {
	levels []float64
	refs   []float64
}

// Fit learns nQuantiles reference points from sample.
func Fit(sample []float64, nQuantiles int) (*Transform, error) {
	if nQuantiles < 2 {
		return nil, ErrTooFewQuantiles
	}
	if len(sample) == 0 {
		return nil, ErrEmptySample
	}
	if nQuantiles > len(sample) {
		nQuantiles = len(sample)
	}
	if nQuantiles < 2 {
		nQuantiles = 2
	}

	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	levels := make([]float64, nQuantiles)
	refs := make([]float64, nQuantiles)
	for i := range levels {
		p := float64(i) / float64(nQuantiles-1)
		levels[i] = p
		refs[i] = stat.Quantile(p, stat.LinInterp, sorted, nil)
	}
	// LinInterp can leave the endpoints inside the sample range.
	refs[0], refs[nQuantiles-1] = sorted[0], sorted[len(sorted)-1]
	return &Transform{levels: levels, refs: refs}, nil
}

// FitUniform fits on n draws from U(low, high).
func FitUniform(low, high float64, n, nQuantiles int, seed int64) (*Transform, error) {
	rng := rand.New(rand.NewSource(seed))
	sample := make([]float64, n)
	for i := range sample {
		sample[i] = low + rng.Float64()*(high-low)
	}
	return Fit(sample, nQuantiles)
}

// FromParams restores a fitted transform.
func FromParams(p Params) (*Transform, error) {
	if len(p.Levels) != len(p.References) {
		return nil, ErrBadParams
	}
	if len(p.Levels) < 2 {
		return nil, ErrTooFewQuantiles
	}
	if !sort.Float64sAreSorted(p.References) || !sort.Float64sAreSorted(p.Levels) {
		return nil, fmt.Errorf("%w: not monotone", ErrBadParams)
	}
	return &Transform{
		levels: append([]float64(nil), p.Levels...),
		refs:   append([]float64(nil), p.References...),
	}, nil
}

// Params returns a copy of the learned parameters.
func (t *Transform) Params() Params {
	return Params{
		Levels:     append([]float64(nil), t.levels...),
		References: append([]float64(nil), t.refs...),
	}
}

// Forward maps x to the normal scale.
func (t *Transform) Forward(x float64) float64 {
	// Average the left and right interpolations so repeated references map
	// to the middle of their level range.
	p := 0.5 * (interp(x, t.refs, t.levels) - interpReverse(-x, t.refs, t.levels))
	p = clip(p, boundsThreshold, 1-boundsThreshold)
	return distuv.UnitNormal.Quantile(p)
}

// Inverse maps y from the normal scale back.
func (t *Transform) Inverse(y float64) float64 {
	p := clip(distuv.UnitNormal.CDF(y), boundsThreshold, 1-boundsThreshold)
	return interp(p, t.levels, t.refs)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// interp is piecewise-linear interpolation over increasing xp, clamped at
// the ends.
func interp(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}
	j := sort.SearchFloat64s(xp, x)
	for j < n-1 && xp[j] == x && xp[j+1] == x {
		j++
	}
	if xp[j] == x {
		return fp[j]
	}
	x0, x1 := xp[j-1], xp[j]
	f0, f1 := fp[j-1], fp[j]
	return f0 + (f1-f0)*(x-x0)/(x1-x0)
}

// interpReverse interpolates -x over the negated, reversed grid, returning
// the negated level, i.e. the right-continuous interpolation at x.
func interpReverse(negX float64, xp, fp []float64) float64 {
	n := len(xp)
	rx := make([]float64, n)
	rf := make([]float64, n)
	for i := 0; i < n; i++ {
		rx[i] = -xp[n-1-i]
		rf[i] = -fp[n-1-i]
	}
	return interp(negX, rx, rf)
}
