package viz

import (
	"errors"
	"math"
	"sort"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoValues = errors.New("viz: no finite values")
	ErrBadBins  = errors.New("viz: bin count must be positive")
	ErrNoPoints = errors.New("viz: nothing to plot")
)

// Hist is a binned distribution; Edges has one more element than Counts.
type Hist struct {
	Edges  []float64
	Counts []float64
}

// Min and Max are the outer edges.
func (h Hist) Min() float64 { return h.Edges[0] }
func (h Hist) Max() float64 { return h.Edges[len(h.Edges)-1] }

// Total is the number of binned values.
func (h Hist) Total() float64 { return floats.Sum(h.Counts) }

// Histogram bins the finite values into equal-width bins spanning their
// range. NaN and Inf entries are dropped.
func Histogram(values []float64, bins int) (Hist, error) {
	if bins <= 0 {
		return Hist{}, ErrBadBins
	}
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return Hist{}, ErrNoValues
	}
	sort.Float64s(xs)

	lo, hi := xs[0], xs[len(xs)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)
	// stat.Histogram bins are half open; keep the maximum inside the last one.
	edges[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, edges, xs, nil)
	return Hist{Edges: edges, Counts: counts}, nil
}

// Plot draws values as an asciigraph line chart.
func Plot(values []float64, caption string, opts ...asciigraph.Option) (string, error) {
	if len(values) == 0 {
		return "", ErrNoPoints
	}
	o := append([]asciigraph.Option{
		asciigraph.Height(6),
		asciigraph.Width(40),
		asciigraph.Caption(caption),
	}, opts...)
	return asciigraph.Plot(values, o...), nil
}

// PlotColumn bins values and plots the counts.
func PlotColumn(values []float64, bins int, caption string) (string, error) {
	h, err := Histogram(values, bins)
	if err != nil {
		return "", err
	}
	return Plot(h.Counts, caption)
}
