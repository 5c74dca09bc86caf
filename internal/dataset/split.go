package dataset

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/decayprep/internal/tensor"
)

// DefaultTrainFraction is the share of events kept for training.
const DefaultTrainFraction = 0.8

func (a *Assembly) subset(pick func(*tensor.Dense) *tensor.Dense, idx []int) *Assembly {
	out := &Assembly{
		Momenta:          pick(a.Momenta),
		MotherMomenta:    pick(a.MotherMomenta),
		Energies:         pick(a.Energies),
		MotherProperties: pick(a.MotherProperties),
		MotherAngles:     pick(a.MotherAngles),
		Derived:          make(map[string][]float64, len(a.Derived)),
		Frame:            a.Frame,
	}
	for k, v := range a.Derived {
		col := make([]float64, len(idx))
		for i, j := range idx {
			col[i] = v[j]
		}
		out.Derived[k] = col
	}
	if a.PIDs != nil {
		out.PIDs = make([][4]int, len(idx))
		for i, j := range idx {
			out.PIDs[i] = a.PIDs[j]
		}
	}
	return out
}

// Slice copies events [from, to).
func (a *Assembly) Slice(from, to int) *Assembly {
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return a.subset(func(t *tensor.Dense) *tensor.Dense { return t.Rows(from, to) }, idx)
}

// Gather copies the listed events in order.
func (a *Assembly) Gather(idx []int) *Assembly {
	return a.subset(func(t *tensor.Dense) *tensor.Dense { return t.Gather(idx) }, idx)
}

// Split keeps the first int(frac*N) events for training and the rest for
// validation, without reordering.
func Split(a *Assembly, frac float64) (train, val *Assembly, err error) {
	if frac <= 0 || frac >= 1 {
		return nil, nil, fmt.Errorf("%w: %g", ErrBadFraction, frac)
	}
	at := int(frac * float64(a.Len()))
	return a.Slice(0, at), a.Slice(at, a.Len()), nil
}

// Shuffle returns a seeded permutation of the events.
func (a *Assembly) Shuffle(seed int64) *Assembly {
	return a.Gather(rand.New(rand.NewSource(seed)).Perm(a.Len()))
}

// Batches cuts the events into consecutive batches; the last may be short.
func (a *Assembly) Batches(size int) ([]*Assembly, error) {
	if size <= 0 {
		return nil, ErrBadBatchSize
	}
	var out []*Assembly
	for from := 0; from < a.Len(); from += size {
		to := min(from+size, a.Len())
		out = append(out, a.Slice(from, to))
	}
	return out, nil
}

// Features stacks named columns into an [N,F] tensor. Derived features
// are looked up first, then the source columns.
func (a *Assembly) Features(src Columns, names ...string) (*tensor.Dense, error) {
	n := a.Len()
	out := tensor.New(n, len(names))
	for f, name := range names {
		col, ok := a.Derived[name]
		if !ok && src != nil {
			c, err := src.Column(name)
			if err == nil {
				col, ok = c, true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		if len(col) != n {
			return nil, fmt.Errorf("%w: %s", ErrColumnLength, name)
		}
		if err := out.SetLane(col, f); err != nil {
			return nil, err
		}
	}
	return out, nil
}
