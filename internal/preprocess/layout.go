package preprocess

import (
	"fmt"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/tensor"
)

// field binds one tensor lane to a feature bound.
type field struct {
	spec limits.Spec
	lane []int
	// pool groups fields estimated from their joint values. Empty means
	// the field is estimated alone.
	pool string
}

// layout is the feature schema of one tensor shape.
type layout struct {
	op     string
	shape  []int
	fields []field
}

func (l layout) specs() []limits.Spec {
	seen := make(map[string]bool, len(l.fields))
	out := make([]limits.Spec, 0, len(l.fields))
	for _, f := range l.fields {
		if seen[f.spec.Name] {
			continue
		}
		seen[f.spec.Name] = true
		out = append(out, f.spec)
	}
	return out
}

func (l layout) sample(x *tensor.Dense) (limits.Sample, error) {
	if err := x.Expect(l.op, l.shape...); err != nil {
		return nil, err
	}
	pools := make(map[string][]float64)
	for _, f := range l.fields {
		key := f.pool
		if key == "" {
			key = f.spec.Name
		}
		pools[key] = append(pools[key], x.Lane(f.lane...)...)
	}
	s := make(limits.Sample, len(l.fields))
	for _, f := range l.fields {
		key := f.pool
		if key == "" {
			key = f.spec.Name
		}
		s[f.spec.Name] = pools[key]
	}
	return s, nil
}

func (l layout) estimate(xs ...*tensor.Dense) (limits.Limits, error) {
	samples := make([]limits.Sample, 0, len(xs))
	for _, x := range xs {
		s, err := l.sample(x)
		if err != nil {
			return limits.Limits{}, err
		}
		samples = append(samples, s)
	}
	return limits.Estimate(l.specs(), samples...)
}

// require checks that lim has a bound for every field.
func (l layout) require(lim limits.Limits) error {
	for _, f := range l.fields {
		if _, err := lim.Get(f.spec.Name); err != nil {
			return err
		}
	}
	return nil
}

func (l layout) forward(lim limits.Limits, x *tensor.Dense) (*tensor.Dense, error) {
	if err := x.Expect(l.op, l.shape...); err != nil {
		return nil, err
	}
	out := x.Clone()
	for _, f := range l.fields {
		n, err := normalizer(lim, f.spec.Name)
		if err != nil {
			return nil, err
		}
		vals := out.Lane(f.lane...)
		for i, v := range vals {
			if f.spec.Log {
				if v, err = limits.Compress(v); err != nil {
					return nil, fmt.Errorf("preprocess: %s: event %d: %w", f.spec.Name, i, err)
				}
			}
			vals[i] = n.Forward(v)
		}
		if err := out.SetLane(vals, f.lane...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l layout) inverse(lim limits.Limits, y *tensor.Dense) (*tensor.Dense, error) {
	if err := y.Expect(l.op, l.shape...); err != nil {
		return nil, err
	}
	out := y.Clone()
	for _, f := range l.fields {
		n, err := normalizer(lim, f.spec.Name)
		if err != nil {
			return nil, err
		}
		vals := out.Lane(f.lane...)
		for i, v := range vals {
			v = n.Inverse(v)
			if f.spec.Log {
				v = limits.Expand(v)
			}
			vals[i] = v
		}
		if err := out.SetLane(vals, f.lane...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func normalizer(lim limits.Limits, feature string) (limits.Normalizer, error) {
	b, err := lim.Get(feature)
	if err != nil {
		return limits.Normalizer{}, err
	}
	return b.Normalizer(feature)
}

var components = [3]string{"px", "py", "pz"}
