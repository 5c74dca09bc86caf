package preprocess

import (
	"fmt"
	"sort"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/quantile"
	"github.com/san-kum/decayprep/internal/tensor"
)

// Sample roles.
const (
	RoleMomenta  = "momenta"
	RoleMother   = "momenta_mother"
	RoleFeatures = "features"
)

// Samples holds estimation tensors keyed by role.
type Samples map[string][]*tensor.Dense

// Settings carries the variant knobs that are not limits.
type Settings struct {
	Seed        int64
	PhiQuantile *quantile.Transform
}

type (
	estimator func(Samples, Settings) (Preprocessor, error)
	restorer  func(limits.Limits, Settings) (Preprocessor, error)
)

type Registry struct {
	estimators map[string]estimator
	restorers  map[string]restorer
}

func NewRegistry() *Registry {
	r := &Registry{
		estimators: make(map[string]estimator),
		restorers:  make(map[string]restorer),
	}

	r.estimators["momenta"] = func(s Samples, _ Settings) (Preprocessor, error) {
		d, err := s.need(RoleMomenta)
		if err != nil {
			return nil, err
		}
		m, err := s.need(RoleMother)
		if err != nil {
			return nil, err
		}
		return wrap(NewMomenta(d, m))
	}
	r.estimators["momentum"] = func(s Samples, _ Settings) (Preprocessor, error) {
		d, err := s.need(RoleMomenta)
		if err != nil {
			return nil, err
		}
		return wrap(NewMomentum(d))
	}
	r.estimators["com_momenta"] = features(func(xs []*tensor.Dense, _ Settings) (Preprocessor, error) {
		return wrap(NewCoMMomenta(xs))
	})
	r.estimators["com_angles"] = func(_ Samples, set Settings) (Preprocessor, error) {
		return NewCoMAngles(set.Seed), nil
	}
	r.estimators["com"] = features(func(xs []*tensor.Dense, set Settings) (Preprocessor, error) {
		return wrap(NewCoM(xs, set.Seed))
	})
	r.estimators["b_properties"] = features(func(xs []*tensor.Dense, set Settings) (Preprocessor, error) {
		return wrap(NewBProperties(xs, set.bOptions()...))
	})
	r.estimators["b_angles"] = features(func(xs []*tensor.Dense, _ Settings) (Preprocessor, error) {
		return wrap(NewBAngles(xs))
	})
	r.estimators["auxiliary"] = features(func(xs []*tensor.Dense, _ Settings) (Preprocessor, error) {
		return wrap(NewAuxiliary(xs))
	})
	r.estimators["online"] = func(s Samples, _ Settings) (Preprocessor, error) {
		d, err := s.need(RoleMomenta)
		if err != nil {
			return nil, err
		}
		m, err := s.need(RoleMother)
		if err != nil {
			return nil, err
		}
		if len(d) != len(m) {
			return nil, fmt.Errorf("%w: %d momenta and %d mother tensors", ErrMissingInput, len(d), len(m))
		}
		batches := make([]Batch, len(d))
		for i := range d {
			batches[i] = Batch{KeyMomenta: d[i], KeyMother: m[i]}
		}
		return wrap(NewThreeBodyOnline(batches...))
	}

	r.restorers["momenta"] = func(l limits.Limits, _ Settings) (Preprocessor, error) { return wrap(NewMomentaFromLimits(l)) }
	r.restorers["momentum"] = func(l limits.Limits, _ Settings) (Preprocessor, error) { return wrap(NewMomentumFromLimits(l)) }
	r.restorers["com_momenta"] = func(l limits.Limits, _ Settings) (Preprocessor, error) { return wrap(NewCoMMomentaFromLimits(l)) }
	r.restorers["com_angles"] = func(_ limits.Limits, set Settings) (Preprocessor, error) { return NewCoMAngles(set.Seed), nil }
	r.restorers["com"] = func(l limits.Limits, set Settings) (Preprocessor, error) { return wrap(NewCoMFromLimits(l, set.Seed)) }
	r.restorers["b_properties"] = func(l limits.Limits, set Settings) (Preprocessor, error) {
		return wrap(NewBPropertiesFromLimits(l, set.bOptions()...))
	}
	r.restorers["b_angles"] = func(l limits.Limits, _ Settings) (Preprocessor, error) { return wrap(NewBAnglesFromLimits(l)) }
	r.restorers["auxiliary"] = func(l limits.Limits, _ Settings) (Preprocessor, error) { return wrap(NewAuxiliaryFromLimits(l)) }
	r.restorers["online"] = func(l limits.Limits, _ Settings) (Preprocessor, error) { return wrap(NewThreeBodyOnlineFromLimits(l)) }

	return r
}

// wrap keeps a failed constructor from yielding a non-nil interface.
func wrap(p Preprocessor, err error) (Preprocessor, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

func features(fn func([]*tensor.Dense, Settings) (Preprocessor, error)) estimator {
	return func(s Samples, set Settings) (Preprocessor, error) {
		xs, err := s.need(RoleFeatures)
		if err != nil {
			return nil, err
		}
		return fn(xs, set)
	}
}

func (s Samples) need(role string) ([]*tensor.Dense, error) {
	xs := s[role]
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingInput, role)
	}
	return xs, nil
}

func (set Settings) bOptions() []BOption {
	if set.PhiQuantile == nil {
		return nil
	}
	return []BOption{WithPhiQuantile(set.PhiQuantile)}
}

// Build estimates a new preprocessor of the named variant.
func (r *Registry) Build(name string, s Samples, set Settings) (Preprocessor, error) {
	fn, ok := r.estimators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, name)
	}
	return fn(s, set)
}

// Restore reapplies frozen limits to the named variant.
func (r *Registry) Restore(name string, l limits.Limits, set Settings) (Preprocessor, error) {
	fn, ok := r.restorers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, name)
	}
	return fn(l, set)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.estimators))
	for name := range r.estimators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
