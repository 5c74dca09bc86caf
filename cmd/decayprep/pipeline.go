package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/san-kum/decayprep/internal/config"
	"github.com/san-kum/decayprep/internal/dataset"
	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/preprocess"
	"github.com/san-kum/decayprep/internal/quantile"
	"github.com/san-kum/decayprep/internal/storage"
	"github.com/san-kum/decayprep/internal/tensor"
	"github.com/san-kum/decayprep/internal/tree"
	"github.com/san-kum/decayprep/internal/viz"
)

var momentumComponents = []string{"px", "py", "pz"}

// input is the tensor a variant consumes, with one name per column.
// Momentum variants also carry the mother momenta.
type input struct {
	x      *tensor.Dense
	mother *tensor.Dense
	names  []string
}

func (in input) rows(from, to int) input {
	out := input{x: in.x.Rows(from, to), names: in.names}
	if in.mother != nil {
		out.mother = in.mother.Rows(from, to)
	}
	return out
}

func load(cfg *config.Config, paths []string) (*tree.Table, *dataset.Assembly, error) {
	r, err := tree.ReaderFor(paths[0], cfg.Tree)
	if err != nil {
		return nil, nil, err
	}
	tab, err := tree.ReadAll(r, paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", strings.Join(paths, ","), err)
	}
	frame, err := dataset.ParseFrame(cfg.Frame)
	if err != nil {
		return nil, nil, err
	}
	opts := []dataset.Option{dataset.WithFrame(frame)}
	if cfg.StrictRotation {
		opts = append(opts, dataset.WithStrictRotation())
	}
	a, err := dataset.Assemble(tab, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("assemble: %w", err)
	}
	return tab, a, nil
}

func momentumNames(particles int, prefix string) []string {
	names := make([]string, 0, particles*3)
	for p := 1; p <= particles; p++ {
		for _, c := range momentumComponents {
			names = append(names, fmt.Sprintf("%s%d_%s", prefix, p, c))
		}
	}
	return names
}

// inputFor picks the tensor a variant consumes from an assembly.
func inputFor(variant string, a *dataset.Assembly, src dataset.Columns, cfg *config.Config) (input, error) {
	flat := func(names []string) (input, error) {
		x, err := a.Features(src, names...)
		if err != nil {
			return input{}, err
		}
		return input{x: x, names: names}, nil
	}
	switch variant {
	case "momenta", "momentum", "online":
		return input{x: a.Momenta, mother: a.MotherMomenta, names: momentumNames(3, "P")}, nil
	case "b_properties":
		return input{x: a.MotherProperties, names: preprocess.BPropertyFeatures}, nil
	case "b_angles":
		return input{x: a.MotherAngles, names: preprocess.BAngleFeatures}, nil
	case "auxiliary":
		if len(cfg.Features) == 0 {
			return input{}, fmt.Errorf("auxiliary needs feature names")
		}
		return flat(cfg.Features)
	case "com_momenta":
		return flat(preprocess.CoMMomentaFeatures)
	case "com_angles":
		return flat(preprocess.CoMAngleFeatures)
	case "com":
		return flat(preprocess.CoMFeatures)
	}
	return input{}, fmt.Errorf("%w: %s", preprocess.ErrUnknownVariant, variant)
}

// samples gives the estimator of a variant its sample roles.
func (in input) samples() preprocess.Samples {
	if in.mother == nil {
		return preprocess.Samples{preprocess.RoleFeatures: {in.x}}
	}
	return preprocess.Samples{
		preprocess.RoleMomenta: {in.x},
		preprocess.RoleMother:  {in.mother},
	}
}

func settingsFor(cfg *config.Config, params *quantile.Params) (preprocess.Settings, error) {
	set := preprocess.Settings{Seed: cfg.Seed}
	switch {
	case params != nil:
		t, err := quantile.FromParams(*params)
		if err != nil {
			return set, err
		}
		set.PhiQuantile = t
	case cfg.PhiQuantile.Enabled:
		t, err := quantile.FitUniform(-math.Pi, math.Pi, cfg.PhiQuantile.Samples, cfg.PhiQuantile.Quantiles, cfg.Seed)
		if err != nil {
			return set, fmt.Errorf("fit phi quantiles: %w", err)
		}
		set.PhiQuantile = t
	}
	return set, nil
}

// roundTrip checks every tensor the variant transforms. Mother momenta
// belong to momenta and online only; momentum pools daughters alone.
func roundTrip(variant string, p preprocess.Preprocessor, in input) (float64, error) {
	rel, err := preprocess.RoundTrip(p, in.x)
	if err != nil {
		return 0, err
	}
	if in.mother == nil || variant == "momentum" || in.mother.Len() == 0 {
		return rel, nil
	}
	m, err := preprocess.RoundTrip(p, in.mother)
	if err != nil {
		return 0, fmt.Errorf("mother: %w", err)
	}
	return math.Max(rel, m), nil
}

// checkKind names how a round trip is compared.
func checkKind(p preprocess.Preprocessor) string {
	if _, ok := p.(preprocess.Folder); ok {
		return "folded"
	}
	return "exact"
}

func quantileParams(s *storage.Session) *quantile.Params {
	if s == nil {
		return nil
	}
	return s.Quantile
}

// trailing lists the non-event indices of x in row-major order.
func trailing(x *tensor.Dense) [][]int {
	shape := x.Shape()[1:]
	if len(shape) == 0 {
		return nil
	}
	out := [][]int{make([]int, len(shape))}
	for {
		next := append([]int(nil), out[len(out)-1]...)
		i := len(next) - 1
		for ; i >= 0; i-- {
			next[i]++
			if next[i] < shape[i] {
				break
			}
			next[i] = 0
		}
		if i < 0 {
			return out
		}
		out = append(out, next)
	}
}

// bound finds the frozen bound of a column. Pooled variants store bounds
// under the component name.
func bound(lim limits.Limits, name string) limits.Bound {
	if b, err := lim.Get(name); err == nil {
		return b
	}
	if i := strings.LastIndex(name, "_"); i >= 0 {
		if b, err := lim.Get(name[i+1:]); err == nil {
			return b
		}
	}
	return limits.Bound{}
}

func browseFeatures(variant string, lim limits.Limits, in input, y *tensor.Dense) []viz.Feature {
	idx := trailing(in.x)
	out := make([]viz.Feature, 0, len(idx))
	for i, t := range idx {
		name := fmt.Sprintf("col_%d", i)
		if i < len(in.names) {
			name = in.names[i]
		}
		out = append(out, viz.Feature{
			Name:      name,
			Variant:   variant,
			Bound:     bound(lim, name),
			Raw:       in.x.Lane(t...),
			Processed: y.Lane(t...),
		})
	}
	return out
}

// assembledTable flattens the rotated tensors into named columns.
func assembledTable(a *dataset.Assembly) (*tree.Table, error) {
	t := tree.NewTable()
	add := func(x *tensor.Dense, names []string) error {
		for i, idx := range trailing(x) {
			if err := t.Set(names[i], x.Lane(idx...)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(a.Momenta, momentumNames(3, "P")); err != nil {
		return nil, err
	}
	if err := add(a.MotherMomenta, []string{"PM_px", "PM_py", "PM_pz"}); err != nil {
		return nil, err
	}
	if err := add(a.Energies, []string{"P1_E", "P2_E", "P3_E", "PM_E"}); err != nil {
		return nil, err
	}
	if err := add(a.MotherProperties, preprocess.BPropertyFeatures); err != nil {
		return nil, err
	}
	// B_phi is shared with the properties above.
	if err := t.Set("B_theta", a.MotherAngles.Lane(0, 1)); err != nil {
		return nil, err
	}
	if err := t.Set("B_P", a.MotherAngles.Lane(0, 2)); err != nil {
		return nil, err
	}
	return t, nil
}

func sessionLabel(paths []string) string {
	base := make([]string, len(paths))
	for i, p := range paths {
		base[i] = filepath.Base(p)
	}
	return strings.Join(base, ",")
}
