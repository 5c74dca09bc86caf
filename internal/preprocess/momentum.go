package preprocess

import (
	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/tensor"
)

// Momentum normalises [N,P,3] momenta of any particle count with one bound
// per component pooled over all particles. Transverse bounds are symmetric
// about zero.
type Momentum struct {
	lim limits.Limits
}

var momentumSpecs = [3]limits.Spec{
	{Name: "px", Pad: limits.Symmetric},
	{Name: "py", Pad: limits.Symmetric},
	{Name: "pz", Log: true},
}

func momentumLayout(particles int) layout {
	l := layout{op: "momentum", shape: []int{-1, particles, 3}}
	for p := 0; p < particles; p++ {
		for c := range components {
			l.fields = append(l.fields, field{spec: momentumSpecs[c], lane: []int{p, c}})
		}
	}
	return l
}

// NewMomentum estimates limits from samples that may differ in particle
// count.
func NewMomentum(samples []*tensor.Dense) (*Momentum, error) {
	specs := momentumSpecs[:]
	ss := make([]limits.Sample, 0, len(samples))
	for _, x := range samples {
		if err := x.Expect("momentum", -1, -1, 3); err != nil {
			return nil, err
		}
		s, err := momentumLayout(x.Dim(1)).sample(x)
		if err != nil {
			return nil, err
		}
		ss = append(ss, s)
	}
	lim, err := limits.Estimate(specs, ss...)
	if err != nil {
		return nil, err
	}
	return &Momentum{lim: lim}, nil
}

// NewMomentumFromLimits restores a Momentum from frozen limits.
func NewMomentumFromLimits(lim limits.Limits) (*Momentum, error) {
	if err := momentumLayout(1).require(lim); err != nil {
		return nil, err
	}
	return &Momentum{lim: lim}, nil
}

func (p *Momentum) Name() string          { return "momentum" }
func (p *Momentum) Limits() limits.Limits { return p.lim }

func (p *Momentum) Preprocess(x *tensor.Dense) (*tensor.Dense, error) {
	if err := x.Expect("momentum", -1, -1, 3); err != nil {
		return nil, err
	}
	return momentumLayout(x.Dim(1)).forward(p.lim, x)
}

func (p *Momentum) Postprocess(y *tensor.Dense) (*tensor.Dense, error) {
	if err := y.Expect("momentum", -1, -1, 3); err != nil {
		return nil, err
	}
	return momentumLayout(y.Dim(1)).inverse(p.lim, y)
}
