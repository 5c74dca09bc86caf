package preprocess

import (
	"fmt"
	"math"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/quantile"
	"github.com/san-kum/decayprep/internal/tensor"
)

// Mother feature names, in column order.
var (
	BPropertyFeatures = []string{"B_pt", "B_phi", "B_pz"}
	BAngleFeatures    = []string{"B_phi", "B_theta", "B_P"}
)

// quantileScale maps the normal-quantile output of the phi transform into
// the unit interval.
const quantileScale = 7

func motherSpec(name string) limits.Spec {
	switch name {
	case "B_pt":
		return limits.Spec{Name: name, ZeroMin: true}
	case "B_phi":
		return limits.Spec{Name: name, Fixed: limits.FixedBound(-math.Pi, math.Pi)}
	case "B_pz":
		return limits.Spec{Name: name, Log: true}
	}
	return limits.Spec{Name: name}
}

// BProperties normalises [N,3] rows of mother pt, phi and pz.
type BProperties struct {
	l   layout
	lim limits.Limits
	phi *quantile.Transform
}

// BOption configures a BProperties.
type BOption func(*BProperties)

// WithPhiQuantile maps B_phi through t instead of the affine bound.
func WithPhiQuantile(t *quantile.Transform) BOption {
	return func(p *BProperties) { p.phi = t }
}

func newBProperties(lim limits.Limits, opts []BOption) *BProperties {
	p := &BProperties{l: columnLayout("b properties", BPropertyFeatures, motherSpec), lim: lim}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewBProperties estimates limits from [N,3] samples.
func NewBProperties(samples []*tensor.Dense, opts ...BOption) (*BProperties, error) {
	p := newBProperties(limits.Limits{}, opts)
	var err error
	if p.lim, err = p.l.estimate(samples...); err != nil {
		return nil, err
	}
	return p, nil
}

// NewBPropertiesFromLimits restores a BProperties from frozen limits.
func NewBPropertiesFromLimits(lim limits.Limits, opts ...BOption) (*BProperties, error) {
	p := newBProperties(lim, opts)
	if err := p.l.require(lim); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *BProperties) Name() string          { return "b_properties" }
func (p *BProperties) Limits() limits.Limits { return p.lim }

// PhiQuantile returns the phi transform, or nil in affine mode.
func (p *BProperties) PhiQuantile() *quantile.Transform { return p.phi }

func (p *BProperties) Preprocess(x *tensor.Dense) (*tensor.Dense, error) {
	if p.phi == nil {
		return p.l.forward(p.lim, x)
	}
	if err := x.Expect(p.l.op, p.l.shape...); err != nil {
		return nil, err
	}
	raw := x.Lane(1)
	out, err := p.l.forward(p.lim, x)
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		raw[i] = p.phi.Forward(v) / quantileScale
	}
	return out, out.SetLane(raw, 1)
}

func (p *BProperties) Postprocess(y *tensor.Dense) (*tensor.Dense, error) {
	if p.phi == nil {
		return p.l.inverse(p.lim, y)
	}
	if err := y.Expect(p.l.op, p.l.shape...); err != nil {
		return nil, err
	}
	raw := y.Lane(1)
	out, err := p.l.inverse(p.lim, y)
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		raw[i] = p.phi.Inverse(v * quantileScale)
	}
	return out, out.SetLane(raw, 1)
}

// BAngles normalises [N,1,3] mother (phi, theta, |p|).
type BAngles struct {
	l   layout
	lim limits.Limits
}

func bAngleLayout() layout {
	l := layout{op: "b angles", shape: []int{-1, 1, 3}}
	for c, name := range BAngleFeatures {
		l.fields = append(l.fields, field{spec: motherSpec(name), lane: []int{0, c}})
	}
	return l
}

// NewBAngles estimates limits from [N,1,3] samples.
func NewBAngles(samples []*tensor.Dense) (*BAngles, error) {
	p := &BAngles{l: bAngleLayout()}
	var err error
	if p.lim, err = p.l.estimate(samples...); err != nil {
		return nil, err
	}
	return p, nil
}

// NewBAnglesFromLimits restores a BAngles from frozen limits.
func NewBAnglesFromLimits(lim limits.Limits) (*BAngles, error) {
	p := &BAngles{l: bAngleLayout(), lim: lim}
	if err := p.l.require(lim); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *BAngles) Name() string          { return "b_angles" }
func (p *BAngles) Limits() limits.Limits { return p.lim }

func (p *BAngles) Preprocess(x *tensor.Dense) (*tensor.Dense, error) {
	return p.l.forward(p.lim, x)
}

func (p *BAngles) Postprocess(y *tensor.Dense) (*tensor.Dense, error) {
	return p.l.inverse(p.lim, y)
}

// Auxiliary normalises [N,F] non-negative features into [0, 1.2×max].
type Auxiliary struct {
	l   layout
	lim limits.Limits
}

// AuxiliaryName is the feature name of auxiliary column i.
func AuxiliaryName(i int) string { return fmt.Sprintf("aux_%d", i) }

func auxiliaryLayout(width int) layout {
	names := make([]string, width)
	for i := range names {
		names[i] = AuxiliaryName(i)
	}
	return columnLayout("auxiliary", names, func(n string) limits.Spec {
		return limits.Spec{Name: n, ZeroMin: true, Pad: limits.Headroom(1.2)}
	})
}

// NewAuxiliary estimates limits from [N,F] samples.
func NewAuxiliary(samples []*tensor.Dense) (*Auxiliary, error) {
	if len(samples) == 0 {
		return nil, limits.ErrNoSamples
	}
	if err := samples[0].Expect("auxiliary", -1, -1); err != nil {
		return nil, err
	}
	p := &Auxiliary{l: auxiliaryLayout(samples[0].Dim(1))}
	var err error
	if p.lim, err = p.l.estimate(samples...); err != nil {
		return nil, err
	}
	return p, nil
}

// NewAuxiliaryFromLimits restores an Auxiliary; the width is the number of
// bounds in lim.
func NewAuxiliaryFromLimits(lim limits.Limits) (*Auxiliary, error) {
	p := &Auxiliary{l: auxiliaryLayout(lim.Len()), lim: lim}
	if err := p.l.require(lim); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Auxiliary) Name() string          { return "auxiliary" }
func (p *Auxiliary) Limits() limits.Limits { return p.lim }

func (p *Auxiliary) Preprocess(x *tensor.Dense) (*tensor.Dense, error) {
	return p.l.forward(p.lim, x)
}

func (p *Auxiliary) Postprocess(y *tensor.Dense) (*tensor.Dense, error) {
	return p.l.inverse(p.lim, y)
}
