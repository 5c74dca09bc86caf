package preprocess

import (
	"fmt"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/tensor"
)

// Momenta normalises three-daughter momenta [N,3,3] with bounds pooled per
// component across the slots, and mother momenta [N,1,3] with bounds of
// their own. Longitudinal components are log-compressed.
type Momenta struct {
	daughters layout
	mother    layout
	lim       limits.Limits
}

func daughterLayout() layout {
	l := layout{op: "momenta", shape: []int{-1, 3, 3}}
	for slot := 0; slot < 3; slot++ {
		for c, comp := range components {
			l.fields = append(l.fields, field{
				spec: limits.Spec{Name: fmt.Sprintf("P%d_%s", slot+1, comp), Log: c == 2},
				lane: []int{slot, c},
				pool: comp,
			})
		}
	}
	return l
}

func motherLayout(prefix string) layout {
	l := layout{op: "mother momenta", shape: []int{-1, 1, 3}}
	for c, comp := range components {
		l.fields = append(l.fields, field{
			spec: limits.Spec{Name: prefix + comp, Log: c == 2},
			lane: []int{0, c},
		})
	}
	return l
}

// NewMomenta estimates limits from daughter and mother samples. Several
// tensors of each kind are unioned.
func NewMomenta(daughters, mothers []*tensor.Dense) (*Momenta, error) {
	p := &Momenta{daughters: daughterLayout(), mother: motherLayout("PM_")}
	dl, err := p.daughters.estimate(daughters...)
	if err != nil {
		return nil, err
	}
	ml, err := p.mother.estimate(mothers...)
	if err != nil {
		return nil, err
	}
	if p.lim, err = dl.Merge(ml); err != nil {
		return nil, err
	}
	return p, nil
}

// NewMomentaFromLimits restores a Momenta from frozen limits.
func NewMomentaFromLimits(lim limits.Limits) (*Momenta, error) {
	p := &Momenta{daughters: daughterLayout(), mother: motherLayout("PM_"), lim: lim}
	if err := p.daughters.require(lim); err != nil {
		return nil, err
	}
	if err := p.mother.require(lim); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Momenta) Name() string          { return "momenta" }
func (p *Momenta) Limits() limits.Limits { return p.lim }

func (p *Momenta) pick(x *tensor.Dense) layout {
	if x.Dims() == 3 && x.Dim(1) == 1 {
		return p.mother
	}
	return p.daughters
}

// Preprocess accepts either daughter [N,3,3] or mother [N,1,3] momenta.
func (p *Momenta) Preprocess(x *tensor.Dense) (*tensor.Dense, error) {
	return p.pick(x).forward(p.lim, x)
}

func (p *Momenta) Postprocess(y *tensor.Dense) (*tensor.Dense, error) {
	return p.pick(y).inverse(p.lim, y)
}
