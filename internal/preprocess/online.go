package preprocess

import (
	"fmt"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/tensor"
)

// Direction selects Forward's mode.
type Direction int

const (
	Reverse   Direction = -1
	Normalize Direction = 1
)

// Selector picks the tensor a reverse pass restores.
type Selector string

const (
	OnInput         Selector = ""
	OnSampled       Selector = "sampled"
	OnReconstructed Selector = "reconstructed"
)

// Batch keys.
const (
	KeyMomenta          = "momenta"
	KeyMother           = "momenta_mother"
	KeySampled          = "momenta_sampled"
	KeyReconstructed    = "momenta_reconstructed"
	KeyMomentaPP        = "momenta_pp"
	KeyMotherPP         = "momenta_mother_pp"
	KeyMomentaUPP       = "momenta_upp"
	KeyMotherUPP        = "momenta_mother_upp"
	KeySampledUPP       = "momenta_sampled_upp"
	KeyReconstructedUPP = "momenta_reconstructed_upp"
)

// Batch is a keyed set of tensors passed through a model pipeline.
type Batch map[string]*tensor.Dense

// ThreeBodyOnline normalises daughter [N,3,3] and mother [N,1,3] momenta
// with one bound per slot and component.
type ThreeBodyOnline struct {
	daughters layout
	mother    layout
	lim       limits.Limits
}

func onlineLayouts() (layout, layout) {
	d := daughterLayout()
	for i := range d.fields {
		d.fields[i].pool = ""
	}
	return d, motherLayout("PM_")
}

// NewThreeBodyOnline estimates from one or more batches holding
// KeyMomenta and KeyMother; batches are joined before fitting.
func NewThreeBodyOnline(batches ...Batch) (*ThreeBodyOnline, error) {
	var ds, ms []*tensor.Dense
	for _, b := range batches {
		d, m, err := b.pair(KeyMomenta, KeyMother)
		if err != nil {
			return nil, err
		}
		ds, ms = append(ds, d), append(ms, m)
	}
	p := &ThreeBodyOnline{}
	p.daughters, p.mother = onlineLayouts()
	dl, err := p.daughters.estimate(ds...)
	if err != nil {
		return nil, err
	}
	ml, err := p.mother.estimate(ms...)
	if err != nil {
		return nil, err
	}
	if p.lim, err = dl.Merge(ml); err != nil {
		return nil, err
	}
	return p, nil
}

// NewThreeBodyOnlineFromLimits restores a ThreeBodyOnline from frozen limits.
func NewThreeBodyOnlineFromLimits(lim limits.Limits) (*ThreeBodyOnline, error) {
	p := &ThreeBodyOnline{lim: lim}
	p.daughters, p.mother = onlineLayouts()
	if err := p.daughters.require(lim); err != nil {
		return nil, err
	}
	if err := p.mother.require(lim); err != nil {
		return nil, err
	}
	return p, nil
}

func (b Batch) pair(dk, mk string) (*tensor.Dense, *tensor.Dense, error) {
	d, ok := b[dk]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingKey, dk)
	}
	m, ok := b[mk]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingKey, mk)
	}
	return d, m, nil
}

func (p *ThreeBodyOnline) Name() string          { return "online" }
func (p *ThreeBodyOnline) Limits() limits.Limits { return p.lim }

func (p *ThreeBodyOnline) pick(x *tensor.Dense) layout {
	if x.Dims() == 3 && x.Dim(1) == 1 {
		return p.mother
	}
	return p.daughters
}

// Preprocess accepts either daughter [N,3,3] or mother [N,1,3] momenta.
func (p *ThreeBodyOnline) Preprocess(x *tensor.Dense) (*tensor.Dense, error) {
	return p.pick(x).forward(p.lim, x)
}

func (p *ThreeBodyOnline) Postprocess(y *tensor.Dense) (*tensor.Dense, error) {
	return p.pick(y).inverse(p.lim, y)
}

// Forward normalises (dir 1) or restores (dir -1) a batch. In reverse, on
// selects the source tensor: OnInput restores both momenta and mother,
// OnSampled and OnReconstructed restore the daughters of model output.
func (p *ThreeBodyOnline) Forward(batch Batch, dir Direction, on Selector) (Batch, error) {
	switch dir {
	case Normalize:
		d, m, err := batch.pair(KeyMomenta, KeyMother)
		if err != nil {
			return nil, err
		}
		dpp, err := p.daughters.forward(p.lim, d)
		if err != nil {
			return nil, err
		}
		mpp, err := p.mother.forward(p.lim, m)
		if err != nil {
			return nil, err
		}
		return Batch{KeyMomentaPP: dpp, KeyMotherPP: mpp}, nil

	case Reverse:
		var src, dst string
		switch on {
		case OnInput:
			d, m, err := batch.pair(KeyMomenta, KeyMother)
			if err != nil {
				return nil, err
			}
			dupp, err := p.daughters.inverse(p.lim, d)
			if err != nil {
				return nil, err
			}
			mupp, err := p.mother.inverse(p.lim, m)
			if err != nil {
				return nil, err
			}
			return Batch{KeyMomentaUPP: dupp, KeyMotherUPP: mupp}, nil
		case OnSampled:
			src, dst = KeySampled, KeySampledUPP
		case OnReconstructed:
			src, dst = KeyReconstructed, KeyReconstructedUPP
		default:
			return nil, &InvalidSelectorError{Selector: on}
		}
		x, ok := batch[src]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingKey, src)
		}
		out, err := p.daughters.inverse(p.lim, x)
		if err != nil {
			return nil, err
		}
		return Batch{dst: out}, nil
	}
	return nil, ErrInvalidDirection
}
