package preprocess

import (
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/tensor"
)

// Centre-of-mass feature names, in column order.
var (
	CoMMomentaFeatures = []string{"P1_p", "P2_px", "P2_py", "P2_pz", "P3_px", "P3_py", "P3_pz"}
	CoMAngleFeatures   = []string{"phi_P2", "theta_P2", "phi_P3", "theta_P3"}
	CoMFeatures        = []string{"P1_p", "P2_px", "P2_py", "P2_pz", "phi_P2", "theta_P2", "phi_P3", "theta_P3"}
)

func angleSpec(name string) limits.Spec {
	if strings.HasPrefix(name, "phi") {
		return limits.Spec{Name: name, Fixed: limits.FixedBound(0, math.Pi)}
	}
	return limits.Spec{Name: name, Fixed: limits.FixedBound(0, math.Pi/2)}
}

func comSpec(name string) limits.Spec {
	switch {
	case name == "P1_p":
		return limits.Spec{Name: name, ZeroMin: true}
	case strings.HasPrefix(name, "phi_"), strings.HasPrefix(name, "theta_"):
		return angleSpec(name)
	}
	return limits.Spec{Name: name}
}

func columnLayout(op string, names []string, spec func(string) limits.Spec) layout {
	l := layout{op: op, shape: []int{-1, len(names)}}
	for i, n := range names {
		l.fields = append(l.fields, field{spec: spec(n), lane: []int{i}})
	}
	return l
}

// angleColumns locates the (phi, theta) pairs of the second and third
// daughters in a feature row.
type angleColumns struct {
	phi2, theta2, phi3, theta3 int
}

// foldTheta maps theta into [0, π/2].
func foldTheta(theta float64) float64 {
	switch {
	case theta > math.Pi/2:
		theta = math.Pi - theta
	case theta < -math.Pi/2:
		theta = -math.Pi - theta
	}
	return math.Abs(theta)
}

func (c angleColumns) fold(x *tensor.Dense) {
	d, rs := x.Data(), x.RowSize()
	for i := 0; i < x.Len(); i++ {
		row := d[i*rs : (i+1)*rs]
		row[c.phi2] = math.Abs(row[c.phi2])
		row[c.phi3] = math.Abs(row[c.phi3])
		row[c.theta2] = foldTheta(row[c.theta2])
		row[c.theta3] = foldTheta(row[c.theta3])
	}
}

// unfold draws the signs discarded by fold. The two thetas receive
// opposite signs, then one of them is reflected across ±π/2, and each phi
// flips sign when its theta leaves [-π/2, π/2].
func (c angleColumns) unfold(x *tensor.Dense, sign func() float64) {
	d, rs := x.Data(), x.RowSize()
	for i := 0; i < x.Len(); i++ {
		row := d[i*rs : (i+1)*rs]
		s := sign()
		t2 := row[c.theta2] * s
		t3 := row[c.theta3] * -s

		r := sign()
		if r < 0 {
			if t3 > 0 {
				t3 = math.Pi - t3
			}
			if t2 > 0 {
				t2 = math.Pi - t2
			}
		} else {
			if t3 < 0 {
				t3 = -math.Pi - t3
			}
			if t2 < 0 {
				t2 = -math.Pi - t2
			}
		}
		if math.Abs(t2) > math.Pi/2 {
			row[c.phi2] = -row[c.phi2]
		}
		if math.Abs(t3) > math.Pi/2 {
			row[c.phi3] = -row[c.phi3]
		}
		row[c.theta2], row[c.theta3] = t2, t3
	}
}

// signSource is a seeded, goroutine-safe coin.
type signSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSignSource(seed int64) *signSource {
	return &signSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *signSource) sign() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// CoMMomenta normalises [N,7] centre-of-mass momenta. P1_p is a magnitude
// and its lower bound is pinned to zero.
type CoMMomenta struct {
	l   layout
	lim limits.Limits
}

// NewCoMMomenta estimates limits from [N,7] samples.
func NewCoMMomenta(samples []*tensor.Dense) (*CoMMomenta, error) {
	p := &CoMMomenta{l: columnLayout("com momenta", CoMMomentaFeatures, comSpec)}
	var err error
	if p.lim, err = p.l.estimate(samples...); err != nil {
		return nil, err
	}
	return p, nil
}

// NewCoMMomentaFromLimits restores a CoMMomenta from frozen limits.
func NewCoMMomentaFromLimits(lim limits.Limits) (*CoMMomenta, error) {
	p := &CoMMomenta{l: columnLayout("com momenta", CoMMomentaFeatures, comSpec), lim: lim}
	if err := p.l.require(lim); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CoMMomenta) Name() string          { return "com_momenta" }
func (p *CoMMomenta) Limits() limits.Limits { return p.lim }

func (p *CoMMomenta) Preprocess(x *tensor.Dense) (*tensor.Dense, error) {
	return p.l.forward(p.lim, x)
}

func (p *CoMMomenta) Postprocess(y *tensor.Dense) (*tensor.Dense, error) {
	return p.l.inverse(p.lim, y)
}

// folded is the shared body of CoMAngles and CoM.
type folded struct {
	name  string
	l     layout
	cols  angleColumns
	lim   limits.Limits
	signs *signSource
}

func (p *folded) Name() string          { return p.name }
func (p *folded) Limits() limits.Limits { return p.lim }

// Fold returns a copy of x with phi and theta folded.
func (p *folded) Fold(x *tensor.Dense) (*tensor.Dense, error) {
	if err := x.Expect(p.l.op, p.l.shape...); err != nil {
		return nil, err
	}
	f := x.Clone()
	p.cols.fold(f)
	return f, nil
}

func (p *folded) Preprocess(x *tensor.Dense) (*tensor.Dense, error) {
	f, err := p.Fold(x)
	if err != nil {
		return nil, err
	}
	return p.l.forward(p.lim, f)
}

func (p *folded) Postprocess(y *tensor.Dense) (*tensor.Dense, error) {
	out, err := p.l.inverse(p.lim, y)
	if err != nil {
		return nil, err
	}
	p.cols.unfold(out, p.signs.sign)
	return out, nil
}

// CoMAngles normalises [N,4] daughter angles in the centre-of-mass frame.
// Bounds are fixed: phi in [0, π], theta in [0, π/2] after folding.
type CoMAngles struct{ folded }

// NewCoMAngles needs no sample; seed drives the sign draws in Postprocess.
func NewCoMAngles(seed int64) *CoMAngles {
	l := columnLayout("com angles", CoMAngleFeatures, angleSpec)
	lim, _ := l.estimate()
	return &CoMAngles{folded{
		name:  "com_angles",
		l:     l,
		cols:  angleColumns{phi2: 0, theta2: 1, phi3: 2, theta3: 3},
		lim:   lim,
		signs: newSignSource(seed),
	}}
}

// CoM normalises [N,8] rows of P1_p, the second daughter's momentum and
// both angle pairs.
type CoM struct{ folded }

func newCoM(lim limits.Limits, seed int64) *CoM {
	return &CoM{folded{
		name:  "com",
		l:     columnLayout("com", CoMFeatures, comSpec),
		cols:  angleColumns{phi2: 4, theta2: 5, phi3: 6, theta3: 7},
		lim:   lim,
		signs: newSignSource(seed),
	}}
}

// NewCoM estimates the momentum limits from [N,8] samples.
func NewCoM(samples []*tensor.Dense, seed int64) (*CoM, error) {
	p := newCoM(limits.Limits{}, seed)
	var err error
	if p.lim, err = p.l.estimate(samples...); err != nil {
		return nil, err
	}
	return p, nil
}

// NewCoMFromLimits restores a CoM from frozen limits.
func NewCoMFromLimits(lim limits.Limits, seed int64) (*CoM, error) {
	p := newCoM(lim, seed)
	if err := p.l.require(lim); err != nil {
		return nil, err
	}
	return p, nil
}
