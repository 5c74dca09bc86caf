package dataset

import (
	"errors"
	"fmt"
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/decayprep/internal/kinematics"
	"github.com/san-kum/decayprep/internal/tensor"
	"github.com/san-kum/decayprep/internal/tree"
)

var (
	ErrNoEvents      = errors.New("dataset: no events")
	ErrColumnLength  = errors.New("dataset: column length differs from event count")
	ErrBadFraction   = errors.New("dataset: split fraction must be in (0, 1)")
	ErrBadBatchSize  = errors.New("dataset: batch size must be positive")
	ErrUnknownColumn = errors.New("dataset: unknown feature column")
)

// Columns is the event-tree boundary; *tree.Table satisfies it. Column
// wraps tree.ErrMissingColumn for absent names.
type Columns interface {
	Len() int
	Column(name string) ([]float64, error)
}

// Frame selects the vector each event is rotated onto +z.
type Frame int

const (
	FrameTrueMother Frame = iota
	FrameReconstructed
)

func (f Frame) String() string {
	switch f {
	case FrameTrueMother:
		return "true-mother"
	case FrameReconstructed:
		return "reconstructed"
	}
	return fmt.Sprintf("Frame(%d)", int(f))
}

// ParseFrame accepts the names String returns.
func ParseFrame(s string) (Frame, error) {
	switch s {
	case "true-mother", "true", "":
		return FrameTrueMother, nil
	case "reconstructed", "reco":
		return FrameReconstructed, nil
	}
	return 0, fmt.Errorf("dataset: unknown frame %q", s)
}

type options struct {
	frame  Frame
	strict bool
}

type Option func(*options)

func WithFrame(f Frame) Option { return func(o *options) { o.frame = f } }

// WithStrictRotation fails on events whose frame vector is parallel to +z
// instead of using the identity.
func WithStrictRotation() Option { return func(o *options) { o.strict = true } }

// Derived feature names.
const (
	BMass  = "B_mass"
	BPhi   = "B_phi"
	BTheta = "B_theta"
	BP     = "B_P"
	BPt    = "B_pt"
	BPz    = "B_pz"
)

// Assembly is one assembled dataset. All tensors share the event axis.
type Assembly struct {
	Momenta          *tensor.Dense // [N,3,3] rotated daughters
	MotherMomenta    *tensor.Dense // [N,1,3] rotated mother
	Energies         *tensor.Dense // [N,4] E1, E2, E3, E_mother after rotation
	MotherProperties *tensor.Dense // [N,3] B_pt, B_phi, B_pz
	MotherAngles     *tensor.Dense // [N,1,3] B_phi, B_theta, B_P
	Derived          map[string][]float64
	// PIDs holds mother and daughter PDG codes when the tree carries them.
	PIDs [][4]int
	// Frame is the frame actually used.
	Frame Frame
}

func (a *Assembly) Len() int { return a.Momenta.Len() }

type particle struct {
	p    []r3.Vec
	mass []float64
	e    []float64
}

func readVecs(cols Columns, n int, x, y, z string) ([]r3.Vec, error) {
	var c [3][]float64
	for i, name := range []string{x, y, z} {
		v, err := cols.Column(name)
		if err != nil {
			return nil, err
		}
		if len(v) != n {
			return nil, fmt.Errorf("%w: %s", ErrColumnLength, name)
		}
		c[i] = v
	}
	out := make([]r3.Vec, n)
	for i := range out {
		out[i] = r3.Vec{X: c[0][i], Y: c[1][i], Z: c[2][i]}
	}
	return out, nil
}

// optional returns nil without error when the column is absent. Other
// read errors are returned.
func optional(cols Columns, n int, name string) ([]float64, error) {
	v, err := cols.Column(name)
	if errors.Is(err, tree.ErrMissingColumn) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(v) != n {
		return nil, fmt.Errorf("%w: %s", ErrColumnLength, name)
	}
	return v, nil
}

// optionalVecs returns nil without error unless all three columns exist.
func optionalVecs(cols Columns, n int, x, y, z string) ([]r3.Vec, error) {
	for _, name := range []string{x, y, z} {
		v, err := optional(cols, n, name)
		if err != nil || v == nil {
			return nil, err
		}
	}
	return readVecs(cols, n, x, y, z)
}

func readParticle(cols Columns, n, i int) (particle, error) {
	prefix := fmt.Sprintf("particle_%d_", i)
	p, err := readVecs(cols, n, prefix+"PX", prefix+"PY", prefix+"PZ")
	if err != nil {
		return particle{}, err
	}
	m, err := cols.Column(prefix + "M")
	if err != nil {
		return particle{}, err
	}
	if len(m) != n {
		return particle{}, fmt.Errorf("%w: %sM", ErrColumnLength, prefix)
	}
	e, err := optional(cols, n, prefix+"E")
	if err != nil {
		return particle{}, err
	}
	if e == nil {
		e = make([]float64, n)
		for j := range e {
			e[j] = kinematics.EnergyFromMass(m[j], p[j])
		}
	}
	return particle{p: p, mass: m, e: e}, nil
}

// Assemble builds the training tensors from event columns.
func Assemble(cols Columns, opts ...Option) (*Assembly, error) {
	o := options{frame: FrameTrueMother}
	for _, opt := range opts {
		opt(&o)
	}
	n := cols.Len()
	if n == 0 {
		return nil, ErrNoEvents
	}

	var ds [3]particle
	for i := range ds {
		var err error
		if ds[i], err = readParticle(cols, n, i+1); err != nil {
			return nil, err
		}
	}

	reco := make([]fmom.PxPyPzE, n)
	for j := range reco {
		var parts [3]fmom.PxPyPzE
		for i, d := range ds {
			parts[i] = fmom.NewPxPyPzE(d.p[j].X, d.p[j].Y, d.p[j].Z, d.e[j])
		}
		reco[j] = kinematics.Sum(parts[:]...)
	}

	a := &Assembly{Derived: derive(reco), Frame: o.frame}

	trueMother, err := optionalVecs(cols, n, "mother_PX_TRUE", "mother_PY_TRUE", "mother_PZ_TRUE")
	if err != nil {
		return nil, err
	}
	var motherE []float64
	if trueMother != nil {
		if motherE, err = optional(cols, n, "mother_E_TRUE"); err != nil {
			return nil, err
		}
	}

	recoVecs := make([]r3.Vec, n)
	for j := range reco {
		recoVecs[j] = kinematics.ThreeVector(reco[j])
	}
	mother := trueMother
	if mother == nil {
		mother = recoVecs
		a.Frame = FrameReconstructed
	}
	frame := mother
	if o.frame == FrameReconstructed {
		frame = recoVecs
	}

	dst := make([]r3.Vec, n)
	for j := range dst {
		dst[j] = kinematics.ZAxis
	}
	var kopts []kinematics.Option
	if o.strict {
		kopts = append(kopts, kinematics.WithStrict())
	}
	rots, err := kinematics.RotationMatrices(frame, dst, kopts...)
	if err != nil {
		return nil, err
	}

	a.Momenta = tensor.New(n, 3, 3)
	a.Energies = tensor.New(n, 4)
	for i, d := range ds {
		rotated, err := kinematics.Rotate(d.p, rots)
		if err != nil {
			return nil, err
		}
		for j, v := range rotated {
			a.Momenta.Set(v.X, j, i, 0)
			a.Momenta.Set(v.Y, j, i, 1)
			a.Momenta.Set(v.Z, j, i, 2)
			a.Energies.Set(kinematics.EnergyFromMass(d.mass[j], v), j, i)
		}
	}

	rm, err := kinematics.Rotate(mother, rots)
	if err != nil {
		return nil, err
	}
	a.MotherMomenta = tensor.New(n, 1, 3)
	for j, v := range rm {
		a.MotherMomenta.Set(v.X, j, 0, 0)
		a.MotherMomenta.Set(v.Y, j, 0, 1)
		a.MotherMomenta.Set(v.Z, j, 0, 2)
		a.Energies.Set(kinematics.EnergyFromMass(motherMass(j, mother, motherE, a.Derived[BMass]), v), j, 3)
	}

	a.MotherProperties = tensor.New(n, 3)
	a.MotherAngles = tensor.New(n, 1, 3)
	for j := 0; j < n; j++ {
		a.MotherProperties.Set(a.Derived[BPt][j], j, 0)
		a.MotherProperties.Set(a.Derived[BPhi][j], j, 1)
		a.MotherProperties.Set(a.Derived[BPz][j], j, 2)
		a.MotherAngles.Set(a.Derived[BPhi][j], j, 0, 0)
		a.MotherAngles.Set(a.Derived[BTheta][j], j, 0, 1)
		a.MotherAngles.Set(a.Derived[BP][j], j, 0, 2)
	}

	if a.PIDs, err = readPIDs(cols, n); err != nil {
		return nil, err
	}
	return a, nil
}

// motherMass uses the true four-vector when its energy is known and the
// reconstructed invariant mass otherwise.
func motherMass(j int, p []r3.Vec, e, reco []float64) float64 {
	if e == nil {
		return reco[j]
	}
	m2 := e[j]*e[j] - r3.Dot(p[j], p[j])
	if m2 < 0 {
		return 0
	}
	return math.Sqrt(m2)
}

func derive(reco []fmom.PxPyPzE) map[string][]float64 {
	n := len(reco)
	d := make(map[string][]float64, 6)
	for _, k := range []string{BMass, BPhi, BTheta, BP, BPt, BPz} {
		d[k] = make([]float64, n)
	}
	for j := range reco {
		v := kinematics.ThreeVector(reco[j])
		d[BMass][j] = kinematics.InvariantMass(reco[j])
		d[BPhi][j] = kinematics.Azimuth(v)
		d[BTheta][j] = kinematics.PolarXZ(v)
		d[BP][j] = r3.Norm(v)
		d[BPt][j] = kinematics.Transverse(v)
		d[BPz][j] = v.Z
	}
	return d
}

func readPIDs(cols Columns, n int) ([][4]int, error) {
	names := [4]string{"mother_PID", "particle_1_PID", "particle_2_PID", "particle_3_PID"}
	var vals [4][]float64
	for i, name := range names {
		v, err := optional(cols, n, name)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		vals[i] = v
	}
	out := make([][4]int, n)
	for j := range out {
		for i := range names {
			out[j][i] = int(vals[i][j])
		}
	}
	return out, nil
}
