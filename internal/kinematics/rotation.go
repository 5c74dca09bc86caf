package kinematics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ParallelTolerance is the sine magnitude below which two unit vectors are
// treated as aligned.
const ParallelTolerance = 1e-12

// ZAxis is the reference axis of the canonical frame.
var ZAxis = r3.Vec{Z: 1}

type options struct {
	strict   bool
	minChunk int
}

// Option configures RotationMatrices and Rotate.
type Option func(*options)

// WithStrict makes aligned or zero-length vectors an error.
func WithStrict() Option { return func(o *options) { o.strict = true } }

// WithChunk sets the minimum events per worker for batch fan-out.
func WithChunk(n int) Option { return func(o *options) { o.minChunk = n } }

func buildOptions(opts []Option) options {
	o := options{minChunk: 4096}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Identity returns a fresh 3x3 identity matrix.
func Identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// RotationMatrices returns, for every event i, the matrix R[i] with
// R[i]·unit(src[i]) = unit(dst[i]).
func RotationMatrices(src, dst []r3.Vec, opts ...Option) ([]*mat.Dense, error) {
	if len(src) != len(dst) {
		return nil, ErrLengthMismatch
	}
	o := buildOptions(opts)

	rots := make([]*mat.Dense, len(src))
	errs := make([]error, len(src))
	ParallelFor(len(src), o.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			rots[i], errs[i] = rotationMatrix(i, src[i], dst[i], o.strict)
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rots, nil
}

// RotationMatrix is the single-event form of RotationMatrices.
func RotationMatrix(src, dst r3.Vec, opts ...Option) (*mat.Dense, error) {
	o := buildOptions(opts)
	return rotationMatrix(0, src, dst, o.strict)
}

func rotationMatrix(event int, src, dst r3.Vec, strict bool) (*mat.Dense, error) {
	ns, nd := r3.Norm(src), r3.Norm(dst)
	if ns == 0 || nd == 0 {
		if strict {
			return nil, &SingularityError{Event: event}
		}
		return Identity(), nil
	}
	a := r3.Scale(1/ns, src)
	b := r3.Scale(1/nd, dst)

	v := r3.Cross(a, b)
	c := r3.Dot(a, b)
	s := r3.Norm(v)

	if s < ParallelTolerance {
		if strict {
			return nil, &SingularityError{Event: event, Sin: s}
		}
		if c > 0 {
			return Identity(), nil
		}
		return halfTurn(a), nil
	}

	k := mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
	var kk mat.Dense
	kk.Mul(k, k)
	kk.Scale((1-c)/(s*s), &kk)

	r := Identity()
	r.Add(r, k)
	r.Add(r, &kk)
	return r, nil
}

// halfTurn rotates by π about an axis perpendicular to unit vector a:
// R = 2uuᵀ - I.
func halfTurn(a r3.Vec) *mat.Dense {
	e := r3.Vec{X: 1}
	ax, ay, az := math.Abs(a.X), math.Abs(a.Y), math.Abs(a.Z)
	switch {
	case ay <= ax && ay <= az:
		e = r3.Vec{Y: 1}
	case az <= ax && az <= ay:
		e = r3.Vec{Z: 1}
	}
	u := r3.Unit(r3.Cross(a, e))
	uu := []float64{u.X, u.Y, u.Z}

	r := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := 2 * uu[i] * uu[j]
			if i == j {
				v--
			}
			r.Set(i, j, v)
		}
	}
	return r
}

// Apply rotates a single vector.
func Apply(r mat.Matrix, v r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(r, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// Rotate applies rots[i] to vecs[i].
func Rotate(vecs []r3.Vec, rots []*mat.Dense, opts ...Option) ([]r3.Vec, error) {
	if len(vecs) != len(rots) {
		return nil, ErrLengthMismatch
	}
	o := buildOptions(opts)
	out := make([]r3.Vec, len(vecs))
	ParallelFor(len(vecs), o.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = Apply(rots[i], vecs[i])
		}
	})
	return out, nil
}

// Cosine is the cosine similarity of a and b, 0 if either is zero.
func Cosine(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return r3.Dot(a, b) / (na * nb)
}
