package kinematics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func randomUnit(rng *rand.Rand) r3.Vec {
	for {
		v := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		if n := r3.Norm(v); n > 1e-3 {
			return r3.Scale(1/n, v)
		}
	}
}

func TestRotationMatrices_AlignsOntoTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 500
	src := make([]r3.Vec, n)
	dst := make([]r3.Vec, n)
	for i := range src {
		src[i] = randomUnit(rng)
		dst[i] = randomUnit(rng)
	}

	rots, err := RotationMatrices(src, dst)
	require.NoError(t, err)
	require.Len(t, rots, n)

	for i := range src {
		got := Apply(rots[i], src[i])
		require.GreaterOrEqual(t, Cosine(got, dst[i]), 1-1e-6, "event %d", i)
	}
}

func TestRotationMatrices_Orthonormal(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	r, err := RotationMatrix(randomUnit(rng), ZAxis)
	require.NoError(t, err)

	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	require.True(t, mat.EqualApprox(&rtr, Identity(), 1e-12))
	require.InDelta(t, 1.0, mat.Det(r), 1e-12)
}

func TestRotationMatrix_IdentityWhenEqual(t *testing.T) {
	v := r3.Vec{X: 0.3, Y: -0.4, Z: 2}
	r, err := RotationMatrix(v, v)
	require.NoError(t, err)
	require.True(t, mat.Equal(r, Identity()))

	got := Apply(r, v)
	require.InDelta(t, v.X, got.X, 1e-15)
	require.InDelta(t, v.Y, got.Y, 1e-15)
	require.InDelta(t, v.Z, got.Z, 1e-15)
}

func TestRotationMatrix_ParallelScaledVectors(t *testing.T) {
	r, err := RotationMatrix(r3.Vec{Z: 10}, ZAxis)
	require.NoError(t, err)
	require.True(t, mat.Equal(r, Identity()))
}

func TestRotationMatrix_AntiParallel(t *testing.T) {
	src := r3.Vec{X: 1, Y: 2, Z: -3}
	dst := r3.Scale(-1, src)

	r, err := RotationMatrix(src, dst)
	require.NoError(t, err)
	got := Apply(r, src)
	require.GreaterOrEqual(t, Cosine(got, dst), 1-1e-9)
	require.InDelta(t, 1.0, mat.Det(r), 1e-12)
}

func TestRotationMatrix_Strict(t *testing.T) {
	tests := []struct {
		name     string
		src, dst r3.Vec
	}{
		{"parallel", r3.Vec{Z: 2}, ZAxis},
		{"anti-parallel", r3.Vec{Z: -2}, ZAxis},
		{"zero source", r3.Vec{}, ZAxis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RotationMatrix(tt.src, tt.dst, WithStrict())
			var se *SingularityError
			require.True(t, errors.As(err, &se), "got %v", err)
			require.ErrorIs(t, err, ErrSingular)
		})
	}
}

func TestRotationMatrix_ZeroVectorFallsBackToIdentity(t *testing.T) {
	r, err := RotationMatrix(r3.Vec{}, ZAxis)
	require.NoError(t, err)
	require.True(t, mat.Equal(r, Identity()))
}

func TestRotate_LengthMismatch(t *testing.T) {
	_, err := Rotate([]r3.Vec{{X: 1}}, nil)
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, err = RotationMatrices([]r3.Vec{{X: 1}}, nil)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestRotate_ParallelChunksMatchSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 1000
	src := make([]r3.Vec, n)
	dst := make([]r3.Vec, n)
	for i := range src {
		src[i] = randomUnit(rng)
		dst[i] = ZAxis
	}

	serial, err := RotationMatrices(src, dst, WithChunk(n))
	require.NoError(t, err)
	chunked, err := RotationMatrices(src, dst, WithChunk(16))
	require.NoError(t, err)

	a, err := Rotate(src, serial, WithChunk(n))
	require.NoError(t, err)
	b, err := Rotate(src, chunked, WithChunk(16))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestParallelFor_CoversRange(t *testing.T) {
	hits := make([]int, 1000)
	ParallelFor(len(hits), 10, func(start, end int) {
		for i := start; i < end; i++ {
			hits[i]++
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}

func TestMassShell(t *testing.T) {
	p := r3.Vec{X: 3, Y: 0, Z: 4}
	require.InDelta(t, 13.0, EnergyFromMass(12, p), 1e-12)

	a := OnShell(0.139, r3.Vec{X: 1})
	b := OnShell(0.139, r3.Vec{X: -1})
	sum := Sum(a, b)
	require.InDelta(t, 0, sum.Px(), 1e-15)
	require.InDelta(t, 2*math.Sqrt(0.139*0.139+1), InvariantMass(sum), 1e-12)
}

func TestAngles(t *testing.T) {
	v := r3.Vec{X: 1, Y: 1, Z: 0}
	require.InDelta(t, math.Pi/4, Azimuth(v), 1e-15)
	require.InDelta(t, math.Pi/2, PolarXZ(v), 1e-15)
	require.InDelta(t, math.Sqrt2, Transverse(v), 1e-15)
}
