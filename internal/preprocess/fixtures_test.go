package preprocess

import (
	"math"
	"math/rand"

	"github.com/san-kum/decayprep/internal/tensor"
)

func mustTensor(data []float64, shape ...int) *tensor.Dense {
	t, err := tensor.FromSlice(data, shape...)
	if err != nil {
		panic(err)
	}
	return t
}

// randomMomenta draws n events of p particles with |px|,|py| < 5 and
// pz in (0, 200).
func randomMomenta(rng *rand.Rand, n, p int) *tensor.Dense {
	data := make([]float64, 0, n*p*3)
	for i := 0; i < n*p; i++ {
		data = append(data, rng.Float64()*10-5, rng.Float64()*10-5, rng.Float64()*200)
	}
	return mustTensor(data, n, p, 3)
}

func randomColumns(rng *rand.Rand, n int, gen ...func(*rand.Rand) float64) *tensor.Dense {
	data := make([]float64, 0, n*len(gen))
	for i := 0; i < n; i++ {
		for _, g := range gen {
			data = append(data, g(rng))
		}
	}
	return mustTensor(data, n, len(gen))
}

func uniform(lo, hi float64) func(*rand.Rand) float64 {
	return func(r *rand.Rand) float64 { return lo + r.Float64()*(hi-lo) }
}

var (
	anyMomentum = uniform(-5, 5)
	anyPhi      = uniform(-math.Pi, math.Pi)
	anyTheta    = uniform(-math.Pi, math.Pi)
)
