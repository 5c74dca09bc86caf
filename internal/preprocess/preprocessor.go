package preprocess

import (
	"math"

	"github.com/san-kum/decayprep/internal/limits"
	"github.com/san-kum/decayprep/internal/tensor"
)

// Preprocessor is one reversible feature-schema transform.
type Preprocessor interface {
	Name() string
	Preprocess(x *tensor.Dense) (*tensor.Dense, error)
	Postprocess(y *tensor.Dense) (*tensor.Dense, error)
	Limits() limits.Limits
}

// Folder is implemented by variants whose Postprocess restores discarded
// signs at random. Fold maps x onto the representation they preserve.
type Folder interface {
	Fold(x *tensor.Dense) (*tensor.Dense, error)
}

// RelativeFloor is the magnitude below which MaxRelativeError measures
// absolute error in units of the floor.
const RelativeFloor = 1e-6

// RoundTrip runs x through Preprocess and Postprocess and returns
// MaxRelativeError of the result. A Folder is compared after folding both
// sides.
func RoundTrip(p Preprocessor, x *tensor.Dense) (float64, error) {
	y, err := p.Preprocess(x)
	if err != nil {
		return 0, err
	}
	back, err := p.Postprocess(y)
	if err != nil {
		return 0, err
	}
	if f, ok := p.(Folder); ok {
		if x, err = f.Fold(x); err != nil {
			return 0, err
		}
		if back, err = f.Fold(back); err != nil {
			return 0, err
		}
	}
	return MaxRelativeError(x, back), nil
}

// MaxRelativeError compares two tensors of equal size element-wise as
// |want-got| / max(|want|, RelativeFloor).
func MaxRelativeError(want, got *tensor.Dense) float64 {
	a, b := want.Data(), got.Data()
	worst := 0.0
	for i := range a {
		d := math.Abs(a[i]-b[i]) / math.Max(RelativeFloor, math.Abs(a[i]))
		if math.IsNaN(d) {
			return math.NaN()
		}
		worst = math.Max(worst, d)
	}
	return worst
}

// InRange reports whether every element lies in [-1, 1].
func InRange(y *tensor.Dense) bool {
	for _, v := range y.Data() {
		if v < -1 || v > 1 || math.IsNaN(v) {
			return false
		}
	}
	return true
}
