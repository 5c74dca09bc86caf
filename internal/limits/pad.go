package limits

import "math"

// Pad widens a raw empirical bound.
type Pad func(Bound) Bound

// Outward pushes both bounds away from zero: the min is multiplied by 1.1
// when negative and 0.9 otherwise, the max by 1.1 when positive and 0.9
// otherwise.
func Outward(b Bound) Bound {
	if b.Min < 0 {
		b.Min *= 1.1
	} else {
		b.Min *= 0.9
	}
	if b.Max > 0 {
		b.Max *= 1.1
	} else {
		b.Max *= 0.9
	}
	return b
}

// Symmetric makes the bound symmetric about zero using the larger magnitude,
// then pads outward.
func Symmetric(b Bound) Bound {
	m := math.Max(math.Abs(b.Min), math.Abs(b.Max))
	return Outward(Bound{Min: -m, Max: m})
}

// Headroom keeps the min and scales the max by f.
func Headroom(f float64) Pad {
	return func(b Bound) Bound {
		b.Max *= f
		return b
	}
}

// NoPad leaves the empirical bound as is.
func NoPad(b Bound) Bound { return b }
