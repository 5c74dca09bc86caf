package kinematics

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// EnergyFromMass applies the mass-shell relation E² = m² + |p|².
func EnergyFromMass(m float64, p r3.Vec) float64 {
	return math.Sqrt(m*m + r3.Dot(p, p))
}

// OnShell builds a four-vector whose energy comes from the mass shell.
func OnShell(m float64, p r3.Vec) fmom.PxPyPzE {
	return fmom.NewPxPyPzE(p.X, p.Y, p.Z, EnergyFromMass(m, p))
}

// Sum adds four-vectors component-wise.
func Sum(ps ...fmom.PxPyPzE) fmom.PxPyPzE {
	var px, py, pz, e float64
	for i := range ps {
		px += ps[i].Px()
		py += ps[i].Py()
		pz += ps[i].Pz()
		e += ps[i].E()
	}
	return fmom.NewPxPyPzE(px, py, pz, e)
}

// InvariantMass of p, negative for space-like vectors.
func InvariantMass(p fmom.PxPyPzE) float64 { return p.M() }

// ThreeVector drops the energy component.
func ThreeVector(p fmom.PxPyPzE) r3.Vec {
	return r3.Vec{X: p.Px(), Y: p.Py(), Z: p.Pz()}
}

// Azimuth is atan2(py, px).
func Azimuth(p r3.Vec) float64 { return math.Atan2(p.Y, p.X) }

// PolarXZ is atan2(px, pz), the polar-like angle of the mother in the x-z
// plane.
func PolarXZ(p r3.Vec) float64 { return math.Atan2(p.X, p.Z) }

// Transverse is the momentum magnitude in the x-y plane.
func Transverse(p r3.Vec) float64 { return math.Hypot(p.X, p.Y) }
