// Package preprocess maps kinematic tensors into [-1, 1] and back.
//
// Every variant implements [Preprocessor] for one feature schema:
//
//   - [Momenta]: three daughters (slot-pooled bounds) and the mother
//   - [Momentum]: any number of particles, symmetric transverse bounds
//   - [CoMMomenta], [CoMAngles], [CoM]: centre-of-mass observables
//   - [BProperties], [BAngles]: mother-particle kinematics
//   - [Auxiliary]: free-form non-negative features
//   - [ThreeBodyOnline]: per-slot bounds with the keyed batch interface
//
// Variants are chosen by name through a [Registry]. Limits are estimated
// once at construction and never change; [Preprocessor.Limits] exposes them
// for reuse at inference via the New…FromLimits constructors.
//
// # Feature pipeline
//
// Forward: optional ln(x+5) for boost-sensitive components, then the affine
// map onto [-1, 1]. Postprocess applies the inverses in reverse order.
//
// # Angle folding
//
// [CoMAngles] and [CoM] fold each (phi, theta) pair into a canonical
// half-space before normalising. The discarded signs are not recorded;
// Postprocess draws them at random. Folding the postprocessed angles again
// gives back the canonical values, but the original angles are not
// recovered.
package preprocess
