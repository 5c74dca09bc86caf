// Package limits estimates and holds the per-feature bounds used to map
// kinematic observables into [-1, 1].
//
// Bounds are estimated once from a sample with [Estimate] and frozen into an
// immutable [Limits] value that serialises to JSON and YAML, so limits
// computed on training data can be reapplied unchanged at inference.
//
// # Estimation pipeline
//
// For every feature [Spec]:
//
//  1. optional log pre-transform, ln(x + 5)
//  2. empirical min and max of each sample
//  3. union across samples (min of mins, max of maxes)
//  4. padding, by default pushing both bounds away from zero by 10%
//  5. ZeroMin forces the minimum to 0
//  6. Fixed replaces the bound entirely (periodic angles)
package limits
