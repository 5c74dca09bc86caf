// Package kinematics holds the vector algebra used to bring a decay into its
// canonical frame.
//
//   - [RotationMatrices]: per-event Rodrigues rotations aligning one batch of
//     3-vectors onto another
//   - [Rotate]: applies those rotations
//   - [EnergyFromMass], [Sum], [InvariantMass]: mass-shell helpers on
//     go-hep four-vectors
//
// # Aligned vectors
//
// Rodrigues' formula divides by the squared sine of the angle between the
// two vectors. When they are parallel the identity is returned; when they are
// anti-parallel a half-turn about a perpendicular axis is returned. Use
// [WithStrict] to get a [SingularityError] instead.
package kinematics
