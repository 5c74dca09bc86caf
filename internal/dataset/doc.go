// Package dataset turns flat event columns into the rotated momentum
// tensors used for training.
//
// [Assemble] sums the daughters into a reconstructed mother, derives the
// mother kinematics, rotates every event so the frame vector points along
// +z, and recomputes the rotated energies from the mass shell. The frame
// vector is the true mother momentum when the tree carries it
// ([FrameTrueMother]) or the reconstructed daughter sum
// ([FrameReconstructed]).
package dataset
