// Package tensor provides the fixed-shape numeric batches exchanged between
// the dataset assembler, the preprocessors and downstream consumers.
//
//   - [Dense]: row-major float64 tensor with an explicit shape
//   - [ShapeMismatchError]: returned whenever a shape disagrees
//
// The canonical layouts are:
//
//	momenta         [N, 3, 3]   daughters x (px, py, pz)
//	momenta_mother  [N, 1, 3]   rotated mother (px, py, pz)
//	features        [N, F]      flat per-event feature table
//
// Nothing broadcasts: every operation that combines tensors checks the
// trailing shape first and fails fast.
package tensor
