package tensor

import (
	"fmt"
	"math"
)

// Dense is a row-major float64 tensor. The leading dimension is the event
// axis.
type Dense struct {
	shape   []int
	strides []int
	data    []float64
}

// New allocates a zero-filled tensor of the given shape.
func New(shape ...int) *Dense {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return newDense(shape, make([]float64, n))
}

// FromSlice wraps data (not copied) in a tensor of the given shape.
func FromSlice(data []float64, shape ...int) (*Dense, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, &ShapeMismatchError{Op: "from slice", Want: []int{len(data)}, Got: shape}
		}
		n *= d
	}
	if n != len(data) {
		return nil, &ShapeMismatchError{Op: "from slice", Want: []int{len(data)}, Got: shape}
	}
	return newDense(shape, data), nil
}

// FromRows builds an [N, F] tensor from equally sized rows.
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	f := len(rows[0])
	t := New(len(rows), f)
	for i, r := range rows {
		if len(r) != f {
			return nil, &ShapeMismatchError{Op: "from rows", Want: []int{len(rows), f}, Got: []int{i, len(r)}}
		}
		copy(t.data[i*f:(i+1)*f], r)
	}
	return t, nil
}

func newDense(shape []int, data []float64) *Dense {
	s := append([]int(nil), shape...)
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return &Dense{shape: s, strides: strides, data: data}
}

// Shape returns a copy of the shape.
func (t *Dense) Shape() []int { return append([]int(nil), t.shape...) }

// Dims returns the number of dimensions.
func (t *Dense) Dims() int { return len(t.shape) }

// Dim returns the size of dimension i.
func (t *Dense) Dim(i int) int { return t.shape[i] }

// Len returns the size of the leading (event) dimension.
func (t *Dense) Len() int {
	if len(t.shape) == 0 {
		return 0
	}
	return t.shape[0]
}

// Data exposes the backing slice.
func (t *Dense) Data() []float64 { return t.data }

// RowSize is the number of values per event.
func (t *Dense) RowSize() int {
	if len(t.shape) == 0 {
		return 0
	}
	return t.strides[0]
}

func (t *Dense) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for %d dims", len(idx), len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Errorf("%w: %v in %v", ErrIndexOutOfRange, idx, t.shape))
		}
		off += v * t.strides[i]
	}
	return off
}

// At returns the value at idx. It panics on a bad index like slice access.
func (t *Dense) At(idx ...int) float64 { return t.data[t.offset(idx)] }

// Set stores v at idx.
func (t *Dense) Set(v float64, idx ...int) { t.data[t.offset(idx)] = v }

// Clone returns a deep copy.
func (t *Dense) Clone() *Dense {
	d := make([]float64, len(t.data))
	copy(d, t.data)
	return newDense(t.shape, d)
}

// Rows copies events [from, to).
func (t *Dense) Rows(from, to int) *Dense {
	if from < 0 {
		from = 0
	}
	if to > t.Len() {
		to = t.Len()
	}
	if to < from {
		to = from
	}
	shape := t.Shape()
	shape[0] = to - from
	rs := t.RowSize()
	d := make([]float64, (to-from)*rs)
	copy(d, t.data[from*rs:to*rs])
	return newDense(shape, d)
}

// Gather copies the events listed in idx, in that order.
func (t *Dense) Gather(idx []int) *Dense {
	shape := t.Shape()
	shape[0] = len(idx)
	rs := t.RowSize()
	out := newDense(shape, make([]float64, len(idx)*rs))
	for i, j := range idx {
		copy(out.data[i*rs:(i+1)*rs], t.data[j*rs:(j+1)*rs])
	}
	return out
}

// Lane copies the values along the leading dimension for fixed trailing
// indices, e.g. Lane(2, 0) on [N,3,3] is px of the third particle.
func (t *Dense) Lane(trailing ...int) []float64 {
	if t.Len() == 0 {
		return []float64{}
	}
	idx := append([]int{0}, trailing...)
	off := t.offset(idx)
	out := make([]float64, t.Len())
	rs := t.RowSize()
	for i := range out {
		out[i] = t.data[off+i*rs]
	}
	return out
}

// SetLane writes vals along the leading dimension for fixed trailing indices.
func (t *Dense) SetLane(vals []float64, trailing ...int) error {
	if len(vals) != t.Len() {
		return &ShapeMismatchError{Op: "set lane", Want: []int{t.Len()}, Got: []int{len(vals)}}
	}
	if len(vals) == 0 {
		return nil
	}
	idx := append([]int{0}, trailing...)
	off := t.offset(idx)
	rs := t.RowSize()
	for i, v := range vals {
		t.data[off+i*rs] = v
	}
	return nil
}

// Expect checks the shape against want; -1 matches any size.
func (t *Dense) Expect(op string, want ...int) error {
	if len(want) != len(t.shape) {
		return &ShapeMismatchError{Op: op, Want: want, Got: t.Shape()}
	}
	for i, w := range want {
		if w >= 0 && w != t.shape[i] {
			return &ShapeMismatchError{Op: op, Want: want, Got: t.Shape()}
		}
	}
	return nil
}

// IsFinite reports whether no element is NaN or Inf.
func (t *Dense) IsFinite() bool {
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Concat joins tensors along the leading dimension.
func Concat(ts ...*Dense) (*Dense, error) {
	if len(ts) == 0 {
		return nil, ErrEmpty
	}
	want := ts[0].Shape()
	want[0] = -1
	n := 0
	for _, t := range ts {
		if err := t.Expect("concat", want...); err != nil {
			return nil, err
		}
		n += t.Len()
	}
	shape := ts[0].Shape()
	shape[0] = n
	data := make([]float64, 0, n*ts[0].RowSize())
	for _, t := range ts {
		data = append(data, t.data...)
	}
	return newDense(shape, data), nil
}
