package tensor

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange indicates an index outside the tensor shape.
	ErrIndexOutOfRange = errors.New("tensor: index out of range")

	// ErrEmpty indicates an operation that needs at least one tensor.
	ErrEmpty = errors.New("tensor: no tensors given")
)

// ShapeMismatchError reports a tensor whose shape does not match what an
// operation expects. A Want entry of -1 matches any size.
type ShapeMismatchError struct {
	Op   string
	Want []int
	Got  []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("tensor: %s: shape mismatch: want %s, got %v", e.Op, formatWant(e.Want), e.Got)
}

func formatWant(want []int) string {
	s := "["
	for i, d := range want {
		if i > 0 {
			s += " "
		}
		if d < 0 {
			s += "*"
		} else {
			s += fmt.Sprint(d)
		}
	}
	return s + "]"
}
