package preprocess

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDirection indicates a Forward direction other than 1 or -1.
	ErrInvalidDirection = errors.New("preprocess: direction must be 1 or -1")

	// ErrMissingKey indicates a batch without a tensor the call needs.
	ErrMissingKey = errors.New("preprocess: missing batch key")

	// ErrUnknownVariant indicates a registry lookup of an unknown name.
	ErrUnknownVariant = errors.New("preprocess: unknown variant")

	// ErrMissingInput indicates a registry build without the sample role a
	// variant estimates from.
	ErrMissingInput = errors.New("preprocess: missing estimation input")
)

// InvalidSelectorError reports an unknown postprocess target selector.
type InvalidSelectorError struct {
	Selector Selector
}

func (e *InvalidSelectorError) Error() string {
	return fmt.Sprintf("preprocess: illegal value of on: %q", string(e.Selector))
}
