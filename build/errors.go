package build

import "errors"

// Sentinel errors for the builder protocol. Operations wrap these with the
// builder's current path and a concrete message; branch with errors.Is.
var (
	// ErrInvalidSelector means the requested sub-slot or container
	// operation does not exist for the current frame's kind.
	ErrInvalidSelector = errors.New("build: selector not valid for current frame")

	// ErrTypeMismatch means a written value's type disagrees with the
	// current slot's shape.
	ErrTypeMismatch = errors.New("build: value type does not match slot shape")

	// ErrParse means a string-to-scalar conversion failed.
	ErrParse = errors.New("build: string conversion failed")

	// ErrIncompleteFrame means Ascend or Materialize was attempted while
	// required slots are still unset.
	ErrIncompleteFrame = errors.New("build: frame not fully initialized")

	// ErrUnknownVariant means the named enum variant does not exist.
	ErrUnknownVariant = errors.New("build: no such enum variant")

	// ErrNoDefault means SetDefault was called on a shape without a
	// default operation.
	ErrNoDefault = errors.New("build: shape has no default operation")

	// ErrSlotAlreadyOwned means construction of a slot was restarted while
	// a previous construction of it is still live (an open map entry, an
	// already-begun container).
	ErrSlotAlreadyOwned = errors.New("build: slot already owned")

	// ErrPoisoned means the builder was used after Materialize, after
	// Abandon, or after an unrecoverable internal error.
	ErrPoisoned = errors.New("build: builder is poisoned")
)
