package build

import (
	"fmt"

	"github.com/vk/shapecraft/shape"
)

// Typed wraps a Builder whose root shape was derived from a Go type, so the
// materialized value comes back statically typed.
type Typed[T any] struct {
	*Builder
}

// AllocFor derives (or fetches) the shape for T and starts a typed builder.
func AllocFor[T any](opts ...Option) (*Typed[T], error) {
	s, err := shape.For[T]()
	if err != nil {
		return nil, err
	}
	b, err := Alloc(s, opts...)
	if err != nil {
		return nil, err
	}
	return &Typed[T]{Builder: b}, nil
}

// Materialize finalizes the root frame and returns the value as T.
func (t *Typed[T]) Materialize() (T, error) {
	var zero T
	v, err := t.Builder.Materialize()
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("build: materialized %T, wanted %T: %w", v, zero, ErrTypeMismatch)
	}
	return out, nil
}
