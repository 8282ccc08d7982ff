package build

import "fmt"

type selectorKind uint8

const (
	selectorInvalid selectorKind = iota
	selectorField
	selectorIndex
	selectorInner
)

// Selector addresses one direct sub-slot of the current frame: a struct or
// enum-variant field by name, a tuple/array position by index, or the single
// inner slot of an option or pointer.
type Selector struct {
	kind  selectorKind
	name  string
	index int
}

// Field selects a named struct or enum-variant field.
func Field(name string) Selector {
	return Selector{kind: selectorField, name: name}
}

// Index selects a positional slot: a tuple element, an array element, or a
// struct field by declaration position.
func Index(i int) Selector {
	return Selector{kind: selectorIndex, index: i}
}

// Inner selects the single pointee slot of an Option or Pointer frame.
func Inner() Selector {
	return Selector{kind: selectorInner}
}

func (s Selector) String() string {
	switch s.kind {
	case selectorField:
		return "." + s.name
	case selectorIndex:
		return fmt.Sprintf("[%d]", s.index)
	case selectorInner:
		return ".*"
	default:
		return "<invalid selector>"
	}
}
