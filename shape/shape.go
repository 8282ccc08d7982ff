// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the shape descriptor: the runtime description of a type's
// layout (Kind plus decomposition into sub-slots) together with the operation
// table needed to manipulate values of that type without static knowledge of
// it. Shapes are created once per type and are immutable afterwards; many
// builders may reference the same shape concurrently as long as none of them
// mutates it.
package shape

import (
	"fmt"
	"reflect"
)

// Kind classifies a shape's decomposition. It decides which builder
// operations are legal on a frame of that shape.
type Kind uint8

const (
	Invalid Kind = iota
	Scalar       // leaf value, written in one operation
	Struct       // named fields
	Tuple        // positional fields
	Array        // fixed-length element run
	Enum         // one of several variants, each a struct
	List         // growable ordered sequence
	Map          // key/value collection
	Option       // zero or one inner value (*T, nil = empty)
	Pointer      // exactly one heap-allocated inner value (*T, never nil)
)

var kindNames = [...]string{
	Invalid: "invalid",
	Scalar:  "scalar",
	Struct:  "struct",
	Tuple:   "tuple",
	Array:   "array",
	Enum:    "enum",
	List:    "list",
	Map:     "map",
	Option:  "option",
	Pointer: "pointer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Shape describes one type. All fields are read-only after the shape has been
// returned by a factory or by Of; treat a *Shape as deeply immutable.
type Shape struct {
	// Kind selects which of the decomposition fields below are meaningful.
	Kind Kind

	// Type is the Go type values of this shape inhabit. For Enum shapes it
	// is the interface type the variants implement; for Option and Pointer
	// it is the *T pointer type.
	Type reflect.Type

	// Fields is populated for Struct and Tuple shapes, in declaration order.
	Fields []Field

	// Variants is populated for Enum shapes, in registration order.
	Variants []Variant

	// Elem is the element shape for Array and List, the inner shape for
	// Option and Pointer, and the value shape for Map.
	Elem *Shape

	// Key is the key shape for Map.
	Key *Shape

	// Len is the fixed element count for Array.
	Len int

	// Ops is the operation table. Individual operations may be nil,
	// meaning the type does not support them.
	Ops OpTable
}

// Field is one named or positional sub-slot of a Struct or Tuple shape.
type Field struct {
	// Name addresses the field in selectors. Tuples use decimal positions
	// ("0", "1", ...).
	Name string

	// Index is the field's position within the backing Go struct.
	Index int

	Shape *Shape
}

// Variant is one alternative of an Enum shape. Its Shape is always a Struct
// shape over the variant's concrete Go type.
type Variant struct {
	Name  string
	Shape *Shape
}

// FieldNamed returns the field with the given name, or nil.
func (s *Shape) FieldNamed(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// VariantNamed returns the variant with the given name, or nil.
func (s *Shape) VariantNamed(name string) *Variant {
	for i := range s.Variants {
		if s.Variants[i].Name == name {
			return &s.Variants[i]
		}
	}
	return nil
}

// VariantFor returns the variant whose concrete Go type is t, or nil.
func (s *Shape) VariantFor(t reflect.Type) *Variant {
	for i := range s.Variants {
		if s.Variants[i].Shape.Type == t {
			return &s.Variants[i]
		}
	}
	return nil
}

// Size reports the byte size of values of this shape.
func (s *Shape) Size() uintptr { return s.Type.Size() }

// Align reports the required alignment of values of this shape.
func (s *Shape) Align() int { return s.Type.Align() }

func (s *Shape) String() string {
	if s == nil {
		return "<nil shape>"
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Type)
}
