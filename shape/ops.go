// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Operation tables: the per-type function set a builder dispatches through
// instead of static typing. Every entry is optional; a nil entry means the
// type does not support that operation.
package shape

import "reflect"

// OpTable carries the runtime operations for one shape. The reflect.Value
// arguments are always of the shape's Type (for Enum shapes: the interface
// type, except where noted).
type OpTable struct {
	// Drop releases resources held by an initialized value. Nil for types
	// that own nothing beyond memory. Drop is never called on
	// uninitialized storage and never called twice for the same value.
	Drop func(v reflect.Value)

	// Default produces a fully-initialized default value.
	Default func() reflect.Value

	// Clone produces an independent deep copy of v.
	Clone func(v reflect.Value) reflect.Value

	// Parse converts a string representation into a value of this shape.
	// Only meaningful for Scalar shapes.
	Parse func(s string) (reflect.Value, error)

	// Equal reports whether two initialized values are equal.
	Equal func(a, b reflect.Value) bool

	// Display renders a human-readable form of an initialized value.
	Display func(v reflect.Value) string

	// Iterate visits the elements of a container value in order. For Map
	// shapes key carries the entry key; for sequences key is the int
	// index. Returning false stops the walk. Nil for non-containers.
	Iterate func(v reflect.Value, fn func(key, elem reflect.Value) bool)
}

// DropValue runs the shape's drop operation on v, then recursively drops the
// value's sub-slots so that leaf Drop operations anywhere in the tree run
// exactly once. Sub-slots are visited in reverse declaration order. v must be
// a fully-initialized value of the shape's Type.
func (s *Shape) DropValue(v reflect.Value) {
	if s.Ops.Drop != nil {
		s.Ops.Drop(v)
	}
	switch s.Kind {
	case Struct, Tuple:
		for i := len(s.Fields) - 1; i >= 0; i-- {
			f := &s.Fields[i]
			f.Shape.DropValue(v.Field(f.Index))
		}
	case Array:
		for i := v.Len() - 1; i >= 0; i-- {
			s.Elem.DropValue(v.Index(i))
		}
	case List:
		if !v.IsNil() {
			for i := v.Len() - 1; i >= 0; i-- {
				s.Elem.DropValue(v.Index(i))
			}
		}
	case Map:
		if !v.IsNil() {
			it := v.MapRange()
			for it.Next() {
				s.Elem.DropValue(it.Value())
				s.Key.DropValue(it.Key())
			}
		}
	case Option, Pointer:
		if !v.IsNil() {
			s.Elem.DropValue(v.Elem())
		}
	case Enum:
		if !v.IsNil() {
			concrete := v.Elem()
			if vr := s.VariantFor(concrete.Type()); vr != nil {
				vr.Shape.DropValue(concrete)
			}
		}
	}
}

// CloneValue deep-copies v through the shape tree, preferring each shape's
// Clone operation and falling back to structural copying.
func (s *Shape) CloneValue(v reflect.Value) reflect.Value {
	if s.Ops.Clone != nil {
		return s.Ops.Clone(v)
	}
	return s.structuralClone(v)
}

func (s *Shape) structuralClone(v reflect.Value) reflect.Value {
	switch s.Kind {
	case Struct, Tuple:
		out := reflect.New(s.Type).Elem()
		for i := range s.Fields {
			f := &s.Fields[i]
			out.Field(f.Index).Set(f.Shape.CloneValue(v.Field(f.Index)))
		}
		return out
	case Array:
		out := reflect.New(s.Type).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(s.Elem.CloneValue(v.Index(i)))
		}
		return out
	case List:
		if v.IsNil() {
			return reflect.Zero(s.Type)
		}
		out := reflect.MakeSlice(s.Type, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(s.Elem.CloneValue(v.Index(i)))
		}
		return out
	case Map:
		if v.IsNil() {
			return reflect.Zero(s.Type)
		}
		out := reflect.MakeMapWithSize(s.Type, v.Len())
		it := v.MapRange()
		for it.Next() {
			out.SetMapIndex(s.Key.CloneValue(it.Key()), s.Elem.CloneValue(it.Value()))
		}
		return out
	case Option, Pointer:
		if v.IsNil() {
			return reflect.Zero(s.Type)
		}
		p := reflect.New(s.Elem.Type)
		p.Elem().Set(s.Elem.CloneValue(v.Elem()))
		return p.Convert(s.Type)
	case Enum:
		if v.IsNil() {
			return reflect.Zero(s.Type)
		}
		concrete := v.Elem()
		if vr := s.VariantFor(concrete.Type()); vr != nil {
			out := reflect.New(s.Type).Elem()
			out.Set(vr.Shape.CloneValue(concrete))
			return out
		}
		return v
	default:
		// Scalars without an explicit Clone op copy by assignment.
		out := reflect.New(s.Type).Elem()
		out.Set(v)
		return out
	}
}

// EqualValues compares two initialized values of this shape, preferring the
// shape's Equal operation and falling back to structural comparison.
func (s *Shape) EqualValues(a, b reflect.Value) bool {
	if s.Ops.Equal != nil {
		return s.Ops.Equal(a, b)
	}
	switch s.Kind {
	case Struct, Tuple:
		for i := range s.Fields {
			f := &s.Fields[i]
			if !f.Shape.EqualValues(a.Field(f.Index), b.Field(f.Index)) {
				return false
			}
		}
		return true
	case Array, List:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !s.Elem.EqualValues(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case Map:
		if a.Len() != b.Len() {
			return false
		}
		it := a.MapRange()
		for it.Next() {
			bv := b.MapIndex(it.Key())
			if !bv.IsValid() || !s.Elem.EqualValues(it.Value(), bv) {
				return false
			}
		}
		return true
	case Option, Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return s.Elem.EqualValues(a.Elem(), b.Elem())
	case Enum:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Elem().Type() != b.Elem().Type() {
			return false
		}
		if vr := s.VariantFor(a.Elem().Type()); vr != nil {
			return vr.Shape.EqualValues(a.Elem(), b.Elem())
		}
		return reflect.DeepEqual(a.Interface(), b.Interface())
	default:
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
}
