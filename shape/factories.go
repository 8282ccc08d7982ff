// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Shape factories for assembling descriptors by hand, without a pre-existing
// Go type. Factories synthesize the backing reflect.Type where one is needed
// (structs, tuples) and attach structural operation tables.
package shape

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// ScalarOf returns a Scalar shape for a primitive Go type with the built-in
// parse/display/equal/default operations.
func ScalarOf(t reflect.Type) (*Shape, error) {
	if !isPrimitive(t) {
		return nil, fmt.Errorf("shape: %s is not a primitive scalar type", t)
	}
	return &Shape{Kind: Scalar, Type: t, Ops: scalarOps(t)}, nil
}

// CustomScalar returns a Scalar shape for an arbitrary Go type with a
// caller-supplied operation table. This is the hook for opaque leaf types
// (handles, timestamps, ids) that the builder should treat as indivisible.
func CustomScalar(t reflect.Type, ops OpTable) *Shape {
	return &Shape{Kind: Scalar, Type: t, Ops: ops}
}

// StructOf returns a Struct shape over a synthesized Go struct type. Each
// Field needs Name and Shape; Index is assigned here. Field names may be any
// non-empty strings (they are sanitized into exported Go identifiers for the
// backing type, but selectors always use the original names).
func StructOf(fields ...Field) (*Shape, error) {
	sfs := make([]reflect.StructField, len(fields))
	seen := make(map[string]bool, len(fields))
	idents := make(map[string]bool, len(fields))
	for i := range fields {
		if fields[i].Name == "" || fields[i].Shape == nil {
			return nil, fmt.Errorf("shape: struct field %d needs a name and a shape", i)
		}
		if seen[fields[i].Name] {
			return nil, fmt.Errorf("shape: duplicate struct field %q", fields[i].Name)
		}
		seen[fields[i].Name] = true
		ident := goFieldName(fields[i].Name, i)
		if idents[ident] {
			ident += "_" + strconv.Itoa(i)
		}
		idents[ident] = true
		fields[i].Index = i
		sfs[i] = reflect.StructField{Name: ident, Type: fields[i].Shape.Type}
	}
	s := &Shape{Kind: Struct, Type: reflect.StructOf(sfs), Fields: fields}
	s.Ops.Default = fieldsDefault(s)
	return s, nil
}

// TupleOf returns a Tuple shape over a synthesized positional struct. Slots
// are addressed by index; their names are the decimal positions.
func TupleOf(elems ...*Shape) (*Shape, error) {
	if len(elems) == 0 {
		return nil, fmt.Errorf("shape: tuple needs at least one element")
	}
	fields := make([]Field, len(elems))
	sfs := make([]reflect.StructField, len(elems))
	for i, e := range elems {
		fields[i] = Field{Name: strconv.Itoa(i), Index: i, Shape: e}
		sfs[i] = reflect.StructField{Name: "F" + strconv.Itoa(i), Type: e.Type}
	}
	s := &Shape{Kind: Tuple, Type: reflect.StructOf(sfs), Fields: fields}
	s.Ops.Default = fieldsDefault(s)
	return s, nil
}

// ArrayOf returns an Array shape with n elements of the given shape.
func ArrayOf(n int, elem *Shape) (*Shape, error) {
	if n < 0 {
		return nil, fmt.Errorf("shape: negative array length %d", n)
	}
	s := &Shape{Kind: Array, Type: reflect.ArrayOf(n, elem.Type), Elem: elem, Len: n}
	s.Ops.Iterate = sequenceIterate
	if elem.Ops.Default != nil {
		ed := elem.Ops.Default
		s.Ops.Default = func() reflect.Value {
			v := reflect.New(s.Type).Elem()
			for i := 0; i < n; i++ {
				v.Index(i).Set(ed())
			}
			return v
		}
	}
	return s, nil
}

// ListOf returns a List shape over a slice of the element shape. The default
// operation yields an empty (but non-nil) sequence.
func ListOf(elem *Shape) *Shape {
	s := &Shape{Kind: List, Type: reflect.SliceOf(elem.Type), Elem: elem}
	s.Ops.Iterate = sequenceIterate
	s.Ops.Default = func() reflect.Value { return reflect.MakeSlice(s.Type, 0, 0) }
	return s
}

// MapOf returns a Map shape. The key shape's Go type must be comparable.
func MapOf(key, elem *Shape) (*Shape, error) {
	if !key.Type.Comparable() {
		return nil, fmt.Errorf("shape: map key type %s is not comparable", key.Type)
	}
	s := &Shape{Kind: Map, Type: reflect.MapOf(key.Type, elem.Type), Key: key, Elem: elem}
	s.Ops.Iterate = func(v reflect.Value, fn func(k, e reflect.Value) bool) {
		it := v.MapRange()
		for it.Next() {
			if !fn(it.Key(), it.Value()) {
				return
			}
		}
	}
	s.Ops.Default = func() reflect.Value { return reflect.MakeMap(s.Type) }
	return s, nil
}

// OptionOf returns an Option shape over *inner; nil is the empty state and is
// also the default.
func OptionOf(inner *Shape) *Shape {
	s := &Shape{Kind: Option, Type: reflect.PointerTo(inner.Type), Elem: inner}
	s.Ops.Default = func() reflect.Value { return reflect.Zero(s.Type) }
	return s
}

// PointerOf returns a Pointer shape over *inner. Unlike Option, a nil value
// is never a complete value of this shape, so there is no default.
func PointerOf(inner *Shape) *Shape {
	return &Shape{Kind: Pointer, Type: reflect.PointerTo(inner.Type), Elem: inner}
}

// EnumOf returns an Enum shape for an interface type with the given variants.
// Every variant shape must be a Struct shape whose Go type implements iface.
func EnumOf(iface reflect.Type, variants ...Variant) (*Shape, error) {
	if iface.Kind() != reflect.Interface {
		return nil, fmt.Errorf("shape: enum base %s is not an interface type", iface)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("shape: enum %s needs at least one variant", iface)
	}
	seen := make(map[string]bool, len(variants))
	for _, vr := range variants {
		if vr.Shape == nil || vr.Shape.Kind != Struct {
			return nil, fmt.Errorf("shape: enum variant %q must carry a struct shape", vr.Name)
		}
		if seen[vr.Name] {
			return nil, fmt.Errorf("shape: duplicate enum variant %q", vr.Name)
		}
		seen[vr.Name] = true
		if !vr.Shape.Type.Implements(iface) {
			return nil, fmt.Errorf("shape: variant type %s does not implement %s", vr.Shape.Type, iface)
		}
	}
	return &Shape{Kind: Enum, Type: iface, Variants: variants}, nil
}

func sequenceIterate(v reflect.Value, fn func(k, e reflect.Value) bool) {
	for i := 0; i < v.Len(); i++ {
		if !fn(reflect.ValueOf(i), v.Index(i)) {
			return
		}
	}
}

// fieldsDefault composes a Default op for a Struct/Tuple shape from its
// fields' defaults, or returns nil when any field lacks one.
func fieldsDefault(s *Shape) func() reflect.Value {
	for i := range s.Fields {
		if s.Fields[i].Shape.Ops.Default == nil {
			return nil
		}
	}
	return func() reflect.Value {
		v := reflect.New(s.Type).Elem()
		for i := range s.Fields {
			f := &s.Fields[i]
			v.Field(f.Index).Set(f.Shape.Ops.Default())
		}
		return v
	}
}

// goFieldName turns an arbitrary slot name into an exported Go identifier
// for synthesized struct types.
func goFieldName(name string, pos int) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || !unicode.IsLetter(rune(out[0])) {
		out = "F" + strconv.Itoa(pos) + "_" + out
	}
	return strings.ToUpper(out[:1]) + out[1:]
}
