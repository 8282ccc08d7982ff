// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Reflective shape derivation. Of walks a Go type once and produces the shape
// tree the builder consumes; results are cached for the life of the process.
// Self-referential types are handled by publishing the shape into the cache
// before its children are derived, so the recursion ties the knot instead of
// looping.
package shape

import (
	"fmt"
	"reflect"
	"strings"
)

// For derives (or fetches the cached) shape for T.
func For[T any]() (*Shape, error) {
	return Of(reflect.TypeOf((*T)(nil)).Elem())
}

// MustFor is For, panicking on derivation errors. Intended for package-level
// shape variables of types known to derive cleanly.
func MustFor[T any]() *Shape {
	s, err := For[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// Of derives (or fetches the cached) shape for t.
func Of(t reflect.Type) (*Shape, error) {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.derive(t)
}

// derive must be called with the registry lock held.
func (r *registry) derive(t reflect.Type) (*Shape, error) {
	if s, ok := r.derived[t]; ok {
		return s, nil
	}

	if ops, ok := r.scalars[t]; ok {
		s := &Shape{Kind: Scalar, Type: t, Ops: ops}
		r.derived[t] = s
		return s, nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		s := &Shape{Kind: Scalar, Type: t, Ops: scalarOps(t)}
		r.derived[t] = s
		return s, nil

	case reflect.Pointer:
		kind := Option
		if r.pointers[t.Elem()] {
			kind = Pointer
		}
		s := &Shape{Kind: kind, Type: t}
		if kind == Option {
			s.Ops.Default = func() reflect.Value { return reflect.Zero(t) }
		}
		r.derived[t] = s
		inner, err := r.derive(t.Elem())
		if err != nil {
			delete(r.derived, t)
			return nil, err
		}
		s.Elem = inner
		return s, nil

	case reflect.Slice:
		s := &Shape{Kind: List, Type: t}
		s.Ops.Iterate = sequenceIterate
		s.Ops.Default = func() reflect.Value { return reflect.MakeSlice(t, 0, 0) }
		r.derived[t] = s
		elem, err := r.derive(t.Elem())
		if err != nil {
			delete(r.derived, t)
			return nil, err
		}
		s.Elem = elem
		return s, nil

	case reflect.Array:
		s := &Shape{Kind: Array, Type: t, Len: t.Len()}
		s.Ops.Iterate = sequenceIterate
		r.derived[t] = s
		elem, err := r.derive(t.Elem())
		if err != nil {
			delete(r.derived, t)
			return nil, err
		}
		s.Elem = elem
		if ed := elem.Ops.Default; ed != nil {
			n := t.Len()
			s.Ops.Default = func() reflect.Value {
				v := reflect.New(t).Elem()
				for i := 0; i < n; i++ {
					v.Index(i).Set(ed())
				}
				return v
			}
		}
		return s, nil

	case reflect.Map:
		s := &Shape{Kind: Map, Type: t}
		s.Ops.Iterate = func(v reflect.Value, fn func(k, e reflect.Value) bool) {
			it := v.MapRange()
			for it.Next() {
				if !fn(it.Key(), it.Value()) {
					return
				}
			}
		}
		s.Ops.Default = func() reflect.Value { return reflect.MakeMap(t) }
		r.derived[t] = s
		key, err := r.derive(t.Key())
		if err == nil {
			s.Key = key
			s.Elem, err = r.derive(t.Elem())
		}
		if err != nil {
			delete(r.derived, t)
			return nil, err
		}
		return s, nil

	case reflect.Struct:
		s := &Shape{Kind: Struct, Type: t}
		r.derived[t] = s
		fields, err := r.deriveFields(t)
		if err != nil {
			delete(r.derived, t)
			return nil, fmt.Errorf("derive %s: %w", t, err)
		}
		s.Fields = fields
		s.Ops.Default = fieldsDefault(s)
		return s, nil

	case reflect.Interface:
		variantTypes, ok := r.enums[t]
		if !ok {
			return nil, fmt.Errorf("shape: interface %s has no registered enum variants", t)
		}
		s := &Shape{Kind: Enum, Type: t}
		r.derived[t] = s
		variants := make([]Variant, 0, len(variantTypes))
		for _, vt := range variantTypes {
			if !vt.Implements(t) {
				delete(r.derived, t)
				return nil, fmt.Errorf("shape: variant %s does not implement %s", vt, t)
			}
			vs, err := r.derive(vt)
			if err != nil {
				delete(r.derived, t)
				return nil, err
			}
			variants = append(variants, Variant{Name: vt.Name(), Shape: vs})
		}
		s.Variants = variants
		return s, nil
	}

	return nil, fmt.Errorf("shape: cannot derive a shape for %s (%s)", t, t.Kind())
}

// deriveFields collects the exported fields of a struct type, honoring the
// `shape` tag for renames and `shape:"-"` for exclusion.
func (r *registry) deriveFields(t reflect.Type) ([]Field, error) {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("shape"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fs, err := r.derive(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		fields = append(fields, Field{Name: name, Index: i, Shape: fs})
	}
	return fields, nil
}
