// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Built-in scalar operation tables for Go's primitive types. Parse uses
// strconv so that string-driven construction (flags, text inputs) lands on
// the exact target width with range checking.
package shape

import (
	"fmt"
	"reflect"
	"strconv"
)

// scalarOps builds the operation table for a primitive Go type. t must have a
// bool, integer, float, or string reflect.Kind.
func scalarOps(t reflect.Type) OpTable {
	ops := OpTable{
		Default: func() reflect.Value { return reflect.Zero(t) },
		Equal: func(a, b reflect.Value) bool {
			return a.Interface() == b.Interface()
		},
	}

	switch t.Kind() {
	case reflect.Bool:
		ops.Parse = func(s string) (reflect.Value, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("parse %q as %s: %w", s, t, err)
			}
			v := reflect.New(t).Elem()
			v.SetBool(b)
			return v, nil
		}
		ops.Display = func(v reflect.Value) string { return strconv.FormatBool(v.Bool()) }

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		ops.Parse = func(s string) (reflect.Value, error) {
			n, err := strconv.ParseInt(s, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("parse %q as %s: %w", s, t, err)
			}
			v := reflect.New(t).Elem()
			v.SetInt(n)
			return v, nil
		}
		ops.Display = func(v reflect.Value) string { return strconv.FormatInt(v.Int(), 10) }

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		ops.Parse = func(s string) (reflect.Value, error) {
			n, err := strconv.ParseUint(s, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("parse %q as %s: %w", s, t, err)
			}
			v := reflect.New(t).Elem()
			v.SetUint(n)
			return v, nil
		}
		ops.Display = func(v reflect.Value) string { return strconv.FormatUint(v.Uint(), 10) }

	case reflect.Float32, reflect.Float64:
		ops.Parse = func(s string) (reflect.Value, error) {
			f, err := strconv.ParseFloat(s, t.Bits())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("parse %q as %s: %w", s, t, err)
			}
			v := reflect.New(t).Elem()
			v.SetFloat(f)
			return v, nil
		}
		ops.Display = func(v reflect.Value) string {
			return strconv.FormatFloat(v.Float(), 'g', -1, t.Bits())
		}

	case reflect.String:
		ops.Parse = func(s string) (reflect.Value, error) {
			v := reflect.New(t).Elem()
			v.SetString(s)
			return v, nil
		}
		ops.Display = func(v reflect.Value) string { return v.String() }
	}

	return ops
}

// isPrimitive reports whether t can be given a built-in scalar op table.
func isPrimitive(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	}
	return false
}
