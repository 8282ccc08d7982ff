// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// The process-wide shape registry. Registration tells the deriver things it
// cannot discover reflectively: which interface types are enums (and their
// variant set), which pointer types mean "indirection" rather than "optional",
// and which opaque types are scalars with custom operations.
//
// Registration happens during package init, before any shape is derived; the
// registry is read-only afterwards. Registering the same type twice is a
// programming error and panics.
package shape

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

type registry struct {
	mu      sync.Mutex
	derived map[reflect.Type]*Shape

	enums    map[reflect.Type][]reflect.Type // interface -> variant struct types
	pointers map[reflect.Type]bool           // pointee types with Pointer semantics
	scalars  map[reflect.Type]OpTable        // opaque leaf types
}

var global = &registry{
	derived:  make(map[reflect.Type]*Shape),
	enums:    make(map[reflect.Type][]reflect.Type),
	pointers: make(map[reflect.Type]bool),
	scalars:  make(map[reflect.Type]OpTable),
}

// RegisterEnum declares the interface type I as an enum whose variants are
// the concrete struct types of the given values. I derives as an Enum shape
// afterwards; unregistered interface types cannot be derived at all.
func RegisterEnum[I any](variants ...I) {
	iface := reflect.TypeOf((*I)(nil)).Elem()
	if iface.Kind() != reflect.Interface {
		panic(fmt.Sprintf("shape: RegisterEnum base %s is not an interface", iface))
	}
	if len(variants) == 0 {
		panic(fmt.Sprintf("shape: RegisterEnum %s needs at least one variant", iface))
	}
	types := make([]reflect.Type, len(variants))
	for i, v := range variants {
		t := reflect.TypeOf(v)
		if t == nil || t.Kind() != reflect.Struct {
			panic(fmt.Sprintf("shape: enum %s variant %d is not a struct value", iface, i))
		}
		types[i] = t
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if _, exists := global.enums[iface]; exists {
		panic(fmt.Sprintf("shape: enum %s already registered", iface))
	}
	slog.Debug("Registering enum shape.", "interface", iface.String(), "variants", len(types))
	global.enums[iface] = types
}

// RegisterPointer declares that *T should derive with Pointer (mandatory
// indirection) semantics instead of the Option default.
func RegisterPointer[T any]() {
	t := reflect.TypeOf((*T)(nil)).Elem()

	global.mu.Lock()
	defer global.mu.Unlock()
	if global.pointers[t] {
		panic(fmt.Sprintf("shape: pointer semantics for *%s already registered", t))
	}
	slog.Debug("Registering pointer shape.", "pointee", t.String())
	global.pointers[t] = true
}

// RegisterScalar declares T an indivisible leaf with the given operations,
// overriding structural derivation. This is the hook for resource handles and
// other opaque types.
func RegisterScalar[T any](ops OpTable) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	global.mu.Lock()
	defer global.mu.Unlock()
	if _, exists := global.scalars[t]; exists {
		panic(fmt.Sprintf("shape: scalar ops for %s already registered", t))
	}
	slog.Debug("Registering scalar shape.", "type", t.String())
	global.scalars[t] = ops
}
