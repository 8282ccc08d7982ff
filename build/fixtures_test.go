package build_test

import (
	"reflect"

	"github.com/vk/shapecraft/shape"
)

// Shared fixtures for the build tests. Registrations are process-wide, so
// they live in one init to run exactly once per test binary.

type user struct {
	ID   uint32
	Name string
}

type profile struct {
	User user
	Note *string
}

// payment is an enum fixture with a data-carrying and a unit-ish variant.
type payment interface{ paymentKind() string }

type card struct {
	Number string
	Expiry string
}

func (card) paymentKind() string { return "card" }

type cash struct{ Amount uint32 }

func (cash) paymentKind() string { return "cash" }

// node gets Pointer (mandatory indirection) semantics.
type node struct{ Label string }

// handle is a drop-instrumented resource scalar: every drop appends the
// handle's ID to dropLog, so tests can assert both the count and the order
// of releases.
type handle struct{ ID int }

var dropLog []int

func resetDropLog() { dropLog = nil }

// vault is an enum whose variants carry handles, for variant-switch rollback
// tests.
type vault interface{ isVault() }

type lockbox struct{ H handle }

func (lockbox) isVault() {}

type openbox struct{ Code uint32 }

func (openbox) isVault() {}

// holder wraps an optional handle.
type holder struct{ H *handle }

type twoHandles struct {
	A handle
	B handle
}

type handleBag struct{ Items []handle }

func init() {
	shape.RegisterEnum[payment](card{}, cash{})
	shape.RegisterEnum[vault](lockbox{}, openbox{})
	shape.RegisterPointer[node]()
	shape.RegisterScalar[handle](shape.OpTable{
		Drop: func(v reflect.Value) {
			dropLog = append(dropLog, int(v.Field(0).Int()))
		},
		Equal: func(a, b reflect.Value) bool {
			return a.Interface() == b.Interface()
		},
	})
}
