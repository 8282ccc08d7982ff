package build

import (
	"fmt"
	"reflect"

	"github.com/vk/shapecraft/shape"
)

// frameRole records how a frame's finished value attaches to its parent.
type frameRole uint8

const (
	roleRoot     frameRole = iota
	roleSlot               // struct/tuple/array/enum-variant field
	roleListItem           // appended to the parent sequence
	roleMapKey             // staged as the parent's pending entry key
	roleMapValue           // committed with the pending key into the map
	roleInner              // boxed into the parent option/pointer
)

// frame is one in-progress construction context: an owned buffer for a value
// of one shape, the tracker for its direct sub-slots, and the bookkeeping
// that attaches it to its parent when it ascends.
type frame struct {
	shape *shape.Shape

	// buf is an addressable value of shape.Type, exclusively owned by this
	// frame until it ascends (ownership moves to the parent slot) or the
	// builder is abandoned (initialized content is dropped).
	buf reflect.Value

	tracker initTracker

	// order lists slot indexes in the order they were initialized, so
	// rollback can release them in reverse.
	order []int

	role frameRole
	slot int    // parent slot index when role == roleSlot
	seg  string // path segment, e.g. ".name" or "[2]"

	// Enum frames stage the selected variant here until ascend folds it
	// into buf (the interface value).
	variant    *shape.Variant
	variantBuf reflect.Value

	// List/Map frames.
	started       bool            // BeginList/BeginMap was called
	entryOpen     bool            // a map entry is between BeginEntry and commit
	hasPending    bool            // the open entry's key has been committed
	pendingKey    reflect.Value   // key awaiting its value
	committedKeys []reflect.Value // insertion order, for reverse rollback
}

func newFrame(s *shape.Shape, role frameRole, slot int, seg string) *frame {
	f := &frame{
		shape: s,
		buf:   reflect.New(s.Type).Elem(),
		role:  role,
		slot:  slot,
		seg:   seg,
	}
	f.tracker = newTracker(f.slotCount())
	return f
}

// slotCount is the number of tracker bits the frame's kind needs. Enum frames
// re-size the tracker when a variant is selected; List/Map frames track
// nothing bit-wise (their completion is the started flag).
func (f *frame) slotCount() int {
	switch f.shape.Kind {
	case shape.Struct, shape.Tuple:
		return len(f.shape.Fields)
	case shape.Array:
		return f.shape.Len
	case shape.Scalar, shape.Option, shape.Pointer:
		return 1
	default:
		return 0
	}
}

// slotShape returns the shape of direct sub-slot i.
func (f *frame) slotShape(i int) *shape.Shape {
	switch f.shape.Kind {
	case shape.Struct, shape.Tuple:
		return f.shape.Fields[i].Shape
	case shape.Array:
		return f.shape.Elem
	case shape.Enum:
		return f.variant.Shape.Fields[i].Shape
	case shape.Option, shape.Pointer:
		return f.shape.Elem
	default:
		return f.shape
	}
}

// slotTarget returns the storage for direct sub-slot i inside this frame's
// buffer. Not meaningful for List/Map frames.
func (f *frame) slotTarget(i int) reflect.Value {
	switch f.shape.Kind {
	case shape.Struct, shape.Tuple:
		return f.buf.Field(f.shape.Fields[i].Index)
	case shape.Array:
		return f.buf.Index(i)
	case shape.Enum:
		return f.variantBuf.Field(f.variant.Shape.Fields[i].Index)
	default:
		return f.buf
	}
}

// markSlot records sub-slot i as initialized.
func (f *frame) markSlot(i int) {
	if !f.tracker.isSet(i) {
		f.tracker.set(i)
		f.order = append(f.order, i)
	}
}

// clearSlot forgets sub-slot i, keeping the drop-order bookkeeping in sync.
func (f *frame) clearSlot(i int) {
	if !f.tracker.isSet(i) {
		return
	}
	f.tracker.clear(i)
	for j := len(f.order) - 1; j >= 0; j-- {
		if f.order[j] == i {
			f.order = append(f.order[:j], f.order[j+1:]...)
			break
		}
	}
}

// complete reports whether the frame satisfies its kind's completion rule,
// and if not, names what is missing.
func (f *frame) complete() (bool, string) {
	switch f.shape.Kind {
	case shape.Scalar:
		if !f.tracker.isSet(0) {
			return false, "value not written"
		}
	case shape.Struct, shape.Tuple:
		if i := f.tracker.firstUnset(); i != -1 {
			return false, fmt.Sprintf("field %q not set", f.shape.Fields[i].Name)
		}
	case shape.Array:
		if i := f.tracker.firstUnset(); i != -1 {
			return false, fmt.Sprintf("element [%d] not set", i)
		}
	case shape.Enum:
		if f.variant == nil {
			return false, "no variant selected"
		}
		if i := f.tracker.firstUnset(); i != -1 {
			return false, fmt.Sprintf("variant %s field %q not set",
				f.variant.Name, f.variant.Shape.Fields[i].Name)
		}
	case shape.List, shape.Map:
		if !f.started {
			return false, "container not begun"
		}
		if f.entryOpen {
			return false, "map entry still open"
		}
	case shape.Option:
		// Empty is a valid final state; a set inner is too.
	case shape.Pointer:
		if !f.tracker.isSet(0) {
			return false, "pointee not set"
		}
	}
	return true, ""
}

// markAllComplete records the whole frame as initialized in one step, used
// after a successful SetDefault.
func (f *frame) markAllComplete() {
	switch f.shape.Kind {
	case shape.List, shape.Map:
		f.started = true
	default:
		for i := 0; i < f.tracker.n; i++ {
			f.markSlot(i)
		}
	}
}

// resetTransient clears container and enum bookkeeping alongside the tracker,
// returning the frame to its never-written state.
func (f *frame) resetTransient() {
	f.tracker.reset(f.slotCount())
	f.order = nil
	f.variant = nil
	f.variantBuf = reflect.Value{}
	f.started = false
	f.entryOpen = false
	f.hasPending = false
	f.pendingKey = reflect.Value{}
	f.committedKeys = nil
}

// finish folds any staged state into buf so the frame's value can be handed
// to its parent or materialized. For enums this assigns the completed variant
// into the interface buffer.
func (f *frame) finish() {
	if f.shape.Kind == shape.Enum && f.variant != nil {
		f.buf.Set(f.variantBuf)
	}
}
