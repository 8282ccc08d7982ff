package build

import (
	"reflect"

	"github.com/vk/shapecraft/shape"
)

// Abandon deterministically releases everything the builder initialized,
// walking the live frame stack from the current frame back to the root and
// dropping each frame's initialized slots in reverse initialization order.
// Uninitialized slots are never touched; nothing is dropped twice. The
// builder is poisoned afterwards. Abandon is idempotent and is a no-op after
// Materialize (ownership already left the builder).
func (b *Builder) Abandon() {
	if b.lc == lcMaterialized || b.lc == lcPoisoned {
		return
	}
	b.logger.Debug("builder abandoned", "path", b.Path(), "frames", len(b.frames))
	for i := len(b.frames) - 1; i >= 0; i-- {
		b.dropFrameContent(b.frames[i])
	}
	b.frames = nil
	b.lc = lcPoisoned
}

// dropFrameContent releases exactly the slots the frame's tracker marks
// initialized, in reverse initialization order, plus any staged container
// state (a pending map key, committed entries, appended list elements).
func (b *Builder) dropFrameContent(f *frame) {
	switch f.shape.Kind {
	case shape.List:
		if f.started && !f.buf.IsNil() {
			for i := f.buf.Len() - 1; i >= 0; i-- {
				f.shape.Elem.DropValue(f.buf.Index(i))
			}
			f.buf.Set(reflect.Zero(f.shape.Type))
		}
		f.started = false

	case shape.Map:
		if f.hasPending {
			f.shape.Key.DropValue(f.pendingKey)
			f.pendingKey = reflect.Value{}
			f.hasPending = false
		}
		if f.started && !f.buf.IsNil() {
			for i := len(f.committedKeys) - 1; i >= 0; i-- {
				k := f.committedKeys[i]
				if v := f.buf.MapIndex(k); v.IsValid() {
					f.shape.Elem.DropValue(v)
				}
				f.shape.Key.DropValue(k)
			}
			f.buf.Set(reflect.Zero(f.shape.Type))
		}
		f.committedKeys = nil
		f.entryOpen = false
		f.started = false

	default:
		for j := len(f.order) - 1; j >= 0; j-- {
			idx := f.order[j]
			f.tracker.clear(idx)
			b.releaseSlot(f, idx)
		}
		f.order = nil
	}
}

// releaseSlot runs the drop path for one slot's current value. Single-slot
// frames (scalar, option, pointer) drop through their own shape so nil
// pointers are handled uniformly.
func (b *Builder) releaseSlot(f *frame, slot int) {
	switch f.shape.Kind {
	case shape.Scalar, shape.Option, shape.Pointer:
		f.shape.DropValue(f.buf)
		f.buf.Set(reflect.Zero(f.shape.Type))
	default:
		sh := f.slotShape(slot)
		target := f.slotTarget(slot)
		sh.DropValue(target)
		target.Set(reflect.Zero(sh.Type))
	}
}
