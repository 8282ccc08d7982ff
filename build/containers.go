package build

import (
	"fmt"
	"reflect"

	"github.com/vk/shapecraft/shape"
)

// BeginList activates the current List frame as an empty ordered sequence.
// Ascending immediately afterwards commits an empty list; that is a valid
// final state, not an incomplete one.
func (b *Builder) BeginList() error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.List {
		return b.errf(ErrInvalidSelector, "BeginList on a %s frame", f.shape.Kind)
	}
	if f.started {
		return b.errf(ErrSlotAlreadyOwned, "list already begun")
	}
	f.buf.Set(reflect.MakeSlice(f.shape.Type, 0, 0))
	f.started = true
	b.lc = lcInProgress
	return nil
}

// AppendItem descends into a fresh element frame; ascending appends the
// element to the sequence and leaves the list ready for the next item.
func (b *Builder) AppendItem() error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.List {
		return b.errf(ErrInvalidSelector, "AppendItem on a %s frame", f.shape.Kind)
	}
	if !f.started {
		return b.errf(ErrInvalidSelector, "AppendItem before BeginList")
	}
	b.push(newFrame(f.shape.Elem, roleListItem, 0, fmt.Sprintf("[%d]", f.buf.Len())))
	return nil
}

// BeginMap activates the current Map frame as an empty map.
func (b *Builder) BeginMap() error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.Map {
		return b.errf(ErrInvalidSelector, "BeginMap on a %s frame", f.shape.Kind)
	}
	if f.started {
		return b.errf(ErrSlotAlreadyOwned, "map already begun")
	}
	f.buf.Set(reflect.MakeMap(f.shape.Type))
	f.started = true
	b.lc = lcInProgress
	return nil
}

// BeginEntry opens one key/value entry. The entry reaches the map only after
// both the key and the value have been built and ascended; an abandoned
// half-entry is dropped, never inserted.
func (b *Builder) BeginEntry() error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.Map {
		return b.errf(ErrInvalidSelector, "BeginEntry on a %s frame", f.shape.Kind)
	}
	if !f.started {
		return b.errf(ErrInvalidSelector, "BeginEntry before BeginMap")
	}
	if f.entryOpen {
		return b.errf(ErrSlotAlreadyOwned, "previous entry still open")
	}
	f.entryOpen = true
	return nil
}

// BeginKey descends into the open entry's key frame. Beginning a second key
// for the same entry drops the previously staged key first.
func (b *Builder) BeginKey() error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.Map || !f.entryOpen {
		return b.errf(ErrInvalidSelector, "BeginKey without an open entry")
	}
	if f.hasPending {
		f.shape.Key.DropValue(f.pendingKey)
		f.pendingKey = reflect.Value{}
		f.hasPending = false
	}
	b.push(newFrame(f.shape.Key, roleMapKey, 0, "[key]"))
	return nil
}

// BeginValue descends into the open entry's value frame; its ascend commits
// the staged key together with the value.
func (b *Builder) BeginValue() error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.Map || !f.entryOpen {
		return b.errf(ErrInvalidSelector, "BeginValue without an open entry")
	}
	if !f.hasPending {
		return b.errf(ErrInvalidSelector, "BeginValue before the entry's key was committed")
	}
	b.push(newFrame(f.shape.Elem, roleMapValue, 0, "[value]"))
	return nil
}

// SelectVariant chooses the named variant of the current Enum frame.
// Selecting a variant while another (or the same) one is partially built
// drops that variant's initialized fields and starts fresh; variants are
// never additive across selections.
func (b *Builder) SelectVariant(name string) error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.Enum {
		return b.errf(ErrInvalidSelector, "SelectVariant on a %s frame", f.shape.Kind)
	}
	vr := f.shape.VariantNamed(name)
	if vr == nil {
		return b.errf(ErrUnknownVariant, "%q is not a variant of %s", name, f.shape.Type)
	}
	b.selectVariant(f, vr)
	return nil
}

// SelectVariantIndex chooses a variant by its position in the shape's
// variant list.
func (b *Builder) SelectVariantIndex(i int) error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.Enum {
		return b.errf(ErrInvalidSelector, "SelectVariantIndex on a %s frame", f.shape.Kind)
	}
	if i < 0 || i >= len(f.shape.Variants) {
		return b.errf(ErrUnknownVariant, "variant index %d out of range (%d variants)", i, len(f.shape.Variants))
	}
	b.selectVariant(f, &f.shape.Variants[i])
	return nil
}

func (b *Builder) selectVariant(f *frame, vr *shape.Variant) {
	if f.variant != nil {
		b.dropFrameContent(f)
	}
	f.variant = vr
	f.variantBuf = reflect.New(vr.Shape.Type).Elem()
	f.tracker.reset(len(vr.Shape.Fields))
	f.order = nil
	b.lc = lcInProgress
	b.logger.Debug("builder variant selected", "path", b.Path(), "variant", vr.Name)
}

// BeginIndirection descends into the pointee of the current Pointer frame.
// Ascending allocates the pointer's backing storage and moves the pointee in;
// this is the only point that introduces an extra heap allocation per level
// of indirection.
func (b *Builder) BeginIndirection() error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.Pointer {
		return b.errf(ErrInvalidSelector, "BeginIndirection on a %s frame", f.shape.Kind)
	}
	return b.Descend(Inner())
}
