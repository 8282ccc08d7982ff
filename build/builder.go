package build

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/vk/shapecraft/shape"
)

// State is the coarse lifecycle of a Builder.
type State uint8

const (
	StateEmpty        State = iota // allocated, nothing written yet
	StateInProgress                // at least one write happened
	StateComplete                  // root frame complete, not yet materialized
	StateMaterialized              // value handed out; builder disarmed
	StatePoisoned                  // abandoned or failed; all operations refuse
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInProgress:
		return "in-progress"
	case StateComplete:
		return "complete"
	case StateMaterialized:
		return "materialized"
	case StatePoisoned:
		return "poisoned"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// internal lifecycle; StateComplete is derived, not stored.
type lifecycle uint8

const (
	lcEmpty lifecycle = iota
	lcInProgress
	lcMaterialized
	lcPoisoned
)

// Builder incrementally constructs a value of a runtime-described shape. It
// maintains a stack of frames mirroring the nesting of the value being built;
// the top frame always receives the writes. A Builder is single-threaded and
// exclusively owns its buffers until Materialize or Abandon.
type Builder struct {
	frames   []*frame
	lc       lifecycle
	logger   *slog.Logger
	external bool // root buffer owned by the caller (Into)
}

// Option configures a Builder at allocation time.
type Option func(*Builder)

// WithLogger routes the builder's debug tracing to the given logger instead
// of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// Alloc starts building a value of the given shape from scratch.
func Alloc(s *shape.Shape, opts ...Option) (*Builder, error) {
	if s == nil || s.Kind == shape.Invalid {
		return nil, fmt.Errorf("build: cannot allocate for %s", s)
	}
	b := &Builder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.frames = []*frame{newFrame(s, roleRoot, 0, "$")}
	return b, nil
}

// Into starts building directly into caller-owned storage. ptr must be a
// non-nil pointer; the built value lands in *ptr and is also returned by
// Materialize. The pointee's shape is derived via shape.Of.
func Into(ptr any, opts ...Option) (*Builder, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("build: Into needs a non-nil pointer, got %T: %w", ptr, ErrTypeMismatch)
	}
	s, err := shape.Of(rv.Type().Elem())
	if err != nil {
		return nil, err
	}
	b := &Builder{logger: slog.Default(), external: true}
	for _, opt := range opts {
		opt(b)
	}
	root := newFrame(s, roleRoot, 0, "$")
	root.buf = rv.Elem()
	b.frames = []*frame{root}
	return b, nil
}

// State reports the builder's lifecycle state.
func (b *Builder) State() State {
	switch b.lc {
	case lcMaterialized:
		return StateMaterialized
	case lcPoisoned:
		return StatePoisoned
	case lcEmpty:
		return StateEmpty
	}
	if len(b.frames) == 1 {
		if ok, _ := b.frames[0].complete(); ok {
			return StateComplete
		}
	}
	return StateInProgress
}

// Shape returns the shape of the frame currently receiving writes, or nil
// once the builder is disarmed.
func (b *Builder) Shape() *shape.Shape {
	if len(b.frames) == 0 {
		return nil
	}
	return b.top().shape
}

// Path renders the position of the current frame, e.g. "$.server.hosts[2]".
func (b *Builder) Path() string {
	var sb strings.Builder
	for _, f := range b.frames {
		sb.WriteString(f.seg)
	}
	if sb.Len() == 0 {
		return "$"
	}
	return sb.String()
}

// Depth reports how many frames are live, the root included.
func (b *Builder) Depth() int { return len(b.frames) }

func (b *Builder) top() *frame { return b.frames[len(b.frames)-1] }

// guard rejects any operation once the builder has been disarmed.
func (b *Builder) guard() error {
	switch b.lc {
	case lcMaterialized:
		return fmt.Errorf("build: builder already materialized: %w", ErrPoisoned)
	case lcPoisoned:
		return ErrPoisoned
	}
	return nil
}

// errf wraps a sentinel with the current path and a message. The builder
// stays usable afterwards; these are the recoverable errors.
func (b *Builder) errf(sentinel error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %s: %w", b.Path(), msg, sentinel)
}

// poison marks the builder unusable after an internal invariant violation,
// reclaiming whatever was initialized so far.
func (b *Builder) poison(msg string) error {
	path := b.Path()
	b.Abandon()
	return fmt.Errorf("%s: %s: %w", path, msg, ErrPoisoned)
}

func (b *Builder) push(f *frame) {
	b.frames = append(b.frames, f)
	b.lc = lcInProgress
	b.logger.Debug("builder descend", "path", b.Path(), "kind", f.shape.Kind.String())
}

// Descend addresses a direct sub-slot of the current frame and pushes a new
// frame for it. Re-descending into an already-initialized slot drops the old
// value first, so nothing leaks.
func (b *Builder) Descend(sel Selector) error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()

	switch f.shape.Kind {
	case shape.Struct, shape.Tuple:
		slot, err := b.resolveField(f.shape.Fields, sel)
		if err != nil {
			return err
		}
		fld := &f.shape.Fields[slot]
		b.overwriteSlot(f, slot)
		b.push(newFrame(fld.Shape, roleSlot, slot, "."+fld.Name))
		return nil

	case shape.Array:
		if sel.kind != selectorIndex {
			return b.errf(ErrInvalidSelector, "array elements are addressed by index, got %s", sel)
		}
		if sel.index < 0 || sel.index >= f.shape.Len {
			return b.errf(ErrInvalidSelector, "index %d out of range for [%d]%s", sel.index, f.shape.Len, f.shape.Elem.Type)
		}
		b.overwriteSlot(f, sel.index)
		b.push(newFrame(f.shape.Elem, roleSlot, sel.index, fmt.Sprintf("[%d]", sel.index)))
		return nil

	case shape.Enum:
		if f.variant == nil {
			return b.errf(ErrInvalidSelector, "select a variant before addressing fields")
		}
		slot, err := b.resolveField(f.variant.Shape.Fields, sel)
		if err != nil {
			return err
		}
		fld := &f.variant.Shape.Fields[slot]
		b.overwriteSlot(f, slot)
		b.push(newFrame(fld.Shape, roleSlot, slot, "."+fld.Name))
		return nil

	case shape.Option, shape.Pointer:
		if sel.kind != selectorInner {
			return b.errf(ErrInvalidSelector, "%s frames only accept Inner(), got %s", f.shape.Kind, sel)
		}
		b.overwriteSlot(f, 0)
		b.push(newFrame(f.shape.Elem, roleInner, 0, ".*"))
		return nil

	default:
		return b.errf(ErrInvalidSelector, "cannot descend %s into a %s frame", sel, f.shape.Kind)
	}
}

// overwriteSlot implements drop-before-overwrite: if the slot was already
// initialized, its value is released and the tracker bit cleared before the
// new construction starts.
func (b *Builder) overwriteSlot(f *frame, slot int) {
	if !f.tracker.isSet(slot) {
		return
	}
	b.logger.Debug("builder overwrite", "path", b.Path(), "slot", slot)
	b.releaseSlot(f, slot)
	f.clearSlot(slot)
}

// resolveField maps a selector onto a tracker slot: the field's position in
// declaration order, which may differ from the backing Go struct index when
// fields were skipped during derivation.
func (b *Builder) resolveField(fields []shape.Field, sel Selector) (int, error) {
	switch sel.kind {
	case selectorField:
		for i := range fields {
			if fields[i].Name == sel.name {
				return i, nil
			}
		}
		return -1, b.errf(ErrInvalidSelector, "no field named %q", sel.name)
	case selectorIndex:
		if sel.index < 0 || sel.index >= len(fields) {
			return -1, b.errf(ErrInvalidSelector, "field index %d out of range (%d fields)", sel.index, len(fields))
		}
		return sel.index, nil
	default:
		return -1, b.errf(ErrInvalidSelector, "fields are addressed by name or index, got %s", sel)
	}
}

// WriteScalar writes a leaf value into the current Scalar frame. A string
// written to a non-string scalar goes through the shape's parse operation.
// Overwriting a previously written value drops it first.
func (b *Builder) WriteScalar(v any) error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	if f.shape.Kind != shape.Scalar {
		return b.errf(ErrTypeMismatch, "WriteScalar on a %s frame", f.shape.Kind)
	}
	if v == nil {
		return b.errf(ErrTypeMismatch, "cannot write nil as %s", f.shape.Type)
	}

	val, err := b.coerceScalar(f.shape, reflect.ValueOf(v))
	if err != nil {
		return err
	}

	b.overwriteSlot(f, 0)
	if f.shape.Ops.Clone != nil {
		val = f.shape.Ops.Clone(val)
	}
	f.buf.Set(val)
	f.markSlot(0)
	b.lc = lcInProgress
	return nil
}

// coerceScalar adapts rv to the scalar shape: exact/assignable types pass
// through, strings go through Parse, and numeric values convert when the
// conversion round-trips without loss.
func (b *Builder) coerceScalar(s *shape.Shape, rv reflect.Value) (reflect.Value, error) {
	t := s.Type
	switch {
	case rv.Type() == t:
		return rv, nil
	case rv.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	case rv.Kind() == reflect.String && t.Kind() != reflect.String:
		if s.Ops.Parse == nil {
			return reflect.Value{}, b.errf(ErrTypeMismatch, "%s does not support parsing from string", t)
		}
		out, err := s.Ops.Parse(rv.String())
		if err != nil {
			return reflect.Value{}, b.errf(ErrParse, "%v", err)
		}
		return out, nil
	case isNumeric(rv.Type()) && isNumeric(t) && rv.Type().ConvertibleTo(t):
		out := rv.Convert(t)
		// Reject lossy conversions instead of silently truncating.
		if back := out.Convert(rv.Type()); !back.Equal(rv) {
			return reflect.Value{}, b.errf(ErrTypeMismatch, "%v does not fit in %s", rv.Interface(), t)
		}
		return out, nil
	default:
		return reflect.Value{}, b.errf(ErrTypeMismatch, "cannot write %s as %s", rv.Type(), t)
	}
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// SetDefault fills the current frame with its shape's default value,
// releasing anything already initialized in it first.
func (b *Builder) SetDefault() error {
	if err := b.guard(); err != nil {
		return err
	}
	f := b.top()
	def := f.shape.Ops.Default
	if def == nil {
		return b.errf(ErrNoDefault, "%s has no default", f.shape)
	}
	b.dropFrameContent(f)
	f.resetTransient()
	f.buf.Set(def())
	f.markAllComplete()
	b.lc = lcInProgress
	return nil
}

// Ascend commits the completed current frame into its parent slot, marks
// that slot initialized, and pops the frame. Buffer ownership transfers to
// the parent.
func (b *Builder) Ascend() error {
	if err := b.guard(); err != nil {
		return err
	}
	if len(b.frames) == 1 {
		return b.errf(ErrInvalidSelector, "already at the root frame; call Materialize")
	}
	f := b.top()
	if ok, missing := f.complete(); !ok {
		return b.errf(ErrIncompleteFrame, "%s", missing)
	}
	f.finish()

	b.frames = b.frames[:len(b.frames)-1]
	parent := b.top()

	switch f.role {
	case roleSlot:
		parent.slotTarget(f.slot).Set(f.buf)
		parent.markSlot(f.slot)
	case roleListItem:
		parent.buf.Set(reflect.Append(parent.buf, f.buf))
	case roleMapKey:
		parent.pendingKey = f.buf
		parent.hasPending = true
	case roleMapValue:
		if old := parent.buf.MapIndex(parent.pendingKey); old.IsValid() {
			// Overwriting an existing entry: release the old value and
			// the duplicate key now. The map keeps its original key, so
			// committedKeys already records this entry exactly once.
			parent.shape.Elem.DropValue(old)
			parent.shape.Key.DropValue(parent.pendingKey)
		} else {
			parent.committedKeys = append(parent.committedKeys, parent.pendingKey)
		}
		parent.buf.SetMapIndex(parent.pendingKey, f.buf)
		parent.pendingKey = reflect.Value{}
		parent.hasPending = false
		parent.entryOpen = false
	case roleInner:
		p := reflect.New(f.shape.Type)
		p.Elem().Set(f.buf)
		parent.buf.Set(p)
		parent.markSlot(0)
	default:
		return b.poison("ascend saw a frame with no attachment role")
	}

	b.logger.Debug("builder ascend", "path", b.Path())
	return nil
}

// Materialize finalizes a fully-initialized root frame into a caller-owned
// value and disarms the builder; every subsequent operation fails with
// ErrPoisoned. No drop operations run on the bytes being handed out.
func (b *Builder) Materialize() (any, error) {
	if err := b.guard(); err != nil {
		return nil, err
	}
	if len(b.frames) > 1 {
		return nil, b.errf(ErrIncompleteFrame, "%d frames still open", len(b.frames)-1)
	}
	root := b.frames[0]
	if ok, missing := root.complete(); !ok {
		return nil, b.errf(ErrIncompleteFrame, "%s", missing)
	}
	root.finish()

	out := root.buf.Interface()
	b.frames = nil
	b.lc = lcMaterialized
	b.logger.Debug("builder materialized", "shape", root.shape.String())
	return out, nil
}
