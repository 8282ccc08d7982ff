package ctybridge

import (
	"context"
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/shapecraft/build"
	"github.com/vk/shapecraft/internal/ctxlog"
	"github.com/vk/shapecraft/shape"
)

// FromValue builds a value of the given shape from a cty value. A nil shape
// means "imply one from the value's type". The builder and its partial state
// are reclaimed on any error.
func FromValue(ctx context.Context, v cty.Value, s *shape.Shape) (any, error) {
	if s == nil {
		var err error
		if s, err = ImpliedShape(v.Type()); err != nil {
			return nil, err
		}
	}
	b, err := build.Alloc(s)
	if err != nil {
		return nil, err
	}
	if err := Build(ctx, b, v); err != nil {
		b.Abandon()
		return nil, err
	}
	out, err := b.Materialize()
	if err != nil {
		b.Abandon()
		return nil, err
	}
	return out, nil
}

// Build drives the builder's current frame from a cty value, recursing
// through the public construction protocol. The caller keeps ownership of
// the builder either way; on error it is left positioned where the mismatch
// occurred, so the path in the error points at the offending element.
func Build(ctx context.Context, b *build.Builder, v cty.Value) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("ctybridge building value", "path", b.Path(), "type", v.Type().FriendlyName())
	return buildCurrent(b, v)
}

func buildCurrent(b *build.Builder, v cty.Value) error {
	s := b.Shape()
	if s == nil {
		return fmt.Errorf("ctybridge: builder has no open frame")
	}

	if v.IsNull() {
		if s.Kind == shape.Option {
			// Empty option: nothing to do, the frame finalizes as empty.
			return nil
		}
		return fmt.Errorf("ctybridge: null value for non-optional %s at %s", s, b.Path())
	}
	if !v.IsKnown() {
		return fmt.Errorf("ctybridge: unknown value at %s", b.Path())
	}

	switch s.Kind {
	case shape.Scalar:
		ptr := reflect.New(s.Type)
		if err := gocty.FromCtyValue(v, ptr.Interface()); err != nil {
			return fmt.Errorf("ctybridge: %s: %w", b.Path(), err)
		}
		return b.WriteScalar(ptr.Elem().Interface())

	case shape.Struct:
		if !v.Type().IsObjectType() && !v.Type().IsMapType() {
			return fmt.Errorf("ctybridge: %s is not an object at %s", v.Type().FriendlyName(), b.Path())
		}
		byMap := v.Type().IsMapType()
		for i := range s.Fields {
			f := &s.Fields[i]
			var fv cty.Value
			if byMap {
				kv := cty.StringVal(f.Name)
				if !v.HasIndex(kv).True() {
					return fmt.Errorf("ctybridge: missing element %q at %s", f.Name, b.Path())
				}
				fv = v.Index(kv)
			} else {
				if !v.Type().HasAttribute(f.Name) {
					return fmt.Errorf("ctybridge: missing attribute %q at %s", f.Name, b.Path())
				}
				fv = v.GetAttr(f.Name)
			}
			if err := b.Descend(build.Field(f.Name)); err != nil {
				return err
			}
			if err := buildCurrent(b, fv); err != nil {
				return err
			}
			if err := b.Ascend(); err != nil {
				return err
			}
		}
		return nil

	case shape.Tuple:
		if !v.Type().IsTupleType() {
			return fmt.Errorf("ctybridge: %s is not a tuple at %s", v.Type().FriendlyName(), b.Path())
		}
		idx := 0
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			if err := b.Descend(build.Index(idx)); err != nil {
				return err
			}
			if err := buildCurrent(b, ev); err != nil {
				return err
			}
			if err := b.Ascend(); err != nil {
				return err
			}
			idx++
		}
		return nil

	case shape.Array:
		if v.LengthInt() != s.Len {
			return fmt.Errorf("ctybridge: %d elements for [%d] array at %s", v.LengthInt(), s.Len, b.Path())
		}
		idx := 0
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			if err := b.Descend(build.Index(idx)); err != nil {
				return err
			}
			if err := buildCurrent(b, ev); err != nil {
				return err
			}
			if err := b.Ascend(); err != nil {
				return err
			}
			idx++
		}
		return nil

	case shape.List:
		if err := b.BeginList(); err != nil {
			return err
		}
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			if err := b.AppendItem(); err != nil {
				return err
			}
			if err := buildCurrent(b, ev); err != nil {
				return err
			}
			if err := b.Ascend(); err != nil {
				return err
			}
		}
		return nil

	case shape.Map:
		if err := b.BeginMap(); err != nil {
			return err
		}
		it := v.ElementIterator()
		for it.Next() {
			kv, ev := it.Element()
			if err := b.BeginEntry(); err != nil {
				return err
			}
			if err := b.BeginKey(); err != nil {
				return err
			}
			if err := buildCurrent(b, kv); err != nil {
				return err
			}
			if err := b.Ascend(); err != nil {
				return err
			}
			if err := b.BeginValue(); err != nil {
				return err
			}
			if err := buildCurrent(b, ev); err != nil {
				return err
			}
			if err := b.Ascend(); err != nil {
				return err
			}
		}
		return nil

	case shape.Option, shape.Pointer:
		if err := b.Descend(build.Inner()); err != nil {
			return err
		}
		if err := buildCurrent(b, v); err != nil {
			return err
		}
		return b.Ascend()
	}

	return fmt.Errorf("ctybridge: cannot build %s shapes from cty at %s", s.Kind, b.Path())
}
