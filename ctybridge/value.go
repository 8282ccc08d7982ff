package ctybridge

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/shapecraft/shape"
)

// ToValue renders a finished Go value of the given shape as a cty value,
// the read-side counterpart of Build. Containers are walked through the
// shape's Iterate operation.
func ToValue(val any, s *shape.Shape) (cty.Value, error) {
	return toValue(reflect.ValueOf(val), s)
}

func toValue(rv reflect.Value, s *shape.Shape) (cty.Value, error) {
	switch s.Kind {
	case shape.Scalar:
		ty, err := ctyTypeOf(s)
		if err != nil {
			return cty.NilVal, err
		}
		return gocty.ToCtyValue(rv.Interface(), ty)

	case shape.Struct:
		attrs := make(map[string]cty.Value, len(s.Fields))
		for i := range s.Fields {
			f := &s.Fields[i]
			av, err := toValue(rv.Field(f.Index), f.Shape)
			if err != nil {
				return cty.NilVal, fmt.Errorf("field %q: %w", f.Name, err)
			}
			attrs[f.Name] = av
		}
		return cty.ObjectVal(attrs), nil

	case shape.Tuple:
		elems := make([]cty.Value, len(s.Fields))
		for i := range s.Fields {
			ev, err := toValue(rv.Field(s.Fields[i].Index), s.Fields[i].Shape)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil

	case shape.List, shape.Array:
		var elems []cty.Value
		var walkErr error
		s.Ops.Iterate(rv, func(_, e reflect.Value) bool {
			ev, err := toValue(e, s.Elem)
			if err != nil {
				walkErr = err
				return false
			}
			elems = append(elems, ev)
			return true
		})
		if walkErr != nil {
			return cty.NilVal, walkErr
		}
		if len(elems) == 0 {
			ety, err := ctyTypeOf(s.Elem)
			if err != nil {
				return cty.NilVal, err
			}
			return cty.ListValEmpty(ety), nil
		}
		return cty.ListVal(elems), nil

	case shape.Map:
		entries := make(map[string]cty.Value)
		var walkErr error
		s.Ops.Iterate(rv, func(k, e reflect.Value) bool {
			ev, err := toValue(e, s.Elem)
			if err != nil {
				walkErr = err
				return false
			}
			entries[mapKeyString(k, s.Key)] = ev
			return true
		})
		if walkErr != nil {
			return cty.NilVal, walkErr
		}
		if len(entries) == 0 {
			ety, err := ctyTypeOf(s.Elem)
			if err != nil {
				return cty.NilVal, err
			}
			return cty.MapValEmpty(ety), nil
		}
		return cty.MapVal(entries), nil

	case shape.Option:
		if rv.IsNil() {
			ety, err := ctyTypeOf(s.Elem)
			if err != nil {
				return cty.NilVal, err
			}
			return cty.NullVal(ety), nil
		}
		return toValue(rv.Elem(), s.Elem)

	case shape.Pointer:
		if rv.IsNil() {
			return cty.NilVal, fmt.Errorf("ctybridge: nil %s is not a finished value", s.Type)
		}
		return toValue(rv.Elem(), s.Elem)
	}

	return cty.NilVal, fmt.Errorf("ctybridge: cannot render %s shapes as cty", s.Kind)
}

// mapKeyString renders a map key through the key shape's Display operation,
// falling back to fmt for keys without one.
func mapKeyString(k reflect.Value, keyShape *shape.Shape) string {
	if keyShape.Ops.Display != nil {
		return keyShape.Ops.Display(k)
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return strconv.Quote(fmt.Sprint(k.Interface()))
}
