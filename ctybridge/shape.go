package ctybridge

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/shapecraft/shape"
)

// Scalar targets for cty primitives. Numbers land on float64, the widest
// generic representation; narrower targets still work when the caller
// supplies their own shape.
var (
	stringType  = reflect.TypeOf("")
	boolType    = reflect.TypeOf(false)
	float64Type = reflect.TypeOf(float64(0))
)

// ImpliedShape derives a shape descriptor for values of the given cty type:
// objects become structs, tuples become tuples, lists and sets become lists,
// maps become maps, and primitives become scalars.
func ImpliedShape(ty cty.Type) (*shape.Shape, error) {
	switch {
	case ty == cty.String:
		return shape.Of(stringType)
	case ty == cty.Bool:
		return shape.Of(boolType)
	case ty == cty.Number:
		return shape.Of(float64Type)

	case ty.IsListType() || ty.IsSetType():
		elem, err := ImpliedShape(ty.ElementType())
		if err != nil {
			return nil, err
		}
		return shape.ListOf(elem), nil

	case ty.IsMapType():
		elem, err := ImpliedShape(ty.ElementType())
		if err != nil {
			return nil, err
		}
		key, err := shape.Of(stringType)
		if err != nil {
			return nil, err
		}
		return shape.MapOf(key, elem)

	case ty.IsObjectType():
		attrs := ty.AttributeTypes()
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]shape.Field, 0, len(names))
		for _, name := range names {
			fs, err := ImpliedShape(attrs[name])
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", name, err)
			}
			if ty.AttributeOptional(name) {
				fs = shape.OptionOf(fs)
			}
			fields = append(fields, shape.Field{Name: name, Shape: fs})
		}
		return shape.StructOf(fields...)

	case ty.IsTupleType():
		elems := make([]*shape.Shape, 0, ty.Length())
		for i, et := range ty.TupleElementTypes() {
			es, err := ImpliedShape(et)
			if err != nil {
				return nil, fmt.Errorf("tuple element %d: %w", i, err)
			}
			elems = append(elems, es)
		}
		return shape.TupleOf(elems...)
	}

	return nil, fmt.Errorf("ctybridge: no shape for cty type %s", ty.FriendlyName())
}

// ctyTypeOf maps a shape back onto a cty type, the inverse of ImpliedShape.
func ctyTypeOf(s *shape.Shape) (cty.Type, error) {
	switch s.Kind {
	case shape.Scalar:
		switch s.Type.Kind() {
		case reflect.String:
			return cty.String, nil
		case reflect.Bool:
			return cty.Bool, nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return cty.Number, nil
		}
		return cty.NilType, fmt.Errorf("ctybridge: scalar %s has no cty counterpart", s.Type)

	case shape.Struct:
		attrs := make(map[string]cty.Type, len(s.Fields))
		for i := range s.Fields {
			f := &s.Fields[i]
			at, err := ctyTypeOf(f.Shape)
			if err != nil {
				return cty.NilType, fmt.Errorf("field %q: %w", f.Name, err)
			}
			attrs[f.Name] = at
		}
		return cty.Object(attrs), nil

	case shape.Tuple:
		elems := make([]cty.Type, len(s.Fields))
		for i := range s.Fields {
			et, err := ctyTypeOf(s.Fields[i].Shape)
			if err != nil {
				return cty.NilType, err
			}
			elems[i] = et
		}
		return cty.Tuple(elems), nil

	case shape.List, shape.Array:
		et, err := ctyTypeOf(s.Elem)
		if err != nil {
			return cty.NilType, err
		}
		return cty.List(et), nil

	case shape.Map:
		if s.Key.Kind != shape.Scalar || s.Key.Type.Kind() != reflect.String {
			return cty.NilType, fmt.Errorf("ctybridge: map key %s is not a string scalar", s.Key)
		}
		et, err := ctyTypeOf(s.Elem)
		if err != nil {
			return cty.NilType, err
		}
		return cty.Map(et), nil

	case shape.Option, shape.Pointer:
		return ctyTypeOf(s.Elem)
	}

	return cty.NilType, fmt.Errorf("ctybridge: no cty type for %s shapes", s.Kind)
}
