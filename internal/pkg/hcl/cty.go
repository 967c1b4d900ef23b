package hcl

import (
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Coerce converts a Go value decoded from JSON into the HCL type named by
// typeName, returning the converted Go value. An empty typeName accepts any
// value unchanged.
func Coerce(typeName string, v any) (any, error) {

	if typeName == "" || v == nil {
		return v, nil
	}

	ty, err := ParseType(typeName)
	if err != nil {
		return nil, err
	}

	val, err := GoToCty(v)
	if err != nil {
		return nil, err
	}

	converted, err := convert.Convert(val, ty)
	if err != nil {
		return nil, fmt.Errorf("cannot use value as %s: %w", typeName, err)
	}

	return CtyToGo(converted)
}

func goValueToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return GoToCty(v)
	}

	val, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return cty.NilVal, err
	}

	return val, nil
}

func GoToCty(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}

	switch val := v.(type) {
	case string:
		return cty.StringVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case bool:
		return cty.BoolVal(val), nil
	case []any:
		vals := make([]cty.Value, len(val))
		for i, item := range val {
			itemVal, err := goValueToCtyValue(item)
			if err != nil {
				return cty.NilVal, err
			}
			vals[i] = itemVal
		}
		if len(vals) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		vals := make(map[string]cty.Value)
		for k, item := range val {
			itemVal, err := goValueToCtyValue(item)
			if err != nil {
				return cty.NilVal, err
			}
			vals[k] = itemVal
		}
		if len(vals) == 0 {
			return cty.EmptyObjectVal, nil
		}
		return cty.ObjectVal(vals), nil
	case ulid.ULID:
		return cty.StringVal(val.String()), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported type: %T", v)
	}
}

// CtyToGo converts a cty.Value to a native Go value.
func CtyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is unknown")
	}

	ty := val.Type()

	switch {
	case ty.Equals(cty.String):
		return val.AsString(), nil
	case ty.Equals(cty.Number):
		bf := val.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.Equals(cty.Bool):
		return val.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		result := []any{}
		it := val.ElementIterator()
		for it.Next() {
			_, elemVal := it.Element()
			elem, err := CtyToGo(elemVal)
			if err != nil {
				return nil, err
			}
			result = append(result, elem)
		}
		return result, nil
	case ty.IsMapType() || ty.IsObjectType():
		result := make(map[string]any)
		it := val.ElementIterator()
		for it.Next() {
			key, elemVal := it.Element()
			elem, err := CtyToGo(elemVal)
			if err != nil {
				return nil, err
			}
			result[key.AsString()] = elem
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported cty type: %s", ty.FriendlyName())
	}
}
