package querymongo

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/archdsl/internal/value"
)

// ToNative converts a canonical value into the driver's representation.
// Objects become bson.D so member order survives into the native document.
func ToNative(v value.Value) any {
	switch val := v.(type) {
	case nil, value.Null:
		return nil
	case value.Bool:
		return bool(val)
	case value.Int:
		return int64(val)
	case value.Float:
		return float64(val)
	case value.String:
		return string(val)
	case value.Date:
		return bson.NewDateTimeFromTime(val.Time)
	case value.Array:
		arr := make(bson.A, len(val))
		for i, elem := range val {
			arr[i] = ToNative(elem)
		}
		return arr
	case value.Object:
		return ToDocument(val)
	default:
		return nil
	}
}

// ToDocument converts a canonical document into bson.D.
func ToDocument(o value.Object) bson.D {
	doc := make(bson.D, len(o))
	for i, m := range o {
		doc[i] = bson.E{Key: m.Key, Value: ToNative(m.Value)}
	}
	return doc
}

func nativeList(vs []value.Value) bson.A {
	arr := make(bson.A, len(vs))
	for i, v := range vs {
		arr[i] = ToNative(v)
	}
	return arr
}

// FromNative converts a decoded driver value back into a canonical value.
// Object identifiers become their hex string.
func FromNative(v any) (value.Value, error) {
	switch val := v.(type) {
	case nil:
		return value.Null{}, nil
	case bool:
		return value.Bool(val), nil
	case int32:
		return value.Int(val), nil
	case int64:
		return value.Int(val), nil
	case int:
		return value.Int(val), nil
	case float64:
		return value.Float(val), nil
	case string:
		return value.String(val), nil
	case bson.DateTime:
		return value.Date{Time: val.Time().UTC()}, nil
	case time.Time:
		return value.Date{Time: val.UTC()}, nil
	case bson.ObjectID:
		return value.String(val.Hex()), nil
	case bson.A:
		return fromList([]any(val))
	case []any:
		return fromList(val)
	case bson.D:
		return FromDocument(val)
	case bson.M:
		obj := make(value.Object, 0, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			ev, err := FromNative(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj = append(obj, value.Member{Key: k, Value: ev})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported native type %T", v)
	}
}

func fromList(list []any) (value.Value, error) {
	arr := make(value.Array, len(list))
	for i, elem := range list {
		ev, err := FromNative(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		arr[i] = ev
	}
	return arr, nil
}

// FromDocument converts a driver document into a canonical document.
func FromDocument(doc bson.D) (value.Object, error) {
	obj := make(value.Object, 0, len(doc))
	for _, e := range doc {
		ev, err := FromNative(e.Value)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", e.Key, err)
		}
		obj = append(obj, value.Member{Key: e.Key, Value: ev})
	}
	return obj, nil
}
