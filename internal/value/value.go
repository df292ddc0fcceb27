package value

import (
	"fmt"
	"time"
)

// Value is a sealed interface over the canonical values handed to the
// translator. Wire JSON is coerced into these types once, at the parser or
// builder boundary, so nothing downstream inspects raw wire types.
//
// Scalars: Null, Bool, Int, Float, String, Date.
// Documents: Array, Object (key order preserved).
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents JSON null.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean.
type Bool bool

func (Bool) value() {}

// Int represents an integer. Wire numbers without a fraction or exponent
// that fit in int64 decode as Int.
type Int int64

func (Int) value() {}

// Float represents any other wire number.
type Float float64

func (Float) value() {}

// String represents a string.
type String string

func (String) value() {}

// Date represents an instant, written on the wire as {"$date": "<RFC3339>"}.
type Date struct {
	Time time.Time
}

func (Date) value() {}

// Array is an ordered list of values.
type Array []Value

func (Array) value() {}

// Member is one key/value entry of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is an ordered list of members. Unlike a map it keeps wire order,
// which matters for sort keys, range bounds and projections.
type Object []Member

func (Object) value() {}

// M is shorthand for building an Object member.
// Example: Object{M("Title", String("x")), M("Count", Int(2))}
func M(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Set returns o with key bound to v. An existing key keeps its position.
func (o Object) Set(key string, v Value) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = v
			return o
		}
	}
	return append(o, Member{Key: key, Value: v})
}

// Delete returns o without key. Missing keys are ignored.
func (o Object) Delete(key string) Object {
	for i := range o {
		if o[i].Key == key {
			return append(o[:i:i], o[i+1:]...)
		}
	}
	return o
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// IsScalar reports whether v is a leaf value usable in a query comparison.
func IsScalar(v Value) bool {
	switch v.(type) {
	case Null, Bool, Int, Float, String, Date:
		return true
	default:
		return false
	}
}

// IsNumber reports whether v is an Int or a Float.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	default:
		return false
	}
}

// ToFloat converts a numeric value to float64.
func ToFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// TypeName returns a short name for v, used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "missing"
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Date:
		return "date"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Of converts a Go native value into a Value. It accepts the types produced
// by encoding/json and yaml.v3 decoders as well as the Value types themselves.
func Of(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		return Int(int64(val)), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case time.Time:
		return Date{Time: val}, nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			ev, err := Of(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case []string:
		arr := make(Array, len(val))
		for i, s := range val {
			arr[i] = String(s)
		}
		return arr, nil
	case map[string]any:
		// Go maps carry no order; keys are sorted so the result is stable.
		keys := sortedKeys(val)
		obj := make(Object, 0, len(val))
		for _, k := range keys {
			ev, err := Of(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj = append(obj, Member{Key: k, Value: ev})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MustOf is Of for literals known to be valid. It panics on error.
func MustOf(v any) Value {
	val, err := Of(v)
	if err != nil {
		panic(err)
	}
	return val
}
