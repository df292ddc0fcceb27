package value

import "strings"

// Equal reports whether a and b are the same value. Numbers compare by
// magnitude, so Int(1) equals Float(1). Objects compare member by member
// in order, the way the document store compares embedded documents.
func Equal(a, b Value) bool {
	if af, ok := ToFloat(a); ok {
		bf, ok := ToFloat(b)
		return ok && af == bf
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Date:
		bv, ok := b.(Date)
		return ok && av.Time.Equal(bv.Time)
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i].Key != bv[i].Key || !Equal(av[i].Value, bv[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two scalars of a comparable kind (numbers, strings,
// dates, booleans). ok is false when the kinds cannot be ordered against
// each other.
func Compare(a, b Value) (cmp int, ok bool) {
	if af, aok := ToFloat(a); aok {
		bf, bok := ToFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	switch av := a.(type) {
	case String:
		bv, bok := b.(String)
		if !bok {
			return 0, false
		}
		return strings.Compare(string(av), string(bv)), true
	case Date:
		bv, bok := b.(Date)
		if !bok {
			return 0, false
		}
		return av.Time.Compare(bv.Time), true
	case Bool:
		bv, bok := b.(Bool)
		if !bok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !bool(av):
			return -1, true
		default:
			return 1, true
		}
	default:
		return 0, false
	}
}

// Contains reports whether arr holds an element equal to v.
func Contains(arr Array, v Value) bool {
	for _, elem := range arr {
		if Equal(elem, v) {
			return true
		}
	}
	return false
}
