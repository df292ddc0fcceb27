package inmemory

import (
	"strconv"
	"strings"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/value"
)

func split(path string) []string {
	return strings.Split(path, ".")
}

// get resolves a dotted path through nested objects. A numeric segment
// indexes into an array.
func get(doc value.Object, path string) (value.Value, bool) {
	var cur value.Value = doc
	for _, seg := range split(path) {
		switch c := cur.(type) {
		case value.Object:
			v, ok := c.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case value.Array:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// set binds path to v, creating intermediate objects. Traversing through
// a scalar or array is an INVALID_ACTION.
func set(doc value.Object, path string, v value.Value) (value.Object, error) {
	return setSegs(doc, split(path), path, v)
}

func setSegs(obj value.Object, segs []string, path string, v value.Value) (value.Object, error) {
	if len(segs) == 1 {
		return obj.Set(segs[0], v), nil
	}
	child, _ := obj.Get(segs[0])
	var sub value.Object
	switch c := child.(type) {
	case nil, value.Null:
		sub = value.Object{}
	case value.Object:
		sub = c
	default:
		return nil, dsl.NewError(dsl.ErrInvalidAction, "", path, "cannot traverse %s at %q", value.TypeName(child), segs[0])
	}
	sub, err := setSegs(sub, segs[1:], path, v)
	if err != nil {
		return nil, err
	}
	return obj.Set(segs[0], sub), nil
}

// unset removes path. Missing paths are ignored.
func unset(doc value.Object, path string) (value.Object, bool) {
	return unsetSegs(doc, split(path))
}

func unsetSegs(obj value.Object, segs []string) (value.Object, bool) {
	if _, ok := obj.Get(segs[0]); !ok {
		return obj, false
	}
	if len(segs) == 1 {
		return obj.Delete(segs[0]), true
	}
	child, _ := obj.Get(segs[0])
	sub, ok := child.(value.Object)
	if !ok {
		return obj, false
	}
	sub, removed := unsetSegs(sub, segs[1:])
	return obj.Set(segs[0], sub), removed
}
