// Package inmemory evaluates dsl requests against documents held in
// memory: it applies update actions, matches queries and diffs the
// before and after states of an update.
//
// The semantics follow the document store's own operators closely enough
// that an update applied here and replaced under an optimistic lock is
// indistinguishable from the native update.
package inmemory

import (
	"fmt"
	"slices"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/value"
)

// Apply runs actions against a copy of doc, in order. It returns the
// updated document and the fields touched, each listed once in first-touch
// order. doc is never modified.
func Apply(doc value.Object, actions []dsl.Action) (value.Object, []string, error) {
	out := value.CloneObject(doc)
	if out == nil {
		out = value.Object{}
	}
	var fields []string
	touch := func(f string) {
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}

	for i, a := range actions {
		var err error
		switch n := dsl.DerefAction(a).(type) {
		case dsl.Set:
			for _, m := range n.Fields {
				if out, err = set(out, m.Key, value.Clone(m.Value)); err != nil {
					break
				}
				touch(m.Key)
			}
		case dsl.Unset:
			for _, f := range n.Fields {
				out, _ = unset(out, f)
				touch(f)
			}
		case dsl.Numeric:
			out, err = applyNumeric(out, n)
			touch(n.Field)
		case dsl.ListAction:
			out, err = applyList(out, n)
			touch(n.Field)
		case dsl.Pop:
			out, err = applyPop(out, n)
			touch(n.Field)
		case dsl.Rename:
			out, err = applyRename(out, n)
			touch(n.Field)
			touch(n.NewName)
		default:
			err = &dsl.Error{Kind: dsl.ErrInvalidAction, Message: fmt.Sprintf("unknown action type %T", a)}
		}
		if err != nil {
			return nil, nil, fmt.Errorf("action %d: %w", i, err)
		}
	}
	return out, fields, nil
}

func applyNumeric(doc value.Object, n dsl.Numeric) (value.Object, error) {
	token := string(n.Operator)
	if !value.IsNumber(n.Value) {
		return nil, dsl.NewError(dsl.ErrInvalidAction, token, n.Field, "argument must be a number, got %s", value.TypeName(n.Value))
	}
	cur, ok := get(doc, n.Field)
	if !ok || !value.IsNumber(cur) {
		return nil, dsl.NewError(dsl.ErrInvalidAction, token, n.Field, "target must be a number, got %s", value.TypeName(cur))
	}

	var next value.Value
	switch n.Operator {
	case dsl.ActInc:
		next = add(cur, n.Value)
	case dsl.ActMin:
		next = cur
		if c, _ := value.Compare(n.Value, cur); c < 0 {
			next = n.Value
		}
	case dsl.ActMax:
		next = cur
		if c, _ := value.Compare(n.Value, cur); c > 0 {
			next = n.Value
		}
	default:
		return nil, dsl.NewError(dsl.ErrInvalidAction, token, n.Field, "not a numeric action")
	}
	return set(doc, n.Field, next)
}

// add keeps integer arithmetic exact when both sides are integers.
func add(a, b value.Value) value.Value {
	ai, aok := a.(value.Int)
	bi, bok := b.(value.Int)
	if aok && bok {
		return ai + bi
	}
	af, _ := value.ToFloat(a)
	bf, _ := value.ToFloat(b)
	return value.Float(af + bf)
}

// targetArray returns the array at field. Missing or null targets start
// empty.
func targetArray(doc value.Object, token, field string) (value.Array, error) {
	cur, ok := get(doc, field)
	if !ok {
		return value.Array{}, nil
	}
	switch c := cur.(type) {
	case value.Null:
		return value.Array{}, nil
	case value.Array:
		return slices.Clone(c), nil
	default:
		return nil, dsl.NewError(dsl.ErrInvalidAction, token, field, "target must be an array, got %s", value.TypeName(cur))
	}
}

func applyList(doc value.Object, l dsl.ListAction) (value.Object, error) {
	token := string(l.Operator)
	arr, err := targetArray(doc, token, l.Field)
	if err != nil {
		return nil, err
	}
	switch l.Operator {
	case dsl.ActPush:
		for _, v := range l.Values {
			arr = append(arr, value.Clone(v))
		}
	case dsl.ActAdd:
		for _, v := range l.Values {
			if !value.Contains(arr, v) {
				arr = append(arr, value.Clone(v))
			}
		}
	case dsl.ActPull:
		arr = slices.DeleteFunc(arr, func(elem value.Value) bool {
			return value.Contains(l.Values, elem)
		})
	default:
		return nil, dsl.NewError(dsl.ErrInvalidAction, token, l.Field, "not a list action")
	}
	return set(doc, l.Field, arr)
}

func applyPop(doc value.Object, p dsl.Pop) (value.Object, error) {
	token := string(dsl.ActPop)
	arr, err := targetArray(doc, token, p.Field)
	if err != nil {
		return nil, err
	}
	n := p.Direction
	if n == 0 {
		return doc, nil
	}
	count := n
	if count < 0 {
		count = -count
	}
	if count > int64(len(arr)) {
		return nil, dsl.NewError(dsl.ErrInvalidAction, token, p.Field, "cannot pop %d elements from an array of %d", count, len(arr))
	}
	if p.First() {
		arr = arr[count:]
	} else {
		arr = arr[:int64(len(arr))-count]
	}
	return set(doc, p.Field, arr)
}

func applyRename(doc value.Object, r dsl.Rename) (value.Object, error) {
	v, ok := get(doc, r.Field)
	if !ok {
		return nil, dsl.NewError(dsl.ErrInvalidAction, string(dsl.ActRename), r.Field, "source field is missing")
	}
	doc, _ = unset(doc, r.Field)
	return set(doc, r.NewName, v)
}
