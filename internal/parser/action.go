package parser

import (
	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/validate"
	"github.com/roach88/archdsl/internal/value"
)

// ParseActions reads the $action argument: an array of action nodes.
func ParseActions(arg value.Value) ([]dsl.Action, error) {
	arr, ok := arg.(value.Array)
	if !ok {
		return nil, dsl.Malformed(dsl.KeyAction, "", "expected an array of actions, got %s", value.TypeName(arg))
	}
	actions := make([]dsl.Action, len(arr))
	for i, node := range arr {
		a, err := ParseAction(node)
		if err != nil {
			return nil, wrapIndex("action", i, err)
		}
		actions[i] = a
	}
	return actions, nil
}

// ParseAction reads one action node, an object holding a single action
// token.
func ParseAction(node value.Value) (dsl.Action, error) {
	obj, ok := node.(value.Object)
	if !ok {
		return nil, dsl.Malformed(dsl.KeyAction, "", "action must be an object, got %s", value.TypeName(node))
	}
	if len(obj) != 1 {
		return nil, dsl.Malformed(dsl.KeyAction, "", "action must hold exactly one operator, got %d", len(obj))
	}
	token, arg := obj[0].Key, obj[0].Value
	op, ok := dsl.LookupActionOp(token)
	if !ok {
		return nil, dsl.NewError(dsl.ErrInvalidRequest, token, "", "unknown action operator")
	}

	switch op {
	case dsl.ActSet:
		fields, err := validate.Pairs(token, arg)
		if err != nil {
			return nil, err
		}
		return dsl.Set{Fields: fields}, nil
	case dsl.ActUnset:
		fields, err := parseIDs(token, arg, true)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return nil, dsl.Malformed(token, "", "expected at least one field")
		}
		return dsl.Unset{Fields: fields}, nil
	}

	pair, err := validate.SinglePair(token, arg)
	if err != nil {
		return nil, err
	}
	switch op {
	case dsl.ActInc, dsl.ActMin, dsl.ActMax:
		if !value.IsNumber(pair.Value) {
			return nil, dsl.Malformed(token, pair.Key, "expected a number, got %s", value.TypeName(pair.Value))
		}
		return dsl.Numeric{Operator: op, Field: pair.Key, Value: pair.Value}, nil
	case dsl.ActPush, dsl.ActPull, dsl.ActAdd:
		vals, err := eachValues(token, pair)
		if err != nil {
			return nil, err
		}
		return dsl.ListAction{Operator: op, Field: pair.Key, Values: vals}, nil
	case dsl.ActPop:
		n, err := validate.Integer(token, pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		return dsl.Pop{Field: pair.Key, Direction: n}, nil
	default:
		name, ok := pair.Value.(value.String)
		if !ok || name == "" {
			return nil, dsl.Malformed(token, pair.Key, "expected a new field name, got %s", value.TypeName(pair.Value))
		}
		return dsl.Rename{Field: pair.Key, NewName: string(name)}, nil
	}
}

// eachValues accepts either a bare array or {"$each": [...]}.
func eachValues(token string, pair value.Member) (value.Array, error) {
	switch v := pair.Value.(type) {
	case value.Array:
		return v, nil
	case value.Object:
		if len(v) == 1 && v[0].Key == dsl.KeyEach {
			if arr, ok := v[0].Value.(value.Array); ok {
				return arr, nil
			}
		}
	}
	return nil, dsl.Malformed(token, pair.Key, "expected an array or {%q: [...]}", dsl.KeyEach)
}
