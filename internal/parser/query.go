package parser

import (
	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/validate"
	"github.com/roach88/archdsl/internal/value"
)

// ParseSteps reads the $query argument: an array of query nodes, or a
// single node for one-step requests.
func ParseSteps(arg value.Value) ([]dsl.Step, error) {
	var nodes value.Array
	switch a := arg.(type) {
	case value.Array:
		nodes = a
	case value.Object:
		nodes = value.Array{a}
	default:
		return nil, dsl.Malformed(dsl.KeyQuery, "", "expected an array of query nodes, got %s", value.TypeName(arg))
	}

	steps := make([]dsl.Step, 0, len(nodes))
	for i, node := range nodes {
		step, err := ParseStep(node)
		if err != nil {
			return nil, wrapIndex("query", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// ParseStep reads one top-level query node together with its optional
// $exactdepth or $depth argument.
func ParseStep(node value.Value) (dsl.Step, error) {
	obj, ok := node.(value.Object)
	if !ok {
		return dsl.Step{}, dsl.Malformed(dsl.KeyQuery, "", "query node must be an object, got %s", value.TypeName(node))
	}

	step := dsl.Step{Mode: dsl.DepthDefault}
	var operator value.Object
	for _, m := range obj {
		switch m.Key {
		case dsl.KeyExactDepth, dsl.KeyDepth:
			if step.Mode != dsl.DepthDefault {
				return dsl.Step{}, dsl.Malformed(m.Key, "", "only one of %s and %s may be given", dsl.KeyExactDepth, dsl.KeyDepth)
			}
			n, err := validate.Integer(m.Key, "", m.Value)
			if err != nil {
				return dsl.Step{}, err
			}
			step.Depth = int(n)
			step.Mode = dsl.DepthRelative
			if m.Key == dsl.KeyExactDepth {
				step.Mode = dsl.DepthExact
			}
		default:
			operator = append(operator, m)
		}
	}

	q, err := parseOperator(operator)
	if err != nil {
		return dsl.Step{}, err
	}
	step.Query = q
	return step, nil
}

// ParseQuery reads a nested query node. Depth arguments are only legal
// on top-level steps.
func ParseQuery(node value.Value) (dsl.Query, error) {
	obj, ok := node.(value.Object)
	if !ok {
		return nil, dsl.Malformed(dsl.KeyQuery, "", "query node must be an object, got %s", value.TypeName(node))
	}
	for _, m := range obj {
		if m.Key == dsl.KeyExactDepth || m.Key == dsl.KeyDepth {
			return nil, dsl.Malformed(m.Key, "", "depth arguments are only allowed on top-level queries")
		}
	}
	return parseOperator(obj)
}

func parseOperator(obj value.Object) (dsl.Query, error) {
	if len(obj) != 1 {
		return nil, dsl.Malformed(dsl.KeyQuery, "", "query node must hold exactly one operator, got %d", len(obj))
	}
	token, arg := obj[0].Key, obj[0].Value
	op, ok := dsl.LookupOp(token)
	if !ok {
		return nil, dsl.NewError(dsl.ErrInvalidRequest, token, "", "unknown query operator")
	}

	switch {
	case op == dsl.OpAnd || op == dsl.OpOr || op == dsl.OpNot:
		return parseComposite(op, arg)
	case op == dsl.OpExists || op == dsl.OpMissing || op == dsl.OpIsNull:
		field, err := validate.FieldName(token, arg)
		if err != nil {
			return nil, err
		}
		if op == dsl.OpIsNull {
			return dsl.NullTest{Field: field}, nil
		}
		return dsl.Existence{Field: field, Present: op == dsl.OpExists}, nil
	case op.IsComparison():
		pair, err := validate.SinglePair(token, arg)
		if err != nil {
			return nil, err
		}
		v, err := validate.Scalar(token, pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		return dsl.Compare{Operator: op, Field: pair.Key, Value: v}, nil
	case op == dsl.OpIn || op == dsl.OpNin:
		pair, err := validate.SinglePair(token, arg)
		if err != nil {
			return nil, err
		}
		vals, err := validate.Scalars(token, pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		return dsl.Membership{Operator: op, Field: pair.Key, Values: vals}, nil
	case op == dsl.OpRange:
		return parseRange(arg)
	case op == dsl.OpRegex || op == dsl.OpWildcard:
		pair, err := validate.SinglePair(token, arg)
		if err != nil {
			return nil, err
		}
		pattern, ok := pair.Value.(value.String)
		if !ok || pattern == "" {
			return nil, dsl.Malformed(token, pair.Key, "expected a non-empty pattern string, got %s", value.TypeName(pair.Value))
		}
		if op == dsl.OpRegex {
			return dsl.Regex{Field: pair.Key, Pattern: string(pattern)}, nil
		}
		return dsl.Wildcard{Field: pair.Key, Pattern: string(pattern)}, nil
	case op == dsl.OpTerm:
		obj, err := validate.Pairs(token, arg)
		if err != nil {
			return nil, err
		}
		term := dsl.Term{Pairs: make([]dsl.Pair, len(obj))}
		for i, m := range obj {
			v, err := validate.Scalar(token, m.Key, m.Value)
			if err != nil {
				return nil, err
			}
			term.Pairs[i] = dsl.Pair{Field: m.Key, Value: v}
		}
		return term, nil
	case op == dsl.OpSize:
		pair, err := validate.SinglePair(token, arg)
		if err != nil {
			return nil, err
		}
		n, err := validate.Integer(token, pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, dsl.Malformed(token, pair.Key, "size must be >= 0, got %d", n)
		}
		return dsl.Size{Field: pair.Key, Length: n}, nil
	case op == dsl.OpPath:
		ids, err := parseIDs(token, arg, false)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, dsl.Malformed(token, "", "expected at least one identifier")
		}
		return dsl.Path{IDs: ids}, nil
	default:
		return dsl.Unsupported{Operator: op, Arg: arg}, nil
	}
}

func parseComposite(op dsl.Op, arg value.Value) (dsl.Query, error) {
	arr, ok := arg.(value.Array)
	if !ok {
		return nil, dsl.Malformed(string(op), "", "expected an array of query nodes, got %s", value.TypeName(arg))
	}
	if len(arr) == 0 {
		return nil, dsl.Malformed(string(op), "", "expected at least one query node")
	}
	children := make([]dsl.Query, len(arr))
	for i, node := range arr {
		child, err := ParseQuery(node)
		if err != nil {
			return nil, wrapIndex(string(op), i, err)
		}
		children[i] = child
	}
	switch op {
	case dsl.OpAnd:
		return dsl.And{Children: children}, nil
	case dsl.OpOr:
		return dsl.Or{Children: children}, nil
	default:
		return dsl.Not{Children: children}, nil
	}
}

// parseRange keeps every bound key as written; the translator rejects
// keys other than the four recognized bounds.
func parseRange(arg value.Value) (dsl.Query, error) {
	token := string(dsl.OpRange)
	pair, err := validate.SinglePair(token, arg)
	if err != nil {
		return nil, err
	}
	bounds, ok := pair.Value.(value.Object)
	if !ok || len(bounds) == 0 {
		return nil, dsl.Malformed(token, pair.Key, "expected an object of range bounds")
	}
	r := dsl.Range{Field: pair.Key, Bounds: make([]dsl.Bound, len(bounds))}
	for i, b := range bounds {
		v, err := validate.Scalar(b.Key, pair.Key, b.Value)
		if err != nil {
			return nil, err
		}
		r.Bounds[i] = dsl.Bound{Key: b.Key, Value: v}
	}
	return r, nil
}
