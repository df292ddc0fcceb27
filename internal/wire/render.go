// Package wire renders requests back into their JSON envelope.
//
// Builders emit this form, and the validator measures it against the size
// ceiling.
package wire

import (
	"fmt"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/value"
)

// Render converts a request into its wire envelope. Empty parts render as
// empty arrays or objects, never null, so parsers need not special-case
// absence.
func Render(r dsl.Request) (value.Object, error) {
	if r == nil {
		return nil, &dsl.Error{Kind: dsl.ErrInvalidRequest, Message: "nil request"}
	}
	h := r.Head()

	roots := make(value.Array, len(h.Roots))
	for i, id := range h.Roots {
		roots[i] = value.String(id)
	}
	steps := make(value.Array, len(h.Queries))
	for i, step := range h.Queries {
		node, err := RenderStep(step)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		steps[i] = node
	}

	env := value.Object{
		value.M(dsl.KeyRoots, roots),
		value.M(dsl.KeyQuery, steps),
		value.M(dsl.KeyFilter, renderFilter(r.Kind(), h.Filter)),
	}

	switch req := r.(type) {
	case *dsl.Select:
		env = append(env, value.M(dsl.KeyProjection, renderProjection(req.Projection)))
	case *dsl.Insert:
		docs := make(value.Array, len(req.Data))
		for i, d := range req.Data {
			if d == nil {
				d = value.Object{}
			}
			docs[i] = d
		}
		env = append(env, value.M(dsl.KeyData, docs))
	case *dsl.Update:
		actions := make(value.Array, len(req.Actions))
		for i, a := range req.Actions {
			node, err := RenderAction(a)
			if err != nil {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}
			actions[i] = node
		}
		env = append(env, value.M(dsl.KeyAction, actions))
	}
	return env, nil
}

// Marshal renders r as compact wire JSON.
func Marshal(r dsl.Request) ([]byte, error) {
	env, err := Render(r)
	if err != nil {
		return nil, err
	}
	return value.Marshal(env)
}

// Fingerprint identifies r by the xxh3 digest of its canonical JSON. Two
// requests that differ only in object key order share a fingerprint.
func Fingerprint(r dsl.Request) (string, error) {
	env, err := Render(r)
	if err != nil {
		return "", err
	}
	return value.Fingerprint(env)
}

// RenderStep renders one query step with its depth argument, if any.
func RenderStep(step dsl.Step) (value.Object, error) {
	node, err := RenderQuery(step.Query)
	if err != nil {
		return nil, err
	}
	switch step.Mode {
	case dsl.DepthExact:
		node = append(node, value.M(dsl.KeyExactDepth, value.Int(step.Depth)))
	case dsl.DepthRelative:
		node = append(node, value.M(dsl.KeyDepth, value.Int(step.Depth)))
	}
	return node, nil
}

// RenderQuery renders a query node as {"<token>": <arg>}.
func RenderQuery(q dsl.Query) (value.Object, error) {
	var arg value.Value
	switch n := dsl.Deref(q).(type) {
	case dsl.And:
		return renderChildren(dsl.OpAnd, n.Children)
	case dsl.Or:
		return renderChildren(dsl.OpOr, n.Children)
	case dsl.Not:
		return renderChildren(dsl.OpNot, n.Children)
	case dsl.Compare:
		arg = pair(n.Field, n.Value)
	case dsl.Membership:
		arg = pair(n.Field, value.Array(n.Values))
	case dsl.Range:
		bounds := make(value.Object, len(n.Bounds))
		for i, b := range n.Bounds {
			bounds[i] = value.M(b.Key, b.Value)
		}
		arg = pair(n.Field, bounds)
	case dsl.Existence, dsl.NullTest:
		arg = value.String(dsl.FieldOf(n))
	case dsl.Regex:
		arg = pair(n.Field, value.String(n.Pattern))
	case dsl.Wildcard:
		arg = pair(n.Field, value.String(n.Pattern))
	case dsl.Term:
		obj := make(value.Object, len(n.Pairs))
		for i, p := range n.Pairs {
			obj[i] = value.M(p.Field, p.Value)
		}
		arg = obj
	case dsl.Size:
		arg = pair(n.Field, value.Int(n.Length))
	case dsl.Path:
		ids := make(value.Array, len(n.IDs))
		for i, id := range n.IDs {
			ids[i] = value.String(id)
		}
		arg = ids
	case dsl.Unsupported:
		arg = n.Arg
	default:
		return nil, &dsl.Error{Kind: dsl.ErrNodeNotReady, Message: fmt.Sprintf("cannot render query %T", q)}
	}
	return value.Object{value.M(string(q.Op()), arg)}, nil
}

func renderChildren(op dsl.Op, children []dsl.Query) (value.Object, error) {
	arr := make(value.Array, len(children))
	for i, c := range children {
		node, err := RenderQuery(c)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", op, i, err)
		}
		arr[i] = node
	}
	return value.Object{value.M(string(op), arr)}, nil
}

// RenderAction renders an update action as {"<token>": <arg>}.
func RenderAction(a dsl.Action) (value.Object, error) {
	var arg value.Value
	switch n := dsl.DerefAction(a).(type) {
	case dsl.Set:
		arg = n.Fields
	case dsl.Unset:
		fields := make(value.Array, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = value.String(f)
		}
		arg = fields
	case dsl.Numeric:
		arg = pair(n.Field, n.Value)
	case dsl.ListAction:
		vals := n.Values
		if vals == nil {
			vals = value.Array{}
		}
		arg = pair(n.Field, value.Object{value.M(dsl.KeyEach, vals)})
	case dsl.Pop:
		arg = pair(n.Field, value.Int(n.Direction))
	case dsl.Rename:
		arg = pair(n.Field, value.String(n.NewName))
	default:
		return nil, &dsl.Error{Kind: dsl.ErrNodeNotReady, Message: fmt.Sprintf("cannot render action %T", a)}
	}
	return value.Object{value.M(string(a.Op()), arg)}, nil
}

func renderFilter(kind dsl.Kind, f dsl.Filter) value.Object {
	obj := value.Object{}
	if f.Offset > 0 {
		obj = append(obj, value.M(dsl.KeyOffset, value.Int(f.Offset)))
	}
	if f.Limit > 0 {
		obj = append(obj, value.M(dsl.KeyLimit, value.Int(f.Limit)))
	}
	if len(f.OrderBy) > 0 {
		orders := make(value.Object, len(f.OrderBy))
		for i, o := range f.OrderBy {
			orders[i] = value.M(o.Field, value.Int(o.Direction))
		}
		obj = append(obj, value.M(dsl.KeyOrderBy, orders))
	}
	if len(f.Hints) > 0 {
		hints := make(value.Array, len(f.Hints))
		for i, h := range f.Hints {
			hints[i] = value.String(h)
		}
		obj = append(obj, value.M(dsl.KeyHint, hints))
	}
	if kind == dsl.KindUpdate || kind == dsl.KindDelete {
		obj = append(obj, value.M(dsl.KeyMult, value.Bool(f.Mult)))
	}
	return obj
}

func renderProjection(p dsl.Projection) value.Object {
	obj := value.Object{}
	if len(p.Fields) > 0 {
		fields := make(value.Object, len(p.Fields))
		for i, f := range p.Fields {
			fields[i] = value.M(f.Field, value.Int(f.Indicator))
		}
		obj = append(obj, value.M(dsl.KeyFields, fields))
	}
	if p.Usage != "" {
		obj = append(obj, value.M(dsl.KeyUsage, value.String(p.Usage)))
	}
	return obj
}

func pair(field string, v value.Value) value.Object {
	return value.Object{value.M(field, v)}
}
