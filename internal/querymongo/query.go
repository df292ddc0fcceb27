package querymongo

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/archdsl/internal/dsl"
)

// comparisonOps maps dsl comparison tokens to native operators.
var comparisonOps = map[dsl.Op]string{
	dsl.OpEq:  "$eq",
	dsl.OpNe:  "$ne",
	dsl.OpGt:  "$gt",
	dsl.OpGte: "$gte",
	dsl.OpLt:  "$lt",
	dsl.OpLte: "$lte",
}

// Query compiles one query node into a native filter document.
func (t *Translator) Query(q dsl.Query) (bson.D, error) {
	switch n := dsl.Deref(q).(type) {
	case dsl.And:
		children, err := t.children(dsl.OpAnd, n.Children)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$and", Value: children}}, nil
	case dsl.Or:
		children, err := t.children(dsl.OpOr, n.Children)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$or", Value: children}}, nil
	case dsl.Not:
		children, err := t.children(dsl.OpNot, n.Children)
		if err != nil {
			return nil, err
		}
		if len(children) == 1 {
			return bson.D{{Key: "$nor", Value: children}}, nil
		}
		return bson.D{{Key: "$nor", Value: bson.A{bson.D{{Key: "$and", Value: children}}}}}, nil
	case dsl.Compare:
		native, ok := comparisonOps[n.Operator]
		if !ok {
			return nil, dsl.NewError(dsl.ErrUnsupportedOperator, string(n.Operator), n.Field, "not a comparison operator")
		}
		return fieldTest(n.Field, native, ToNative(n.Value)), nil
	case dsl.Membership:
		native := "$in"
		if n.Operator == dsl.OpNin {
			native = "$nin"
		}
		return fieldTest(n.Field, native, nativeList(n.Values)), nil
	case dsl.Range:
		return rangeTest(n)
	case dsl.Existence:
		return fieldTest(n.Field, "$exists", n.Present), nil
	case dsl.NullTest:
		return fieldTest(n.Field, "$type", "null"), nil
	case dsl.Regex:
		return fieldTest(n.Field, "$regex", n.Pattern), nil
	case dsl.Wildcard:
		return fieldTest(n.Field, "$regex", WildcardPattern(n.Pattern)), nil
	case dsl.Term:
		eqs := make(bson.A, len(n.Pairs))
		for i, p := range n.Pairs {
			eqs[i] = fieldTest(p.Field, "$eq", ToNative(p.Value))
		}
		return bson.D{{Key: "$and", Value: eqs}}, nil
	case dsl.Size:
		return fieldTest(n.Field, "$size", n.Length), nil
	case dsl.Path:
		return fieldTest(t.idField, "$in", stringList(n.IDs)), nil
	case dsl.Unsupported:
		return nil, dsl.NewError(dsl.ErrUnsupportedOperator, string(n.Operator), n.Field(), "operator not supported by the document store")
	case nil:
		return nil, &dsl.Error{Kind: dsl.ErrNodeNotReady, Message: "nil query"}
	default:
		return nil, &dsl.Error{Kind: dsl.ErrInvalidRequest, Message: fmt.Sprintf("unknown query type %T", q)}
	}
}

// children compiles composite children, aborting on the first failure.
func (t *Translator) children(op dsl.Op, qs []dsl.Query) (bson.A, error) {
	out := make(bson.A, len(qs))
	for i, q := range qs {
		d, err := t.Query(q)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", op, i, err)
		}
		out[i] = d
	}
	return out, nil
}

func rangeTest(r dsl.Range) (bson.D, error) {
	bounds := make(bson.D, 0, len(r.Bounds))
	for _, b := range r.Bounds {
		if !dsl.IsBoundKey(b.Key) {
			return nil, dsl.NewError(dsl.ErrUnrecognizedBoundKey, b.Key, r.Field, "range bound must be one of $gt, $gte, $lt, $lte")
		}
		bounds = append(bounds, bson.E{Key: comparisonOps[dsl.Op(b.Key)], Value: ToNative(b.Value)})
	}
	return bson.D{{Key: r.Field, Value: bounds}}, nil
}

// WildcardPattern turns a glob into a regular expression by replacing ?
// with . and * with .*. Other characters pass through unescaped.
func WildcardPattern(glob string) string {
	return strings.NewReplacer("?", ".", "*", ".*").Replace(glob)
}

func fieldTest(field, op string, v any) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: op, Value: v}}}}
}
