package querymongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/archdsl/internal/dsl"
)

// Action compiles one update action into a single-operator update clause.
func (t *Translator) Action(a dsl.Action) (bson.D, error) {
	switch n := dsl.DerefAction(a).(type) {
	case dsl.Set:
		return bson.D{{Key: "$set", Value: ToDocument(n.Fields)}}, nil
	case dsl.Unset:
		fields := make(bson.D, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = bson.E{Key: f, Value: ""}
		}
		return bson.D{{Key: "$unset", Value: fields}}, nil
	case dsl.Numeric:
		switch n.Operator {
		case dsl.ActInc, dsl.ActMin, dsl.ActMax:
			return clause(string(n.Operator), n.Field, ToNative(n.Value)), nil
		}
		return nil, dsl.NewError(dsl.ErrUnsupportedOperator, string(n.Operator), n.Field, "not a numeric action")
	case dsl.ListAction:
		vals := ToNative(n.Values)
		switch n.Operator {
		case dsl.ActPush:
			return clause("$push", n.Field, bson.D{{Key: "$each", Value: vals}}), nil
		case dsl.ActAdd:
			return clause("$addToSet", n.Field, bson.D{{Key: "$each", Value: vals}}), nil
		case dsl.ActPull:
			return clause("$pullAll", n.Field, vals), nil
		}
		return nil, dsl.NewError(dsl.ErrUnsupportedOperator, string(n.Operator), n.Field, "not a list action")
	case dsl.Pop:
		dir := int32(1)
		if n.First() {
			dir = -1
		}
		return clause("$pop", n.Field, dir), nil
	case dsl.Rename:
		return clause("$rename", n.Field, n.NewName), nil
	case nil:
		return nil, &dsl.Error{Kind: dsl.ErrNodeNotReady, Message: "nil action"}
	default:
		return nil, &dsl.Error{Kind: dsl.ErrInvalidRequest, Message: fmt.Sprintf("unknown action type %T", a)}
	}
}

// Actions compiles each action into its own clause, in order. Clauses of
// the same operator are not merged.
func (t *Translator) Actions(actions []dsl.Action) ([]bson.D, error) {
	out := make([]bson.D, len(actions))
	for i, a := range actions {
		d, err := t.Action(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// MergeUpdates folds single-operator clauses into one update document.
// Fields of the same operator merge with the last write winning.
func MergeUpdates(clauses []bson.D) (bson.D, error) {
	merged := bson.D{}
	for i, c := range clauses {
		for _, op := range c {
			fields, ok := op.Value.(bson.D)
			if !ok {
				return nil, fmt.Errorf("clause %d: %s must hold a document, got %T", i, op.Key, op.Value)
			}
			idx := indexOf(merged, op.Key)
			if idx < 0 {
				merged = append(merged, bson.E{Key: op.Key, Value: append(bson.D{}, fields...)})
				continue
			}
			existing := merged[idx].Value.(bson.D)
			for _, f := range fields {
				if j := indexOf(existing, f.Key); j >= 0 {
					existing[j].Value = f.Value
				} else {
					existing = append(existing, f)
				}
			}
			merged[idx].Value = existing
		}
	}
	return merged, nil
}

func clause(op, field string, v any) bson.D {
	return bson.D{{Key: op, Value: bson.D{{Key: field, Value: v}}}}
}

func indexOf(d bson.D, key string) int {
	for i, e := range d {
		if e.Key == key {
			return i
		}
	}
	return -1
}
