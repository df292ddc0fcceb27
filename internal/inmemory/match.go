package inmemory

import (
	"fmt"
	"regexp"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/querymongo"
	"github.com/roach88/archdsl/internal/value"
)

// Matcher evaluates query trees against documents.
type Matcher struct {
	idField string
}

// NewMatcher creates a Matcher. $path tests compare against idField.
func NewMatcher(idField string) *Matcher {
	if idField == "" {
		idField = querymongo.DefaultIDField
	}
	return &Matcher{idField: idField}
}

// Match reports whether doc satisfies q using the default identifier
// field.
func Match(q dsl.Query, doc value.Object) (bool, error) {
	return NewMatcher("").Match(q, doc)
}

// Match reports whether doc satisfies q. A field holding an array matches
// a scalar test when any element does, as in the document store.
func (m *Matcher) Match(q dsl.Query, doc value.Object) (bool, error) {
	switch n := dsl.Deref(q).(type) {
	case dsl.And:
		for i, c := range n.Children {
			ok, err := m.Match(c, doc)
			if err != nil {
				return false, fmt.Errorf("%s %d: %w", dsl.OpAnd, i, err)
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case dsl.Or:
		for i, c := range n.Children {
			ok, err := m.Match(c, doc)
			if err != nil {
				return false, fmt.Errorf("%s %d: %w", dsl.OpOr, i, err)
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case dsl.Not:
		ok, err := m.Match(dsl.And{Children: n.Children}, doc)
		return !ok, err
	case dsl.Compare:
		return matchCompare(n, doc), nil
	case dsl.Membership:
		in := anyCandidate(doc, n.Field, func(v value.Value) bool {
			return containsValue(n.Values, v)
		})
		if n.Operator == dsl.OpNin {
			return !in, nil
		}
		return in, nil
	case dsl.Range:
		return matchRange(n, doc)
	case dsl.Existence:
		_, ok := get(doc, n.Field)
		return ok == n.Present, nil
	case dsl.NullTest:
		v, ok := get(doc, n.Field)
		if !ok {
			return false, nil
		}
		_, isNull := v.(value.Null)
		return isNull, nil
	case dsl.Regex:
		return matchPattern(n.Field, dsl.OpRegex, n.Pattern, doc)
	case dsl.Wildcard:
		return matchPattern(n.Field, dsl.OpWildcard, querymongo.WildcardPattern(n.Pattern), doc)
	case dsl.Term:
		for _, p := range n.Pairs {
			if !matchCompare(dsl.Eq(p.Field, p.Value), doc) {
				return false, nil
			}
		}
		return true, nil
	case dsl.Size:
		v, ok := get(doc, n.Field)
		arr, isArr := v.(value.Array)
		return ok && isArr && int64(len(arr)) == n.Length, nil
	case dsl.Path:
		id, ok := doc.Get(m.idField)
		if !ok {
			return false, nil
		}
		s, isStr := id.(value.String)
		for _, want := range n.IDs {
			if isStr && string(s) == want {
				return true, nil
			}
		}
		return false, nil
	case dsl.Unsupported:
		return false, dsl.NewError(dsl.ErrUnsupportedOperator, string(n.Operator), n.Field(), "operator not supported in memory")
	default:
		return false, &dsl.Error{Kind: dsl.ErrInvalidRequest, Message: fmt.Sprintf("unknown query type %T", q)}
	}
}

// candidates returns the value at field plus, for arrays, each element.
func candidates(doc value.Object, field string) []value.Value {
	v, ok := get(doc, field)
	if !ok {
		return nil
	}
	out := []value.Value{v}
	if arr, isArr := v.(value.Array); isArr {
		out = append(out, arr...)
	}
	return out
}

func anyCandidate(doc value.Object, field string, pred func(value.Value) bool) bool {
	for _, c := range candidates(doc, field) {
		if pred(c) {
			return true
		}
	}
	return false
}

func containsValue(vs []value.Value, v value.Value) bool {
	for _, e := range vs {
		if value.Equal(e, v) {
			return true
		}
	}
	return false
}

func matchCompare(c dsl.Compare, doc value.Object) bool {
	switch c.Operator {
	case dsl.OpEq:
		return equalsOrNullMissing(c, doc)
	case dsl.OpNe:
		return !equalsOrNullMissing(c, doc)
	}
	return anyCandidate(doc, c.Field, func(v value.Value) bool {
		cmp, ok := value.Compare(v, c.Value)
		if !ok {
			return false
		}
		switch c.Operator {
		case dsl.OpGt:
			return cmp > 0
		case dsl.OpGte:
			return cmp >= 0
		case dsl.OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	})
}

// equalsOrNullMissing is equality where {f: null} also matches a missing
// field, as in the document store.
func equalsOrNullMissing(c dsl.Compare, doc value.Object) bool {
	if _, isNull := c.Value.(value.Null); isNull {
		if _, ok := get(doc, c.Field); !ok {
			return true
		}
	}
	return anyCandidate(doc, c.Field, func(v value.Value) bool {
		return value.Equal(v, c.Value)
	})
}

func matchRange(r dsl.Range, doc value.Object) (bool, error) {
	for _, b := range r.Bounds {
		if !dsl.IsBoundKey(b.Key) {
			return false, dsl.NewError(dsl.ErrUnrecognizedBoundKey, b.Key, r.Field, "range bound must be one of $gt, $gte, $lt, $lte")
		}
	}
	return anyCandidate(doc, r.Field, func(v value.Value) bool {
		for _, b := range r.Bounds {
			if !matchCompare(dsl.Compare{Operator: dsl.Op(b.Key), Field: "v", Value: b.Value}, value.Object{value.M("v", v)}) {
				return false
			}
		}
		return true
	}), nil
}

func matchPattern(field string, op dsl.Op, pattern string, doc value.Object) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, &dsl.Error{Kind: dsl.ErrMalformedOperator, Token: string(op), Field: field, Message: "invalid pattern", Err: err}
	}
	return anyCandidate(doc, field, func(v value.Value) bool {
		s, ok := v.(value.String)
		return ok && re.MatchString(string(s))
	}), nil
}
