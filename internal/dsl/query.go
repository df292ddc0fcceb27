package dsl

import "github.com/roach88/archdsl/internal/value"

// Query is a node of a request's query tree.
//
// This is a sealed interface - only types in this package implement it.
// Op returns the node's canonical wire token.
//
// Query types:
//   - And, Or, Not: composites over child nodes
//   - Compare: EQ, NE, GT, GTE, LT, LTE on one field
//   - Membership: IN, NIN on one field
//   - Range: bounded comparison on one field
//   - Existence: EXISTS, MISSING
//   - NullTest: ISNULL
//   - Regex, Wildcard: pattern tests
//   - Term: implicit conjunction of equalities
//   - Size: array length test
//   - Path: explicit identifier list
//   - Unsupported: operators with no document-store mapping
type Query interface {
	Op() Op
	queryNode() // Marker method - seals interface to this package
}

// And is satisfied when every child is.
//
//	{"$and": [<query>, <query>, ...]}
type And struct {
	Children []Query
}

func (And) Op() Op { return OpAnd }
func (And) queryNode() {}

// Or is satisfied when at least one child is.
//
//	{"$or": [<query>, <query>, ...]}
type Or struct {
	Children []Query
}

func (Or) Op() Op { return OpOr }
func (Or) queryNode() {}

// Not negates its child. With several children it negates their
// conjunction, so Not{a, b} means NOT (a AND b).
//
//	{"$not": [<query>, ...]}
type Not struct {
	Children []Query
}

func (Not) Op() Op { return OpNot }
func (Not) queryNode() {}

// Compare tests one field against one scalar.
// Operator is one of OpEq, OpNe, OpGt, OpGte, OpLt, OpLte.
//
//	{"$gte": {"StartDate": {"$date": "2001-01-01T00:00:00Z"}}}
type Compare struct {
	Operator Op
	Field    string
	Value    value.Value
}

func (c Compare) Op() Op { return c.Operator }
func (Compare) queryNode() {}

// Membership tests one field against a list of scalars.
// Operator is OpIn or OpNin.
//
//	{"$in": {"Status": ["OPEN", "CLOSED"]}}
type Membership struct {
	Operator Op
	Field    string
	Values   []value.Value
}

func (m Membership) Op() Op { return m.Operator }
func (Membership) queryNode() {}

// Bound is one entry of a Range. Key is kept as written so that an
// unrecognized bound can be reported by the translator.
type Bound struct {
	Key   string
	Value value.Value
}

// Range tests one field against up to four bounds, in wire order.
//
//	{"$range": {"Size": {"$gte": 10, "$lt": 20}}}
type Range struct {
	Field  string
	Bounds []Bound
}

func (Range) Op() Op { return OpRange }
func (Range) queryNode() {}

// Existence tests field presence. Present=false is the MISSING form.
//
//	{"$exists": "Title"}   {"$missing": "Title"}
type Existence struct {
	Field   string
	Present bool
}

func (e Existence) Op() Op {
	if e.Present {
		return OpExists
	}
	return OpMissing
}
func (Existence) queryNode() {}

// NullTest holds when the field is present with a null value. An absent
// field does not satisfy it.
//
//	{"$isNull": "EndDate"}
type NullTest struct {
	Field string
}

func (NullTest) Op() Op { return OpIsNull }
func (NullTest) queryNode() {}

// Regex tests a string field against a regular expression, used verbatim.
//
//	{"$regex": {"Title": "^Fonds"}}
type Regex struct {
	Field   string
	Pattern string
}

func (Regex) Op() Op { return OpRegex }
func (Regex) queryNode() {}

// Wildcard tests a string field against a glob where ? matches one
// character and * matches any run.
//
//	{"$wildcard": {"Title": "Rap?ort*"}}
type Wildcard struct {
	Field   string
	Pattern string
}

func (Wildcard) Op() Op { return OpWildcard }
func (Wildcard) queryNode() {}

// Pair is one field/value equality of a Term.
type Pair struct {
	Field string
	Value value.Value
}

// Term is the conjunction of exact equalities over its pairs.
//
//	{"$term": {"Level": "Item", "Status": "OPEN"}}
type Term struct {
	Pairs []Pair
}

func (Term) Op() Op { return OpTerm }
func (Term) queryNode() {}

// Size tests the length of an array field.
//
//	{"$size": {"Tags": 2}}
type Size struct {
	Field  string
	Length int64
}

func (Size) Op() Op { return OpSize }
func (Size) queryNode() {}

// Path names the exact records a traversal step starts from. It compiles
// to an identifier membership test and may only open a query chain.
//
//	{"$path": ["aeaa1", "aeaa2"]}
type Path struct {
	IDs []string
}

func (Path) Op() Op { return OpPath }
func (Path) queryNode() {}

// Unsupported holds an operator that is legal in the language but has no
// mapping in the document store (full-text, geo, similarity). Arg keeps
// the wire argument verbatim.
type Unsupported struct {
	Operator Op
	Arg      value.Value
}

func (u Unsupported) Op() Op { return u.Operator }
func (Unsupported) queryNode() {}

// Field returns the single field named by the argument, if any.
func (u Unsupported) Field() string {
	if obj, ok := u.Arg.(value.Object); ok && len(obj) == 1 {
		return obj[0].Key
	}
	if s, ok := u.Arg.(value.String); ok {
		return string(s)
	}
	return ""
}

// Eq builds {"$eq": {field: v}}.
func Eq(field string, v value.Value) Compare { return Compare{Operator: OpEq, Field: field, Value: v} }

// Ne builds {"$ne": {field: v}}.
func Ne(field string, v value.Value) Compare { return Compare{Operator: OpNe, Field: field, Value: v} }

// Gt builds {"$gt": {field: v}}.
func Gt(field string, v value.Value) Compare { return Compare{Operator: OpGt, Field: field, Value: v} }

// Gte builds {"$gte": {field: v}}.
func Gte(field string, v value.Value) Compare { return Compare{Operator: OpGte, Field: field, Value: v} }

// Lt builds {"$lt": {field: v}}.
func Lt(field string, v value.Value) Compare { return Compare{Operator: OpLt, Field: field, Value: v} }

// Lte builds {"$lte": {field: v}}.
func Lte(field string, v value.Value) Compare { return Compare{Operator: OpLte, Field: field, Value: v} }

// In builds {"$in": {field: [vs...]}}.
func In(field string, vs ...value.Value) Membership {
	return Membership{Operator: OpIn, Field: field, Values: vs}
}

// Nin builds {"$nin": {field: [vs...]}}.
func Nin(field string, vs ...value.Value) Membership {
	return Membership{Operator: OpNin, Field: field, Values: vs}
}

// Exists builds {"$exists": field}.
func Exists(field string) Existence { return Existence{Field: field, Present: true} }

// Missing builds {"$missing": field}.
func Missing(field string) Existence { return Existence{Field: field, Present: false} }

// IsNull builds {"$isNull": field}.
func IsNull(field string) NullTest { return NullTest{Field: field} }

// Between builds a range with an inclusive lower and exclusive upper bound.
func Between(field string, from, to value.Value) Range {
	return Range{Field: field, Bounds: []Bound{{Key: BoundGte, Value: from}, {Key: BoundLt, Value: to}}}
}

// AllOf builds {"$and": [children...]}.
func AllOf(children ...Query) And { return And{Children: children} }

// AnyOf builds {"$or": [children...]}.
func AnyOf(children ...Query) Or { return Or{Children: children} }

// NoneOf builds {"$not": [children...]}.
func NoneOf(children ...Query) Not { return Not{Children: children} }

// PathOf builds {"$path": [ids...]}.
func PathOf(ids ...string) Path { return Path{IDs: ids} }

// FieldOf returns the field a leaf node tests, or "" for composites,
// terms and paths.
func FieldOf(q Query) string {
	switch n := q.(type) {
	case Compare:
		return n.Field
	case *Compare:
		return n.Field
	case Membership:
		return n.Field
	case *Membership:
		return n.Field
	case Range:
		return n.Field
	case *Range:
		return n.Field
	case Existence:
		return n.Field
	case *Existence:
		return n.Field
	case NullTest:
		return n.Field
	case *NullTest:
		return n.Field
	case Regex:
		return n.Field
	case *Regex:
		return n.Field
	case Wildcard:
		return n.Field
	case *Wildcard:
		return n.Field
	case Size:
		return n.Field
	case *Size:
		return n.Field
	case Unsupported:
		return n.Field()
	case *Unsupported:
		return n.Field()
	default:
		return ""
	}
}
