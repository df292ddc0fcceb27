package dsl

import "github.com/roach88/archdsl/internal/value"

// Kind names the four request envelopes.
type Kind string

const (
	KindSelect Kind = "select"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// DepthMode says how a query step positions itself in the graph.
type DepthMode int

const (
	// DepthDefault descends one level below the previous step.
	DepthDefault DepthMode = iota
	// DepthExact pins the step at an absolute depth ($exactdepth).
	DepthExact
	// DepthRelative moves Depth levels from the previous step ($depth).
	DepthRelative
)

// AnyDepth as an exact depth means "any level up to the ceiling".
const AnyDepth = -1

// Step is one query of a multi-step chain. Each step narrows the result
// of the previous one.
type Step struct {
	Query Query
	Mode  DepthMode
	Depth int
}

// Order is one order-by entry. Positive directions sort ascending,
// anything else descending.
type Order struct {
	Field     string
	Direction int
}

// Ascending reports whether the entry sorts ascending.
func (o Order) Ascending() bool { return o.Direction > 0 }

// Filter carries paging, ordering, hints and multiplicity.
// Limit 0 means unbounded.
type Filter struct {
	Offset  int64
	Limit   int64
	Hints   []string
	OrderBy []Order
	// Mult lets an update or delete act on every matched record instead of
	// exactly one.
	Mult bool
}

// FieldFlag is one projection entry: a positive indicator includes the
// field, anything else excludes it.
type FieldFlag struct {
	Field     string
	Indicator int
}

// Included reports whether the field is kept.
func (f FieldFlag) Included() bool { return f.Indicator > 0 }

// Projection selects the returned fields. No entries means all fields.
type Projection struct {
	Fields []FieldFlag
	// Usage selects a version of versioned fields.
	Usage string
}

// AllFields reports whether the projection bypasses field selection.
func (p Projection) AllFields() bool { return len(p.Fields) == 0 }

// Header is shared by every request envelope.
type Header struct {
	// Roots anchor graph traversal; empty means unrestricted.
	Roots   []string
	Queries []Step
	Filter  Filter
}

// Head gives translators uniform access to the shared part of a request.
func (h *Header) Head() *Header { return h }

// Last returns the final step's query, the only one compiled natively.
func (h *Header) Last() (Query, bool) {
	if len(h.Queries) == 0 {
		return nil, false
	}
	return h.Queries[len(h.Queries)-1].Query, true
}

// Request is one of *Select, *Insert, *Update, *Delete.
//
// This is a sealed interface - only types in this package implement it.
type Request interface {
	Kind() Kind
	Head() *Header
	requestNode() // Marker method - seals interface to this package
}

// Select reads records.
//
//	{"$roots": [...], "$query": [...], "$filter": {...}, "$projection": {...}}
type Select struct {
	Header
	Projection Projection
}

func (*Select) Kind() Kind   { return KindSelect }
func (*Select) requestNode() {}

// Insert adds documents, optionally under the records the query selects.
//
//	{"$query": [...], "$filter": {...}, "$data": [<doc>...]}
type Insert struct {
	Header
	Data []value.Object
}

func (*Insert) Kind() Kind   { return KindInsert }
func (*Insert) requestNode() {}

// Update mutates the records the query selects.
//
//	{"$roots": [...], "$query": [...], "$filter": {"$mult": bool}, "$action": [...]}
type Update struct {
	Header
	Actions []Action
}

func (*Update) Kind() Kind   { return KindUpdate }
func (*Update) requestNode() {}

// Delete removes the records the query selects.
//
//	{"$query": [...], "$filter": {"$mult": bool}}
type Delete struct {
	Header
}

func (*Delete) Kind() Kind   { return KindDelete }
func (*Delete) requestNode() {}
