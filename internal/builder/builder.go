// Package builder accumulates request envelopes in-process.
//
// A builder is a mutable accumulator owned by one request: it is not safe
// for concurrent use. Every node handed to it is checked for readiness on
// the way in, so Final and FinalJSON never see a half-built tree. Filter
// and projection settings union-merge, the last write winning per key.
//
// Usage:
//
//	b := builder.NewSelect(v)
//	b.AddRoots("id1", "id2")
//	if err := b.AddQuery(dsl.Eq("Title", value.String("X"))); err != nil { ... }
//	b.AddOrderBy("Title", 1)
//	data, err := b.FinalJSON()
package builder

import (
	"slices"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/parser"
	"github.com/roach88/archdsl/internal/validate"
	"github.com/roach88/archdsl/internal/value"
)

// base holds the state shared by every request kind.
type base struct {
	v      *validate.Validator
	header dsl.Header
}

func newBase(v *validate.Validator) base {
	if v == nil {
		v = validate.New(validate.DefaultConfig())
	}
	return base{v: v}
}

// AddRoots adds graph anchors. Repeated identifiers are kept once.
func (b *base) AddRoots(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyRoots, "", "empty root identifier")
		}
		if !slices.Contains(b.header.Roots, id) {
			b.header.Roots = append(b.header.Roots, id)
		}
	}
	return nil
}

// SetQuery replaces the whole chain with a single step. The chain is
// unchanged on error.
func (b *base) SetQuery(q dsl.Query) error {
	return b.setChain(nil, dsl.Step{Query: q})
}

// AddQuery appends a step that descends one level.
func (b *base) AddQuery(q dsl.Query) error {
	return b.AddStep(dsl.Step{Query: q})
}

// AddQueryExactDepth appends a step pinned at an absolute depth.
func (b *base) AddQueryExactDepth(q dsl.Query, depth int) error {
	return b.AddStep(dsl.Step{Query: q, Mode: dsl.DepthExact, Depth: depth})
}

// AddQueryDepth appends a step moving depth levels from the previous one.
func (b *base) AddQueryDepth(q dsl.Query, depth int) error {
	return b.AddStep(dsl.Step{Query: q, Mode: dsl.DepthRelative, Depth: depth})
}

// AddStep appends step after checking the node and the resulting chain
// against the depth ceiling. The chain is unchanged on error.
func (b *base) AddStep(step dsl.Step) error {
	return b.setChain(b.header.Queries, step)
}

func (b *base) setChain(prefix []dsl.Step, step dsl.Step) error {
	if err := validate.CheckQuery(step.Query); err != nil {
		return err
	}
	chain := append(slices.Clone(prefix), step)
	if _, err := b.v.CheckDepth(chain); err != nil {
		return err
	}
	b.header.Queries = chain
	return nil
}

// SetFilter merges a wire $filter object.
func (b *base) SetFilter(filter value.Object) error {
	f := cloneFilter(b.header.Filter)
	if err := parser.ApplyFilter(&f, filter); err != nil {
		return err
	}
	b.header.Filter = f
	return nil
}

// SetLimit sets the page size. Zero means unbounded.
func (b *base) SetLimit(limit int64) error {
	if limit < 0 {
		return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyLimit, "", "must be >= 0, got %d", limit)
	}
	b.header.Filter.Limit = limit
	return nil
}

// SetOffset sets the number of records skipped.
func (b *base) SetOffset(offset int64) error {
	if offset < 0 {
		return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyOffset, "", "must be >= 0, got %d", offset)
	}
	b.header.Filter.Offset = offset
	return nil
}

// AddOrderBy sorts on field, ascending when direction is positive.
func (b *base) AddOrderBy(field string, direction int) error {
	if field == "" {
		return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyOrderBy, "", "empty order-by field")
	}
	b.header.Filter.OrderBy = parser.MergeOrder(b.header.Filter.OrderBy, dsl.Order{Field: field, Direction: direction})
	return nil
}

// AddHints adds execution hints.
func (b *base) AddHints(hints ...string) {
	b.header.Filter.Hints = parser.MergeHints(b.header.Filter.Hints, hints...)
}

func (b *base) reset() {
	b.header = dsl.Header{}
}

func (b *base) finalHeader() dsl.Header {
	return dsl.Header{
		Roots:   slices.Clone(b.header.Roots),
		Queries: slices.Clone(b.header.Queries),
		Filter:  cloneFilter(b.header.Filter),
	}
}

func (b *base) finalJSON(r dsl.Request) ([]byte, error) {
	return b.v.CheckRequestSize(r)
}

func cloneFilter(f dsl.Filter) dsl.Filter {
	f.Hints = slices.Clone(f.Hints)
	f.OrderBy = slices.Clone(f.OrderBy)
	return f
}

// Select builds select requests.
type Select struct {
	base
	projection dsl.Projection
}

// NewSelect creates an empty select builder. A nil validator uses the
// default ceilings.
func NewSelect(v *validate.Validator) *Select {
	return &Select{base: newBase(v)}
}

// AddUsedProjection includes fields in the result.
func (s *Select) AddUsedProjection(fields ...string) error {
	return s.addProjection(1, fields)
}

// AddUnusedProjection excludes fields from the result.
func (s *Select) AddUnusedProjection(fields ...string) error {
	return s.addProjection(0, fields)
}

func (s *Select) addProjection(indicator int, fields []string) error {
	for _, f := range fields {
		if f == "" {
			return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyFields, "", "empty projection field")
		}
		s.projection.Fields = parser.MergeField(s.projection.Fields, dsl.FieldFlag{Field: f, Indicator: indicator})
	}
	return nil
}

// SetProjection merges a wire $projection object.
func (s *Select) SetProjection(projection value.Object) error {
	p := dsl.Projection{Fields: slices.Clone(s.projection.Fields), Usage: s.projection.Usage}
	if err := parser.ApplyProjection(&p, projection); err != nil {
		return err
	}
	s.projection = p
	return nil
}

// SetUsage selects a version of versioned fields.
func (s *Select) SetUsage(usage string) {
	s.projection.Usage = usage
}

// Reset clears the builder for reuse.
func (s *Select) Reset() {
	s.reset()
	s.projection = dsl.Projection{}
}

// Final returns a copy of the accumulated request.
func (s *Select) Final() *dsl.Select {
	return &dsl.Select{
		Header:     s.finalHeader(),
		Projection: dsl.Projection{Fields: slices.Clone(s.projection.Fields), Usage: s.projection.Usage},
	}
}

// FinalJSON renders the request as wire JSON and checks the size ceiling.
func (s *Select) FinalJSON() ([]byte, error) {
	return s.finalJSON(s.Final())
}

// Update builds update requests.
type Update struct {
	base
	actions []dsl.Action
}

// NewUpdate creates an empty update builder.
func NewUpdate(v *validate.Validator) *Update {
	return &Update{base: newBase(v)}
}

// AddActions appends actions. Nothing is appended if any action is not
// ready.
func (u *Update) AddActions(actions ...dsl.Action) error {
	for _, a := range actions {
		if err := validate.CheckAction(a); err != nil {
			return err
		}
	}
	u.actions = append(u.actions, actions...)
	return nil
}

// SetMult lets the update act on every matched record.
func (u *Update) SetMult(mult bool) {
	u.header.Filter.Mult = mult
}

// Reset clears the builder for reuse.
func (u *Update) Reset() {
	u.reset()
	u.actions = nil
}

// Final returns a copy of the accumulated request.
func (u *Update) Final() *dsl.Update {
	return &dsl.Update{Header: u.finalHeader(), Actions: slices.Clone(u.actions)}
}

// FinalJSON renders the request as wire JSON and checks the size ceiling.
func (u *Update) FinalJSON() ([]byte, error) {
	return u.finalJSON(u.Final())
}

// Insert builds insert requests.
type Insert struct {
	base
	data []value.Object
}

// NewInsert creates an empty insert builder.
func NewInsert(v *validate.Validator) *Insert {
	return &Insert{base: newBase(v)}
}

// AddData appends documents to insert.
func (i *Insert) AddData(docs ...value.Object) error {
	for n, d := range docs {
		if d == nil {
			return dsl.NewError(dsl.ErrNodeNotReady, dsl.KeyData, "", "document %d is nil", n)
		}
	}
	for _, d := range docs {
		i.data = append(i.data, value.CloneObject(d))
	}
	return nil
}

// Reset clears the builder for reuse.
func (i *Insert) Reset() {
	i.reset()
	i.data = nil
}

// Final returns a copy of the accumulated request.
func (i *Insert) Final() *dsl.Insert {
	data := make([]value.Object, len(i.data))
	for n, d := range i.data {
		data[n] = value.CloneObject(d)
	}
	return &dsl.Insert{Header: i.finalHeader(), Data: data}
}

// FinalJSON renders the request as wire JSON and checks the size ceiling.
func (i *Insert) FinalJSON() ([]byte, error) {
	return i.finalJSON(i.Final())
}

// Delete builds delete requests.
type Delete struct {
	base
}

// NewDelete creates an empty delete builder.
func NewDelete(v *validate.Validator) *Delete {
	return &Delete{base: newBase(v)}
}

// SetMult lets the delete remove every matched record.
func (d *Delete) SetMult(mult bool) {
	d.header.Filter.Mult = mult
}

// Reset clears the builder for reuse.
func (d *Delete) Reset() {
	d.reset()
}

// Final returns a copy of the accumulated request.
func (d *Delete) Final() *dsl.Delete {
	return &dsl.Delete{Header: d.finalHeader()}
}

// FinalJSON renders the request as wire JSON and checks the size ceiling.
func (d *Delete) FinalJSON() ([]byte, error) {
	return d.finalJSON(d.Final())
}
