// Package querymongo compiles dsl requests into MongoDB native filter,
// update, sort and projection documents.
//
// Translation is all-or-nothing: the first node that cannot be compiled
// aborts the request with a typed *dsl.Error naming the offending token
// and field, and no partial output is returned.
//
// Only the last query step of a chain is compiled. Earlier steps are
// resolved into the root set by the graph traversal layer before a
// request reaches the translator.
//
// A Translator holds configuration only, so one instance may serve
// concurrent requests.
package querymongo

import (
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/validate"
)

// DefaultIDField is the reserved identifier field of stored records.
const DefaultIDField = "_id"

// Translator compiles requests for the document store.
type Translator struct {
	validator *validate.Validator
	idField   string
	logger    *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithIDField overrides the identifier field used by root and $path tests.
func WithIDField(field string) Option {
	return func(t *Translator) {
		if field != "" {
			t.idField = field
		}
	}
}

// WithLogger sets the logger for translation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Translator enforcing cfg's ceilings.
func New(cfg validate.Config, opts ...Option) *Translator {
	t := &Translator{
		validator: validate.New(cfg),
		idField:   DefaultIDField,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Validator returns the validator shared with parsers and builders.
func (t *Translator) Validator() *validate.Validator {
	return t.validator
}

// IDField returns the identifier field name.
func (t *Translator) IDField() string {
	return t.idField
}

// Filter compiles the last query step and the root set into one native
// filter. With neither, the filter is empty and matches every record.
func (t *Translator) Filter(h *dsl.Header) (bson.D, error) {
	rootTest := t.RootFilter(h.Roots)

	last, ok := h.Last()
	if !ok {
		if rootTest == nil {
			return bson.D{}, nil
		}
		return rootTest, nil
	}
	query, err := t.Query(last)
	if err != nil {
		return nil, err
	}
	if rootTest == nil {
		return query, nil
	}
	return bson.D{{Key: "$and", Value: bson.A{query, rootTest}}}, nil
}

// RootFilter compiles the root set: equality for one root, inclusion for
// several, nil for none.
func (t *Translator) RootFilter(roots []string) bson.D {
	switch len(roots) {
	case 0:
		return nil
	case 1:
		return bson.D{{Key: t.idField, Value: roots[0]}}
	default:
		return bson.D{{Key: t.idField, Value: bson.D{{Key: "$in", Value: stringList(roots)}}}}
	}
}

// Sort compiles order-by entries: ascending fields first, then
// descending fields, each group in input order. Nil means no sort.
func (t *Translator) Sort(orders []dsl.Order) bson.D {
	if len(orders) == 0 {
		return nil
	}
	sort := make(bson.D, 0, len(orders))
	for _, o := range orders {
		if o.Ascending() {
			sort = append(sort, bson.E{Key: o.Field, Value: int32(1)})
		}
	}
	for _, o := range orders {
		if !o.Ascending() {
			sort = append(sort, bson.E{Key: o.Field, Value: int32(-1)})
		}
	}
	return sort
}

// Projection compiles field flags: included fields first, then excluded
// fields. Nil means all fields.
func (t *Translator) Projection(p dsl.Projection) bson.D {
	if p.AllFields() {
		return nil
	}
	proj := make(bson.D, 0, len(p.Fields))
	for _, f := range p.Fields {
		if f.Included() {
			proj = append(proj, bson.E{Key: f.Field, Value: int32(1)})
		}
	}
	for _, f := range p.Fields {
		if !f.Included() {
			proj = append(proj, bson.E{Key: f.Field, Value: int32(0)})
		}
	}
	return proj
}

// Translate validates r and compiles it into the matching command type.
func (t *Translator) Translate(r dsl.Request) (Command, error) {
	var (
		cmd Command
		err error
	)
	switch req := r.(type) {
	case *dsl.Select:
		var c *SelectCommand
		c, err = t.Select(req)
		cmd = c
	case *dsl.Update:
		var c *UpdateCommand
		c, err = t.Update(req)
		cmd = c
	case *dsl.Delete:
		var c *DeleteCommand
		c, err = t.Delete(req)
		cmd = c
	case *dsl.Insert:
		var c *InsertCommand
		c, err = t.Insert(req)
		cmd = c
	default:
		return nil, &dsl.Error{Kind: dsl.ErrInvalidRequest, Message: fmt.Sprintf("unknown request type %T", r)}
	}
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

// Select compiles a select request.
func (t *Translator) Select(r *dsl.Select) (*SelectCommand, error) {
	if err := t.validator.Validate(r); err != nil {
		return nil, t.fail(r, err)
	}
	filter, err := t.Filter(&r.Header)
	if err != nil {
		return nil, t.fail(r, err)
	}
	cmd := &SelectCommand{
		Filter:     filter,
		Sort:       t.Sort(r.Filter.OrderBy),
		Projection: t.Projection(r.Projection),
		Skip:       r.Filter.Offset,
		Limit:      r.Filter.Limit,
		Hints:      r.Filter.Hints,
		Usage:      r.Projection.Usage,
	}
	t.logger.Debug("select compiled", "steps", len(r.Queries), "roots", len(r.Roots))
	return cmd, nil
}

// Update compiles an update request. Each action becomes its own
// clause; see MergeUpdates for combining them.
func (t *Translator) Update(r *dsl.Update) (*UpdateCommand, error) {
	if err := t.validator.Validate(r); err != nil {
		return nil, t.fail(r, err)
	}
	filter, err := t.Filter(&r.Header)
	if err != nil {
		return nil, t.fail(r, err)
	}
	clauses, err := t.Actions(r.Actions)
	if err != nil {
		return nil, t.fail(r, err)
	}
	t.logger.Debug("update compiled", "actions", len(clauses), "mult", r.Filter.Mult)
	return &UpdateCommand{Filter: filter, Updates: clauses, Multi: r.Filter.Mult}, nil
}

// Delete compiles a delete request.
func (t *Translator) Delete(r *dsl.Delete) (*DeleteCommand, error) {
	if err := t.validator.Validate(r); err != nil {
		return nil, t.fail(r, err)
	}
	filter, err := t.Filter(&r.Header)
	if err != nil {
		return nil, t.fail(r, err)
	}
	t.logger.Debug("delete compiled", "mult", r.Filter.Mult)
	return &DeleteCommand{Filter: filter, Multi: r.Filter.Mult}, nil
}

// Insert compiles an insert request. The query, if any, selects the
// parent records the new documents attach under.
func (t *Translator) Insert(r *dsl.Insert) (*InsertCommand, error) {
	if err := t.validator.Validate(r); err != nil {
		return nil, t.fail(r, err)
	}
	filter, err := t.Filter(&r.Header)
	if err != nil {
		return nil, t.fail(r, err)
	}
	docs := make([]bson.D, len(r.Data))
	for i, d := range r.Data {
		docs[i] = ToDocument(d)
	}
	t.logger.Debug("insert compiled", "documents", len(docs))
	return &InsertCommand{ParentFilter: filter, Documents: docs}, nil
}

func (t *Translator) fail(r dsl.Request, err error) error {
	t.logger.Debug("translation failed", "kind", r.Kind(), "error_kind", dsl.KindOf(err), "error", err)
	return err
}

func stringList(ss []string) bson.A {
	arr := make(bson.A, len(ss))
	for i, s := range ss {
		arr[i] = s
	}
	return arr
}
