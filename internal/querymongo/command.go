package querymongo

import (
	"bytes"
	"encoding/json"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/value"
)

// Command is a compiled request, ready for a driver call.
//
// This is a sealed interface - only types in this package implement it.
type Command interface {
	Kind() dsl.Kind
	// Describe renders the command as one document for display and
	// golden comparison.
	Describe() bson.D
	commandNode() // Marker method - seals interface to this package
}

// SelectCommand is a compiled find. Nil Sort and Projection mean none.
type SelectCommand struct {
	Filter     bson.D
	Sort       bson.D
	Projection bson.D
	Skip       int64
	Limit      int64
	Hints      []string
	Usage      string
}

// UpdateCommand is a compiled update. Updates holds one clause per action.
type UpdateCommand struct {
	Filter  bson.D
	Updates []bson.D
	Multi   bool
}

// DeleteCommand is a compiled delete.
type DeleteCommand struct {
	Filter bson.D
	Multi  bool
}

// InsertCommand is a compiled insert. ParentFilter selects the records
// new documents attach under; it is empty when the insert has no query.
type InsertCommand struct {
	ParentFilter bson.D
	Documents    []bson.D
}

func (*SelectCommand) Kind() dsl.Kind { return dsl.KindSelect }
func (*UpdateCommand) Kind() dsl.Kind { return dsl.KindUpdate }
func (*DeleteCommand) Kind() dsl.Kind { return dsl.KindDelete }
func (*InsertCommand) Kind() dsl.Kind { return dsl.KindInsert }

func (*SelectCommand) commandNode() {}
func (*UpdateCommand) commandNode() {}
func (*DeleteCommand) commandNode() {}
func (*InsertCommand) commandNode() {}

func (c *SelectCommand) Describe() bson.D {
	d := bson.D{
		{Key: "kind", Value: string(dsl.KindSelect)},
		{Key: "filter", Value: c.Filter},
	}
	if c.Sort != nil {
		d = append(d, bson.E{Key: "sort", Value: c.Sort})
	}
	if c.Projection != nil {
		d = append(d, bson.E{Key: "projection", Value: c.Projection})
	}
	if c.Skip > 0 {
		d = append(d, bson.E{Key: "skip", Value: c.Skip})
	}
	if c.Limit > 0 {
		d = append(d, bson.E{Key: "limit", Value: c.Limit})
	}
	if len(c.Hints) > 0 {
		d = append(d, bson.E{Key: "hints", Value: stringList(c.Hints)})
	}
	if c.Usage != "" {
		d = append(d, bson.E{Key: "usage", Value: c.Usage})
	}
	return d
}

func (c *UpdateCommand) Describe() bson.D {
	updates := make(bson.A, len(c.Updates))
	for i, u := range c.Updates {
		updates[i] = u
	}
	return bson.D{
		{Key: "kind", Value: string(dsl.KindUpdate)},
		{Key: "filter", Value: c.Filter},
		{Key: "updates", Value: updates},
		{Key: "multi", Value: c.Multi},
	}
}

func (c *DeleteCommand) Describe() bson.D {
	return bson.D{
		{Key: "kind", Value: string(dsl.KindDelete)},
		{Key: "filter", Value: c.Filter},
		{Key: "multi", Value: c.Multi},
	}
}

func (c *InsertCommand) Describe() bson.D {
	docs := make(bson.A, len(c.Documents))
	for i, d := range c.Documents {
		docs[i] = d
	}
	return bson.D{
		{Key: "kind", Value: string(dsl.KindInsert)},
		{Key: "parent_filter", Value: c.ParentFilter},
		{Key: "documents", Value: docs},
	}
}

// DescribeJSON renders Describe as indented JSON in native key order.
func DescribeJSON(c Command) ([]byte, error) {
	obj, err := FromDocument(c.Describe())
	if err != nil {
		return nil, err
	}
	raw, err := value.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
