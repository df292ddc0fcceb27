package dsl

import "github.com/roach88/archdsl/internal/value"

// Action is one update mutation of an Update request.
//
// This is a sealed interface - only types in this package implement it.
//
// Action types:
//   - Set: assign several fields
//   - Unset: remove fields
//   - Numeric: INC, MIN, MAX on one field
//   - ListAction: PUSH, PULL, ADD on one array field
//   - Pop: remove the first or last element of an array field
//   - Rename: move a field to a new name
type Action interface {
	Op() ActionOp
	actionNode() // Marker method - seals interface to this package
}

// Set assigns each member's value to the member's field.
//
//	{"$set": {"Title": "T2", "Description": "..."}}
type Set struct {
	Fields value.Object
}

func (Set) Op() ActionOp { return ActSet }
func (Set) actionNode() {}

// Unset removes the listed fields.
//
//	{"$unset": ["OldField", "Other"]}
type Unset struct {
	Fields []string
}

func (Unset) Op() ActionOp { return ActUnset }
func (Unset) actionNode() {}

// Numeric applies INC (add Value), MIN (keep the smaller) or MAX (keep the
// larger) to a numeric field.
//
//	{"$inc": {"Version": 1}}
type Numeric struct {
	Operator ActionOp
	Field    string
	Value    value.Value
}

func (n Numeric) Op() ActionOp { return n.Operator }
func (Numeric) actionNode() {}

// ListAction applies PUSH (append each), PULL (remove every element equal
// to any of Values) or ADD (append each value not already present).
//
//	{"$push": {"Tags": {"$each": ["a", "b"]}}}
type ListAction struct {
	Operator ActionOp
	Field    string
	Values   value.Array
}

func (l ListAction) Op() ActionOp { return l.Operator }
func (ListAction) actionNode() {}

// Pop removes the first element when Direction is negative and the last
// element otherwise.
//
//	{"$pop": {"Tags": -1}}
type Pop struct {
	Field     string
	Direction int64
}

func (Pop) Op() ActionOp { return ActPop }
func (Pop) actionNode() {}

// First reports whether the pop removes from the head of the array.
func (p Pop) First() bool { return p.Direction < 0 }

// Rename moves Field to NewName.
//
//	{"$rename": {"Title": "Name"}}
type Rename struct {
	Field   string
	NewName string
}

func (Rename) Op() ActionOp { return ActRename }
func (Rename) actionNode() {}

// SetFields builds a $set over the given members.
func SetFields(members ...value.Member) Set { return Set{Fields: value.Object(members)} }

// UnsetFields builds an $unset over the given fields.
func UnsetFields(fields ...string) Unset { return Unset{Fields: fields} }

// Inc builds {"$inc": {field: v}}.
func Inc(field string, v value.Value) Numeric {
	return Numeric{Operator: ActInc, Field: field, Value: v}
}

// Min builds {"$min": {field: v}}.
func Min(field string, v value.Value) Numeric {
	return Numeric{Operator: ActMin, Field: field, Value: v}
}

// Max builds {"$max": {field: v}}.
func Max(field string, v value.Value) Numeric {
	return Numeric{Operator: ActMax, Field: field, Value: v}
}

// Push builds {"$push": {field: {"$each": [vs...]}}}.
func Push(field string, vs ...value.Value) ListAction {
	return ListAction{Operator: ActPush, Field: field, Values: vs}
}

// Pull builds {"$pull": {field: {"$each": [vs...]}}}.
func Pull(field string, vs ...value.Value) ListAction {
	return ListAction{Operator: ActPull, Field: field, Values: vs}
}

// Add builds {"$add": {field: {"$each": [vs...]}}}.
func Add(field string, vs ...value.Value) ListAction {
	return ListAction{Operator: ActAdd, Field: field, Values: vs}
}

// PopFirst builds {"$pop": {field: -1}}.
func PopFirst(field string) Pop { return Pop{Field: field, Direction: -1} }

// PopLast builds {"$pop": {field: 1}}.
func PopLast(field string) Pop { return Pop{Field: field, Direction: 1} }

// RenameField builds {"$rename": {field: newName}}.
func RenameField(field, newName string) Rename { return Rename{Field: field, NewName: newName} }

// ActionField returns the single field an action targets, or "" for Set
// and Unset which may name several.
func ActionField(a Action) string {
	switch n := a.(type) {
	case Numeric:
		return n.Field
	case *Numeric:
		return n.Field
	case ListAction:
		return n.Field
	case *ListAction:
		return n.Field
	case Pop:
		return n.Field
	case *Pop:
		return n.Field
	case Rename:
		return n.Field
	case *Rename:
		return n.Field
	default:
		return ""
	}
}
