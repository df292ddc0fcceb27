// Package dsl defines the operator model of the archival metadata request
// language: the closed set of query and update operators, their wire tokens,
// and the request envelopes that carry them.
//
// ARCHITECTURE:
//
//	[wire JSON] → parser ─┐
//	                      ├→ [dsl envelope] → validate → querymongo → [bson]
//	[Go caller] → builder ┘
//
// dsl holds data only. It has no backend dependency and performs no I/O;
// readiness and structural checks live in package validate, native
// compilation in package querymongo.
//
// SEALED INTERFACES:
//
// Query, Action and Request are sealed with marker methods. Only types in
// this package implement them, so translators can switch exhaustively:
//
//	switch q := query.(type) {
//	case dsl.And, *dsl.And:
//	    // conjunction
//	case dsl.Unsupported, *dsl.Unsupported:
//	    // operator legal in the language but not on this backend
//	}
//
// Operators that a backend cannot serve (full-text, geo, similarity) are an
// explicit Unsupported variant rather than a fall-through branch.
//
// WIRE SHAPE:
//
// A query node is a single-operator object, optionally with depth
// arguments beside the operator:
//
//	{"$eq": {"Title": "X"}, "$depth": 2}
//
// An action node is a single-operator object:
//
//	{"$push": {"Tags": {"$each": ["a", "b"]}}}
package dsl
