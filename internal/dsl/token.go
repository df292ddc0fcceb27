package dsl

// Envelope keys.
const (
	KeyRoots      = "$roots"
	KeyQuery      = "$query"
	KeyFilter     = "$filter"
	KeyProjection = "$projection"
	KeyAction     = "$action"
	KeyData       = "$data"
)

// Filter keys.
const (
	KeyLimit   = "$limit"
	KeyOffset  = "$offset"
	KeyOrderBy = "$orderby"
	KeyHint    = "$hint"
	KeyMult    = "$mult"
)

// Projection keys.
const (
	KeyFields = "$fields"
	KeyUsage  = "$usage"
)

// Query step and action argument keys.
const (
	KeyExactDepth = "$exactdepth"
	KeyDepth      = "$depth"
	KeyEach       = "$each"
)

// Hints accepted in $filter.$hint.
const (
	HintCache        = "cache"
	HintNoCache      = "nocache"
	HintNoTimeout    = "notimeout"
	HintUnits        = "units"
	HintObjectGroups = "objectgroups"
	HintObjects      = "objects"
)

// Op is the wire token of a query operator.
type Op string

const (
	OpAnd      Op = "$and"
	OpOr       Op = "$or"
	OpNot      Op = "$not"
	OpExists   Op = "$exists"
	OpMissing  Op = "$missing"
	OpIsNull   Op = "$isNull"
	OpIn       Op = "$in"
	OpNin      Op = "$nin"
	OpSize     Op = "$size"
	OpGt       Op = "$gt"
	OpLt       Op = "$lt"
	OpGte      Op = "$gte"
	OpLte      Op = "$lte"
	OpNe       Op = "$ne"
	OpEq       Op = "$eq"
	OpRange    Op = "$range"
	OpRegex    Op = "$regex"
	OpTerm     Op = "$term"
	OpWildcard Op = "$wildcard"
	OpPath     Op = "$path"

	// Legal in the language, served only by search backends.
	OpGeometry          Op = "$geometry"
	OpBox               Op = "$box"
	OpPolygon           Op = "$polygon"
	OpCenter            Op = "$center"
	OpGeoWithin         Op = "$geoWithin"
	OpGeoIntersects     Op = "$geoIntersects"
	OpNear              Op = "$near"
	OpMatch             Op = "$match"
	OpMatchPhrase       Op = "$match_phrase"
	OpMatchPhrasePrefix Op = "$match_phrase_prefix"
	OpPrefix            Op = "$prefix"
	OpFLT               Op = "$flt"
	OpMLT               Op = "$mlt"
	OpSearch            Op = "$search"
)

// Range bound keys.
const (
	BoundGt  = string(OpGt)
	BoundGte = string(OpGte)
	BoundLt  = string(OpLt)
	BoundLte = string(OpLte)
)

// IsBoundKey reports whether key is one of the four recognized range bounds.
func IsBoundKey(key string) bool {
	switch key {
	case BoundGt, BoundGte, BoundLt, BoundLte:
		return true
	default:
		return false
	}
}

// Shape describes the argument an operator expects on the wire.
type Shape int

const (
	// ShapeQueryList is a non-empty array of query nodes.
	ShapeQueryList Shape = iota
	// ShapeFieldName is a bare field name string.
	ShapeFieldName
	// ShapeSinglePair is an object with exactly one field entry.
	ShapeSinglePair
	// ShapeMultiPair is an object with one or more field entries.
	ShapeMultiPair
	// ShapeValueList is a non-empty array of scalar values or identifiers.
	ShapeValueList
	// ShapeOpaque is any JSON value, kept verbatim.
	ShapeOpaque
)

func (s Shape) String() string {
	switch s {
	case ShapeQueryList:
		return "array of query nodes"
	case ShapeFieldName:
		return "field name"
	case ShapeSinglePair:
		return "single-pair object"
	case ShapeMultiPair:
		return "object"
	case ShapeValueList:
		return "array"
	case ShapeOpaque:
		return "any"
	default:
		return "unknown"
	}
}

var opShapes = map[Op]Shape{
	OpAnd:      ShapeQueryList,
	OpOr:       ShapeQueryList,
	OpNot:      ShapeQueryList,
	OpExists:   ShapeFieldName,
	OpMissing:  ShapeFieldName,
	OpIsNull:   ShapeFieldName,
	OpIn:       ShapeSinglePair,
	OpNin:      ShapeSinglePair,
	OpSize:     ShapeSinglePair,
	OpGt:       ShapeSinglePair,
	OpLt:       ShapeSinglePair,
	OpGte:      ShapeSinglePair,
	OpLte:      ShapeSinglePair,
	OpNe:       ShapeSinglePair,
	OpEq:       ShapeSinglePair,
	OpRange:    ShapeSinglePair,
	OpRegex:    ShapeSinglePair,
	OpWildcard: ShapeSinglePair,
	OpTerm:     ShapeMultiPair,
	OpPath:     ShapeValueList,

	OpGeometry:          ShapeOpaque,
	OpBox:               ShapeOpaque,
	OpPolygon:           ShapeOpaque,
	OpCenter:            ShapeOpaque,
	OpGeoWithin:         ShapeOpaque,
	OpGeoIntersects:     ShapeOpaque,
	OpNear:              ShapeOpaque,
	OpMatch:             ShapeOpaque,
	OpMatchPhrase:       ShapeOpaque,
	OpMatchPhrasePrefix: ShapeOpaque,
	OpPrefix:            ShapeOpaque,
	OpFLT:               ShapeOpaque,
	OpMLT:               ShapeOpaque,
	OpSearch:            ShapeOpaque,
}

// LookupOp resolves a wire token to a query operator.
func LookupOp(token string) (Op, bool) {
	op := Op(token)
	_, ok := opShapes[op]
	return op, ok
}

// Shape returns the argument shape expected by op.
func (op Op) Shape() Shape {
	return opShapes[op]
}

// Opaque reports whether op carries a verbatim argument that no
// document-store translation exists for.
func (op Op) Opaque() bool {
	return opShapes[op] == ShapeOpaque
}

// IsComparison reports whether op is one of EQ, NE, GT, GTE, LT, LTE.
func (op Op) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
		return true
	default:
		return false
	}
}

// ActionOp is the wire token of an update action.
type ActionOp string

const (
	ActSet    ActionOp = "$set"
	ActUnset  ActionOp = "$unset"
	ActInc    ActionOp = "$inc"
	ActMin    ActionOp = "$min"
	ActMax    ActionOp = "$max"
	ActRename ActionOp = "$rename"
	ActPush   ActionOp = "$push"
	ActPull   ActionOp = "$pull"
	ActAdd    ActionOp = "$add"
	ActPop    ActionOp = "$pop"
)

var actionShapes = map[ActionOp]Shape{
	ActSet:    ShapeMultiPair,
	ActUnset:  ShapeValueList,
	ActInc:    ShapeSinglePair,
	ActMin:    ShapeSinglePair,
	ActMax:    ShapeSinglePair,
	ActRename: ShapeSinglePair,
	ActPush:   ShapeSinglePair,
	ActPull:   ShapeSinglePair,
	ActAdd:    ShapeSinglePair,
	ActPop:    ShapeSinglePair,
}

// LookupActionOp resolves a wire token to an update action.
func LookupActionOp(token string) (ActionOp, bool) {
	op := ActionOp(token)
	_, ok := actionShapes[op]
	return op, ok
}

// Shape returns the argument shape expected by op.
func (op ActionOp) Shape() Shape {
	return actionShapes[op]
}
