package validate

import (
	"fmt"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/value"
)

// SinglePair enforces unicity: arg must be an object with exactly one
// entry. Every leaf taking one (field, value) pair goes through here.
func SinglePair(token string, arg value.Value) (value.Member, error) {
	obj, ok := arg.(value.Object)
	if !ok {
		return value.Member{}, dsl.Malformed(token, "", "expected a single-pair object, got %s", value.TypeName(arg))
	}
	if len(obj) != 1 {
		return value.Member{}, dsl.Malformed(token, "", "expected exactly one field, got %d", len(obj))
	}
	if obj[0].Key == "" {
		return value.Member{}, dsl.Malformed(token, "", "empty field name")
	}
	return obj[0], nil
}

// Pairs requires arg to be an object with at least one entry.
func Pairs(token string, arg value.Value) (value.Object, error) {
	obj, ok := arg.(value.Object)
	if !ok {
		return nil, dsl.Malformed(token, "", "expected an object, got %s", value.TypeName(arg))
	}
	if len(obj) == 0 {
		return nil, dsl.Malformed(token, "", "expected at least one field")
	}
	for _, m := range obj {
		if m.Key == "" {
			return nil, dsl.Malformed(token, "", "empty field name")
		}
	}
	return obj, nil
}

// FieldName requires arg to be a non-empty string.
func FieldName(token string, arg value.Value) (string, error) {
	s, ok := arg.(value.String)
	if !ok {
		return "", dsl.Malformed(token, "", "expected a field name, got %s", value.TypeName(arg))
	}
	if s == "" {
		return "", dsl.Malformed(token, "", "empty field name")
	}
	return string(s), nil
}

// Scalar coerces a wire value into a canonical scalar. Arrays and
// objects are rejected.
func Scalar(token, field string, v value.Value) (value.Value, error) {
	if v == nil {
		return nil, dsl.Malformed(token, field, "missing value")
	}
	if !value.IsScalar(v) {
		return nil, dsl.Malformed(token, field, "expected a scalar value, got %s", value.TypeName(v))
	}
	return v, nil
}

// Scalars coerces a non-empty wire array into canonical scalars.
func Scalars(token, field string, v value.Value) ([]value.Value, error) {
	arr, ok := v.(value.Array)
	if !ok {
		return nil, dsl.Malformed(token, field, "expected an array, got %s", value.TypeName(v))
	}
	if len(arr) == 0 {
		return nil, dsl.Malformed(token, field, "expected at least one value")
	}
	out := make([]value.Value, len(arr))
	for i, elem := range arr {
		s, err := Scalar(token, field, elem)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Integer requires an integral number.
func Integer(token, field string, v value.Value) (int64, error) {
	switch n := v.(type) {
	case value.Int:
		return int64(n), nil
	case value.Float:
		if float64(n) == float64(int64(n)) {
			return int64(n), nil
		}
	}
	return 0, dsl.Malformed(token, field, "expected an integer, got %s", value.TypeName(v))
}

// CheckQuery reports NODE_NOT_READY for nodes with required parts left
// empty and MALFORMED_OPERATOR for values of the wrong type. Composites
// are checked recursively and fail on the first bad child.
//
// Unrecognized range bound keys are left for the translator.
func CheckQuery(q dsl.Query) error {
	switch n := dsl.Deref(q).(type) {
	case nil:
		return &dsl.Error{Kind: dsl.ErrNodeNotReady, Message: "nil query"}
	case dsl.And:
		return checkChildren(n.Op(), n.Children)
	case dsl.Or:
		return checkChildren(n.Op(), n.Children)
	case dsl.Not:
		return checkChildren(n.Op(), n.Children)
	case dsl.Compare:
		return checkCompare(n)
	case dsl.Membership:
		return checkMembership(n)
	case dsl.Range:
		return checkRange(n)
	case dsl.Existence:
		return needField(n.Op(), n.Field)
	case dsl.NullTest:
		return needField(n.Op(), n.Field)
	case dsl.Regex:
		return checkPattern(n.Op(), n.Field, n.Pattern)
	case dsl.Wildcard:
		return checkPattern(n.Op(), n.Field, n.Pattern)
	case dsl.Term:
		return checkTerm(n)
	case dsl.Size:
		return checkSize(n)
	case dsl.Path:
		return checkPath(n)
	case dsl.Unsupported:
		return checkUnsupported(n)
	default:
		return &dsl.Error{Kind: dsl.ErrNodeNotReady, Message: fmt.Sprintf("unknown query type %T", q)}
	}
}

func notReady(op dsl.Op, field, format string, args ...any) *dsl.Error {
	return dsl.NewError(dsl.ErrNodeNotReady, string(op), field, format, args...)
}

func needField(op dsl.Op, field string) error {
	if field == "" {
		return notReady(op, "", "field is required")
	}
	return nil
}

func checkChildren(op dsl.Op, children []dsl.Query) error {
	if len(children) == 0 {
		return notReady(op, "", "at least one child query is required")
	}
	for i, c := range children {
		if err := CheckQuery(c); err != nil {
			return fmt.Errorf("%s[%d]: %w", op, i, err)
		}
	}
	return nil
}

func checkCompare(c dsl.Compare) error {
	if !c.Operator.IsComparison() {
		return notReady(c.Operator, c.Field, "not a comparison operator")
	}
	if err := needField(c.Operator, c.Field); err != nil {
		return err
	}
	_, err := Scalar(string(c.Operator), c.Field, c.Value)
	return err
}

func checkMembership(m dsl.Membership) error {
	if m.Operator != dsl.OpIn && m.Operator != dsl.OpNin {
		return notReady(m.Operator, m.Field, "not a membership operator")
	}
	if err := needField(m.Operator, m.Field); err != nil {
		return err
	}
	if len(m.Values) == 0 {
		return notReady(m.Operator, m.Field, "at least one value is required")
	}
	for i, v := range m.Values {
		if _, err := Scalar(string(m.Operator), m.Field, v); err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
	}
	return nil
}

func checkRange(r dsl.Range) error {
	if err := needField(dsl.OpRange, r.Field); err != nil {
		return err
	}
	if len(r.Bounds) == 0 {
		return notReady(dsl.OpRange, r.Field, "at least one bound is required")
	}
	for _, b := range r.Bounds {
		if _, err := Scalar(b.Key, r.Field, b.Value); err != nil {
			return err
		}
	}
	return nil
}

func checkPattern(op dsl.Op, field, pattern string) error {
	if err := needField(op, field); err != nil {
		return err
	}
	if pattern == "" {
		return notReady(op, field, "pattern is required")
	}
	return nil
}

func checkTerm(t dsl.Term) error {
	if len(t.Pairs) == 0 {
		return notReady(dsl.OpTerm, "", "at least one field is required")
	}
	for _, p := range t.Pairs {
		if err := needField(dsl.OpTerm, p.Field); err != nil {
			return err
		}
		if _, err := Scalar(string(dsl.OpTerm), p.Field, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func checkSize(s dsl.Size) error {
	if err := needField(dsl.OpSize, s.Field); err != nil {
		return err
	}
	if s.Length < 0 {
		return dsl.Malformed(string(dsl.OpSize), s.Field, "size must be >= 0, got %d", s.Length)
	}
	return nil
}

func checkPath(p dsl.Path) error {
	if len(p.IDs) == 0 {
		return notReady(dsl.OpPath, "", "at least one identifier is required")
	}
	for i, id := range p.IDs {
		if id == "" {
			return notReady(dsl.OpPath, "", "identifier %d is empty", i)
		}
	}
	return nil
}

func checkUnsupported(u dsl.Unsupported) error {
	if !u.Operator.Opaque() {
		return notReady(u.Operator, "", "operator has a native form and cannot be held as unsupported")
	}
	if u.Arg == nil {
		return notReady(u.Operator, "", "argument is required")
	}
	return nil
}

// CheckAction reports NODE_NOT_READY or MALFORMED_OPERATOR for an update
// action, like CheckQuery.
func CheckAction(a dsl.Action) error {
	switch n := dsl.DerefAction(a).(type) {
	case nil:
		return &dsl.Error{Kind: dsl.ErrNodeNotReady, Message: "nil action"}
	case dsl.Set:
		return checkSet(n)
	case dsl.Unset:
		return checkUnset(n)
	case dsl.Numeric:
		return checkNumeric(n)
	case dsl.ListAction:
		return checkList(n)
	case dsl.Pop:
		return needActionField(dsl.ActPop, n.Field)
	case dsl.Rename:
		return checkRename(n)
	default:
		return &dsl.Error{Kind: dsl.ErrNodeNotReady, Message: fmt.Sprintf("unknown action type %T", a)}
	}
}

func needActionField(op dsl.ActionOp, field string) error {
	if field == "" {
		return dsl.NewError(dsl.ErrNodeNotReady, string(op), "", "field is required")
	}
	return nil
}

func checkSet(s dsl.Set) error {
	if len(s.Fields) == 0 {
		return dsl.NewError(dsl.ErrNodeNotReady, string(dsl.ActSet), "", "at least one field is required")
	}
	for _, m := range s.Fields {
		if err := needActionField(dsl.ActSet, m.Key); err != nil {
			return err
		}
		if m.Value == nil {
			return dsl.NewError(dsl.ErrNodeNotReady, string(dsl.ActSet), m.Key, "value is required")
		}
	}
	return nil
}

func checkUnset(u dsl.Unset) error {
	if len(u.Fields) == 0 {
		return dsl.NewError(dsl.ErrNodeNotReady, string(dsl.ActUnset), "", "at least one field is required")
	}
	for _, f := range u.Fields {
		if err := needActionField(dsl.ActUnset, f); err != nil {
			return err
		}
	}
	return nil
}

func checkNumeric(n dsl.Numeric) error {
	switch n.Operator {
	case dsl.ActInc, dsl.ActMin, dsl.ActMax:
	default:
		return dsl.NewError(dsl.ErrNodeNotReady, string(n.Operator), n.Field, "not a numeric action")
	}
	if err := needActionField(n.Operator, n.Field); err != nil {
		return err
	}
	if !value.IsNumber(n.Value) {
		return dsl.Malformed(string(n.Operator), n.Field, "expected a number, got %s", value.TypeName(n.Value))
	}
	return nil
}

func checkList(l dsl.ListAction) error {
	switch l.Operator {
	case dsl.ActPush, dsl.ActPull, dsl.ActAdd:
	default:
		return dsl.NewError(dsl.ErrNodeNotReady, string(l.Operator), l.Field, "not a list action")
	}
	if err := needActionField(l.Operator, l.Field); err != nil {
		return err
	}
	if l.Values == nil {
		return dsl.NewError(dsl.ErrNodeNotReady, string(l.Operator), l.Field, "values are required")
	}
	return nil
}

func checkRename(r dsl.Rename) error {
	if err := needActionField(dsl.ActRename, r.Field); err != nil {
		return err
	}
	if r.NewName == "" {
		return dsl.NewError(dsl.ErrNodeNotReady, string(dsl.ActRename), r.Field, "new name is required")
	}
	if r.NewName == r.Field {
		return dsl.Malformed(string(dsl.ActRename), r.Field, "new name equals the source field")
	}
	return nil
}
