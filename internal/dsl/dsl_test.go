package dsl

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/archdsl/internal/value"
)

func TestQuerySealed(t *testing.T) {
	var _ Query = And{}
	var _ Query = &Or{}
	var _ Query = Not{}
	var _ Query = Compare{}
	var _ Query = Membership{}
	var _ Query = Range{}
	var _ Query = Existence{}
	var _ Query = NullTest{}
	var _ Query = Regex{}
	var _ Query = Wildcard{}
	var _ Query = Term{}
	var _ Query = Size{}
	var _ Query = Path{}
	var _ Query = &Unsupported{}
}

func TestActionSealed(t *testing.T) {
	var _ Action = Set{}
	var _ Action = Unset{}
	var _ Action = &Numeric{}
	var _ Action = ListAction{}
	var _ Action = Pop{}
	var _ Action = Rename{}
}

func TestRequestSealed(t *testing.T) {
	var _ Request = &Select{}
	var _ Request = &Insert{}
	var _ Request = &Update{}
	var _ Request = &Delete{}
}

func TestQueryOp(t *testing.T) {
	tests := []struct {
		q    Query
		want Op
	}{
		{AllOf(), OpAnd},
		{AnyOf(), OpOr},
		{NoneOf(), OpNot},
		{Eq("a", value.Int(1)), OpEq},
		{Lte("a", value.Int(1)), OpLte},
		{Nin("a", value.Int(1)), OpNin},
		{Exists("a"), OpExists},
		{Missing("a"), OpMissing},
		{IsNull("a"), OpIsNull},
		{Between("a", value.Int(1), value.Int(2)), OpRange},
		{Wildcard{Field: "a", Pattern: "x*"}, OpWildcard},
		{PathOf("id"), OpPath},
		{Unsupported{Operator: OpMatch}, OpMatch},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Op())
		})
	}
}

func TestLookupOp(t *testing.T) {
	op, ok := LookupOp("$wildcard")
	assert.True(t, ok)
	assert.Equal(t, OpWildcard, op)
	assert.Equal(t, ShapeSinglePair, op.Shape())

	op, ok = LookupOp("$geoWithin")
	assert.True(t, ok)
	assert.True(t, op.Opaque())

	_, ok = LookupOp("$bogus")
	assert.False(t, ok)

	_, ok = LookupOp("$set")
	assert.False(t, ok, "action tokens are not query operators")
}

func TestLookupActionOp(t *testing.T) {
	op, ok := LookupActionOp("$unset")
	assert.True(t, ok)
	assert.Equal(t, ShapeValueList, op.Shape())

	_, ok = LookupActionOp("$eq")
	assert.False(t, ok)
}

func TestIsBoundKey(t *testing.T) {
	for _, k := range []string{"$gt", "$gte", "$lt", "$lte"} {
		assert.True(t, IsBoundKey(k), k)
	}
	assert.False(t, IsBoundKey("$eq"))
	assert.False(t, IsBoundKey("gt"))
}

func TestFieldOf(t *testing.T) {
	assert.Equal(t, "Title", FieldOf(Eq("Title", value.String("x"))))
	assert.Equal(t, "Title", FieldOf(&Regex{Field: "Title"}))
	assert.Equal(t, "Desc", FieldOf(Unsupported{Operator: OpMatch, Arg: value.Object{value.M("Desc", value.String("v"))}}))
	assert.Equal(t, "", FieldOf(AllOf(Exists("a"))))
	assert.Equal(t, "", FieldOf(Term{}))
}

func TestPopDirection(t *testing.T) {
	assert.True(t, PopFirst("a").First())
	assert.False(t, PopLast("a").First())
	assert.False(t, Pop{Field: "a", Direction: 0}.First())
}

func TestHeaderLast(t *testing.T) {
	var h Header
	_, ok := h.Last()
	assert.False(t, ok)

	h.Queries = []Step{{Query: Exists("a")}, {Query: Exists("b")}}
	q, ok := h.Last()
	assert.True(t, ok)
	assert.Equal(t, Exists("b"), q)
}

func TestError(t *testing.T) {
	err := Malformed("$eq", "", "expected a single pair, got %d", 2)
	assert.Equal(t, "MALFORMED_OPERATOR: expected a single pair, got 2 (token=$eq)", err.Error())

	wrapped := fmt.Errorf("parse query: %w", err)
	assert.True(t, IsMalformed(wrapped))
	assert.False(t, IsDepthExceeded(wrapped))
	assert.Equal(t, ErrMalformedOperator, KindOf(wrapped))

	full := &Error{Kind: ErrUnsupportedOperator, Token: "$match", Field: "Title", Message: "no mapping"}
	assert.Equal(t, "UNSUPPORTED_OPERATOR: no mapping (token=$match, field=Title)", full.Error())

	cause := errors.New("boom")
	withCause := &Error{Kind: ErrInvalidRequest, Message: "decode", Err: cause}
	assert.ErrorIs(t, withCause, cause)
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}

func TestDeref(t *testing.T) {
	size := &Size{Field: "Tags", Length: 2}
	assert.Equal(t, Size{Field: "Tags", Length: 2}, Deref(size))
	assert.Equal(t, Exists("a"), Deref(Exists("a")))

	pop := &Pop{Field: "Tags", Direction: -1}
	assert.Equal(t, PopFirst("Tags"), DerefAction(pop))
}

func TestDeref_NilPointers(t *testing.T) {
	queries := []Query{(*And)(nil), (*Compare)(nil), (*Range)(nil), (*Path)(nil), (*Unsupported)(nil)}
	for _, q := range queries {
		assert.Nil(t, Deref(q), "%T", q)
	}
	actions := []Action{(*Set)(nil), (*ListAction)(nil), (*Rename)(nil)}
	for _, a := range actions {
		assert.Nil(t, DerefAction(a), "%T", a)
	}
	assert.Nil(t, Deref(nil))
}
