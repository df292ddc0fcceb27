package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/value"
)

func TestMarshal_Envelopes(t *testing.T) {
	tests := []struct {
		name string
		r    dsl.Request
		want string
	}{
		{
			name: "select",
			r: &dsl.Select{
				Header: dsl.Header{
					Roots:   []string{"id1"},
					Queries: []dsl.Step{{Query: dsl.Eq("Title", value.String("X")), Mode: dsl.DepthRelative, Depth: 2}},
					Filter:  dsl.Filter{Limit: 5},
				},
				Projection: dsl.Projection{Usage: "draft"},
			},
			want: `{"$roots": ["id1"], "$query": [{"$eq": {"Title": "X"}, "$depth": 2}], "$filter": {"$limit": 5}, "$projection": {"$usage": "draft"}}`,
		},
		{
			name: "update",
			r: &dsl.Update{
				Header:  dsl.Header{Filter: dsl.Filter{Mult: true}},
				Actions: []dsl.Action{dsl.Push("Tags")},
			},
			want: `{"$roots": [], "$query": [], "$filter": {"$mult": true}, "$action": [{"$push": {"Tags": {"$each": []}}}]}`,
		},
		{
			name: "insert",
			r:    &dsl.Insert{Data: []value.Object{nil}},
			want: `{"$roots": [], "$query": [], "$filter": {}, "$data": [{}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.r)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestRender_NilNodes(t *testing.T) {
	_, err := RenderQuery((*dsl.Compare)(nil))
	assert.Equal(t, dsl.ErrNodeNotReady, dsl.KindOf(err))

	_, err = RenderQuery(dsl.AllOf(dsl.Exists("a"), nil))
	assert.Equal(t, dsl.ErrNodeNotReady, dsl.KindOf(err))

	_, err = RenderAction((*dsl.Set)(nil))
	assert.Equal(t, dsl.ErrNodeNotReady, dsl.KindOf(err))

	_, err = Render(nil)
	assert.Equal(t, dsl.ErrInvalidRequest, dsl.KindOf(err))
}

func TestFingerprint_IgnoresKeyOrder(t *testing.T) {
	doc := func(members ...value.Member) dsl.Request {
		return &dsl.Insert{Data: []value.Object{members}}
	}
	first, err := Fingerprint(doc(value.M("a", value.Int(1)), value.M("b", value.String("x"))))
	require.NoError(t, err)
	second, err := Fingerprint(doc(value.M("b", value.String("x")), value.M("a", value.Int(1))))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
}
