package inmemory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/value"
)

func unit() value.Object {
	return value.Object{
		value.M("_id", value.String("id1")),
		value.M("Title", value.String("T1")),
		value.M("N", value.Int(2)),
		value.M("Tags", value.Array{value.String("a"), value.String("b"), value.String("a")}),
		value.M("Mgt", value.Object{value.M("Rule", value.String("R1"))}),
		value.M("Empty", value.Null{}),
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	doc := unit()
	_, _, err := Apply(doc, []dsl.Action{dsl.SetFields(value.M("Title", value.String("T2")))})
	require.NoError(t, err)
	assert.True(t, value.Equal(unit(), doc))
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		action dsl.Action
		field  string
		want   value.Value
		absent bool
	}{
		{name: "set", action: dsl.SetFields(value.M("Title", value.String("T2"))), field: "Title", want: value.String("T2")},
		{name: "set dotted creates objects", action: dsl.SetFields(value.M("New.Sub", value.Int(1))), field: "New.Sub", want: value.Int(1)},
		{name: "set dotted into existing", action: dsl.SetFields(value.M("Mgt.Rule", value.String("R2"))), field: "Mgt.Rule", want: value.String("R2")},
		{name: "unset", action: dsl.UnsetFields("Title"), field: "Title", absent: true},
		{name: "unset missing is ignored", action: dsl.UnsetFields("Nope"), field: "Nope", absent: true},
		{name: "inc int", action: dsl.Inc("N", value.Int(3)), field: "N", want: value.Int(5)},
		{name: "inc float", action: dsl.Inc("N", value.Float(0.5)), field: "N", want: value.Float(2.5)},
		{name: "min lower", action: dsl.Min("N", value.Int(1)), field: "N", want: value.Int(1)},
		{name: "min higher keeps", action: dsl.Min("N", value.Int(9)), field: "N", want: value.Int(2)},
		{name: "max", action: dsl.Max("N", value.Int(9)), field: "N", want: value.Int(9)},
		{name: "push", action: dsl.Push("Tags", value.String("c")), field: "Tags",
			want: value.Array{value.String("a"), value.String("b"), value.String("a"), value.String("c")}},
		{name: "push onto null", action: dsl.Push("Empty", value.Int(1)), field: "Empty", want: value.Array{value.Int(1)}},
		{name: "push onto missing", action: dsl.Push("Other", value.Int(1)), field: "Other", want: value.Array{value.Int(1)}},
		{name: "add skips present", action: dsl.Add("Tags", value.String("a"), value.String("z"), value.String("z")), field: "Tags",
			want: value.Array{value.String("a"), value.String("b"), value.String("a"), value.String("z")}},
		{name: "pull removes every match", action: dsl.Pull("Tags", value.String("a")), field: "Tags", want: value.Array{value.String("b")}},
		{name: "pop first", action: dsl.PopFirst("Tags"), field: "Tags", want: value.Array{value.String("b"), value.String("a")}},
		{name: "pop last", action: dsl.PopLast("Tags"), field: "Tags", want: value.Array{value.String("a"), value.String("b")}},
		{name: "pop two from head", action: dsl.Pop{Field: "Tags", Direction: -2}, field: "Tags", want: value.Array{value.String("a")}},
		{name: "pop zero is a no-op", action: dsl.Pop{Field: "Tags"}, field: "Tags",
			want: value.Array{value.String("a"), value.String("b"), value.String("a")}},
		{name: "rename", action: dsl.RenameField("Title", "Name"), field: "Name", want: value.String("T1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fields, err := Apply(unit(), []dsl.Action{tt.action})
			require.NoError(t, err)
			assert.NotEmpty(t, fields)

			got, ok := get(out, tt.field)
			if tt.absent {
				assert.False(t, ok, "field %s still present: %v", tt.field, got)
				return
			}
			require.True(t, ok, "field %s missing", tt.field)
			assert.True(t, value.Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestApply_RenameRemovesSource(t *testing.T) {
	out, fields, err := Apply(unit(), []dsl.Action{dsl.RenameField("Title", "Name")})
	require.NoError(t, err)
	_, ok := out.Get("Title")
	assert.False(t, ok)
	assert.Equal(t, []string{"Title", "Name"}, fields)
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name   string
		action dsl.Action
	}{
		{"inc on string", dsl.Inc("Title", value.Int(1))},
		{"inc on missing", dsl.Inc("Nope", value.Int(1))},
		{"inc with string", dsl.Inc("N", value.String("1"))},
		{"push on scalar", dsl.Push("Title", value.Int(1))},
		{"pop too many", dsl.Pop{Field: "Tags", Direction: 4}},
		{"rename missing", dsl.RenameField("Nope", "Other")},
		{"set through scalar", dsl.SetFields(value.M("Title.Sub", value.Int(1)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := Apply(unit(), []dsl.Action{tt.action})
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, dsl.ErrInvalidAction, dsl.KindOf(err), "%v", err)
		})
	}
}

func TestApply_FieldsListedOnce(t *testing.T) {
	_, fields, err := Apply(unit(), []dsl.Action{
		dsl.SetFields(value.M("Title", value.String("T2"))),
		dsl.UnsetFields("OldField"),
		dsl.SetFields(value.M("Title", value.String("T3"))),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "OldField"}, fields)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		q    dsl.Query
		want bool
	}{
		{"eq", dsl.Eq("Title", value.String("T1")), true},
		{"eq array element", dsl.Eq("Tags", value.String("b")), true},
		{"eq null matches missing", dsl.Eq("Nope", value.Null{}), true},
		{"ne", dsl.Ne("Title", value.String("T1")), false},
		{"gt", dsl.Gt("N", value.Int(1)), true},
		{"gt float", dsl.Gt("N", value.Float(2.5)), false},
		{"lte", dsl.Lte("N", value.Int(2)), true},
		{"gt across kinds", dsl.Gt("Title", value.Int(1)), false},
		{"in", dsl.In("Tags", value.String("x"), value.String("a")), true},
		{"nin", dsl.Nin("Title", value.String("T1")), false},
		{"range", dsl.Between("N", value.Int(2), value.Int(3)), true},
		{"range excludes upper", dsl.Between("N", value.Int(0), value.Int(2)), false},
		{"exists", dsl.Exists("Mgt.Rule"), true},
		{"exists null field", dsl.Exists("Empty"), true},
		{"missing", dsl.Missing("Nope"), true},
		{"isNull", dsl.IsNull("Empty"), true},
		{"isNull missing", dsl.IsNull("Nope"), false},
		{"regex", dsl.Regex{Field: "Title", Pattern: "^T\\d$"}, true},
		{"wildcard", dsl.Wildcard{Field: "Title", Pattern: "T?"}, true},
		{"wildcard star", dsl.Wildcard{Field: "Mgt.Rule", Pattern: "R*"}, true},
		{"term", dsl.Term{Pairs: []dsl.Pair{{Field: "Title", Value: value.String("T1")}, {Field: "N", Value: value.Float(2)}}}, true},
		{"size", dsl.Size{Field: "Tags", Length: 3}, true},
		{"path", dsl.PathOf("id0", "id1"), true},
		{"path miss", dsl.PathOf("id0"), false},
		{"and", dsl.AllOf(dsl.Exists("Title"), dsl.Eq("N", value.Int(2))), true},
		{"or", dsl.AnyOf(dsl.Missing("Title"), dsl.Eq("N", value.Int(2))), true},
		{"not one", dsl.NoneOf(dsl.Exists("Title")), false},
		{"not conjunction", dsl.NoneOf(dsl.Exists("Title"), dsl.Missing("Title")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.q, unit())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch_Errors(t *testing.T) {
	_, err := Match(dsl.Unsupported{Operator: dsl.OpSearch, Arg: value.String("x")}, unit())
	assert.True(t, dsl.IsUnsupported(err))

	_, err = Match(dsl.Range{Field: "N", Bounds: []dsl.Bound{{Key: "$ne", Value: value.Int(1)}}}, unit())
	assert.True(t, dsl.IsUnrecognizedBound(err))

	_, err = Match(dsl.Regex{Field: "Title", Pattern: "("}, unit())
	assert.True(t, dsl.IsMalformed(err))
}

func TestMatcher_IDField(t *testing.T) {
	doc := value.Object{value.M("#id", value.String("x"))}
	ok, err := NewMatcher("#id").Match(dsl.PathOf("x"), doc)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDiff(t *testing.T) {
	before := value.Object{value.M("Title", value.String("T1")), value.M("N", value.Int(1))}
	after, _, err := Apply(before, []dsl.Action{
		dsl.SetFields(value.M("Title", value.String("T2"))),
	})
	require.NoError(t, err)

	lines, err := Diff(before, after)
	require.NoError(t, err)
	assert.Equal(t, []string{`-  "Title": "T1"`, `+  "Title": "T2"`}, lines)

	lines, err = Diff(before, before)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
