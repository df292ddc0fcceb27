package mongostore

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/querymongo"
	"github.com/roach88/archdsl/internal/value"
)

func TestRegisterMetrics(t *testing.T) {
	// Only checks that the metric definitions are valid.
	registry := prometheus.NewRegistry()
	MustRegisterMetrics(registry)
}

func resolveFind(t *testing.T, b *options.FindOptionsBuilder) options.FindOptions {
	t.Helper()
	var fo options.FindOptions
	for _, set := range b.List() {
		require.NoError(t, set(&fo))
	}
	return fo
}

func TestFindOptions(t *testing.T) {
	cmd := &querymongo.SelectCommand{
		Sort:       bson.D{{Key: "Title", Value: int32(1)}},
		Projection: bson.D{{Key: "Title", Value: int32(1)}},
		Skip:       5,
		Limit:      10,
		Hints:      []string{dsl.HintNoCache, dsl.HintNoTimeout},
	}
	fo := resolveFind(t, findOptions(cmd))

	require.NotNil(t, fo.Skip)
	require.NotNil(t, fo.Limit)
	require.NotNil(t, fo.NoCursorTimeout)
	assert.Equal(t, int64(5), *fo.Skip)
	assert.Equal(t, int64(10), *fo.Limit)
	assert.True(t, *fo.NoCursorTimeout)
	assert.Equal(t, cmd.Sort, fo.Sort)
	assert.Equal(t, cmd.Projection, fo.Projection)
}

func TestFindOptions_Empty(t *testing.T) {
	fo := resolveFind(t, findOptions(&querymongo.SelectCommand{}))
	assert.Nil(t, fo.Skip)
	assert.Nil(t, fo.Limit)
	assert.Nil(t, fo.Sort)
	assert.Nil(t, fo.Projection)
	assert.Nil(t, fo.NoCursorTimeout)
}

func TestReadVersion(t *testing.T) {
	tests := []struct {
		name    string
		doc     value.Object
		want    int64
		wantErr bool
	}{
		{"absent", value.Object{}, 0, false},
		{"set", value.Object{value.M("_v", value.Int(4))}, 4, false},
		{"not an integer", value.Object{value.M("_v", value.String("4"))}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readVersion(tt.doc, "_v")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionTest(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "$exists", Value: false}}, versionTest(value.Object{}, "_v", 0))
	assert.Equal(t, int64(3), versionTest(value.Object{value.M("_v", value.Int(3))}, "_v", 3))
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "abc", idString(value.String("abc")))
	assert.Equal(t, "12", idString(value.Int(12)))
}
