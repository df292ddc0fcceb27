package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{})

	applyFlag := cmd.Flags().Lookup("apply")
	require.NotNil(t, applyFlag)
	assert.Equal(t, "false", applyFlag.DefValue)

	metricsFlag := cmd.Flags().Lookup("metrics")
	require.NotNil(t, metricsFlag)
	assert.Equal(t, "false", metricsFlag.DefValue)
}

// These fail before any connection to MongoDB is attempted.
func TestRunErrorsBeforeConnecting(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		request  string
		wantCode int
	}{
		{"apply on select", []string{"--apply"}, `{}`, ExitCommandError},
		{"invalid request", []string{"--kind", "update"}, `{"$action": []}`, ExitFailure},
		{"unknown kind", []string{"--kind", "upsert"}, `{}`, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := writeFile(t, "req.json", tt.request)
			_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), append(tt.args, req)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
		})
	}
}

func TestOutputRun(t *testing.T) {
	total := int64(7)
	affected := int64(2)
	tests := []struct {
		name string
		res  *RunResult
		want string
	}{
		{
			name: "select",
			res:  &RunResult{Kind: "select", Documents: []json.RawMessage{json.RawMessage(`{"_id":"u1"}`)}, Total: &total},
			want: "{\"_id\":\"u1\"}\n\n1 of 7 document(s)\n",
		},
		{
			name: "delete",
			res:  &RunResult{Kind: "delete", Affected: &affected},
			want: "✓ delete affected 2 document(s)\n",
		},
		{
			name: "insert",
			res:  &RunResult{Kind: "insert", IDs: []json.RawMessage{json.RawMessage(`"a"`), json.RawMessage(`"b"`)}},
			want: "✓ Inserted 2 document(s)\n  \"a\"\n  \"b\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, outputRun(&OutputFormatter{Format: "text", Writer: buf}, tt.res))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRenderNative(t *testing.T) {
	raw, err := renderNative(bson.D{{Key: "_id", Value: "u1"}, {Key: "N", Value: int32(3)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id": "u1", "N": 3}`, string(raw))

	_, err = renderNative(struct{}{})
	assert.Error(t, err)
}

func TestWriteMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_total", Help: "h"}, []string{"kind"})
	registry.MustRegister(counter)
	counter.WithLabelValues("select").Add(3)

	buf := &bytes.Buffer{}
	writeMetrics(buf, registry)
	assert.Equal(t, "test_total{kind=\"select\"} 3\n", buf.String())
}
