package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValid(t *testing.T) {
	req := writeFile(t, "req.json", `{"$query": [{"$exists": "a"}, {"$eq": {"b": 1}, "$depth": 2}]}`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), req)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Valid select request: 2 query step(s), depth 3")
}

func TestValidateJSON(t *testing.T) {
	req := writeFile(t, "req.json", `{"$query": [{"$exists": "a"}, {"$eq": {"b": 1}, "$exactdepth": -1}]}`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), req)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Queries)
	// -1 resolves to the deepest legal level under the default ceiling.
	assert.Equal(t, 29, resp.Data.Depth)
	assert.NotEmpty(t, resp.Data.Fingerprint)
}

func TestValidateDoesNotCompile(t *testing.T) {
	// Unsupported operators are legal requests; only compiling rejects them.
	req := writeFile(t, "req.json", `{"$query": [{"$search": {"Title": "minutes"}}]}`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "--kind", "delete", req)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Valid delete request")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		request string
		want    string
	}{
		{"path not first", "select", `{"$query": [{"$exists": "a"}, {"$path": ["x"]}]}`, "MALFORMED_OPERATOR"},
		{"two depth arguments", "select", `{"$query": [{"$exists": "a", "$depth": 1, "$exactdepth": 2}]}`, "MALFORMED_OPERATOR"},
		{"unknown envelope key", "select", `{"$data": [{}]}`, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := writeFile(t, "req.json", tt.request)
			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "--kind", tt.kind, req)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp Response
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.want, resp.Error.Kind)
		})
	}
}
