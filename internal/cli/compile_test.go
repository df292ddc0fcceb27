package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectRequest = `{
  "$roots": ["u1"],
  "$query": [{"$eq": {"Title": "T1"}}],
  "$filter": {"$limit": 5}
}`

func TestCompileText(t *testing.T) {
	req := writeFile(t, "select.json", selectRequest)

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, req)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled select request")
	assert.Contains(t, out, "Fingerprint: ")
	assert.Contains(t, out, `"kind": "select"`)
	assert.Contains(t, out, `"limit": 5`)
}

func TestCompileJSON(t *testing.T) {
	req := writeFile(t, "select.json", selectRequest)

	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, req)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "select", resp.Data.Kind)
	assert.Len(t, resp.Data.Fingerprint, 16)

	var command map[string]any
	require.NoError(t, json.Unmarshal(resp.Data.Command, &command))
	assert.Equal(t, "select", command["kind"])
	assert.Contains(t, command, "filter")
}

func TestCompileFingerprintIgnoresKeyOrder(t *testing.T) {
	a := writeFile(t, "a.json", `{"$query": [{"$eq": {"Title": "T1"}}], "$filter": {"$limit": 5}}`)
	b := writeFile(t, "b.json", `{"$filter": {"$limit": 5}, "$query": [{"$eq": {"Title": "T1"}}]}`)

	fingerprint := func(path string) string {
		out, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), path)
		require.NoError(t, err)
		var resp struct {
			Data CompilationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.Fingerprint
	}
	assert.Equal(t, fingerprint(a), fingerprint(b))
}

func TestCompileStdin(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetIn(strings.NewReader(`{"$query": [{"$exists": "Title"}], "$filter": {"$mult": true}}`))
	out, err := execute(t, cmd, "--kind", "delete", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled delete request")
	assert.Contains(t, out, `"multi": true`)
}

func TestCompileOutputToFile(t *testing.T) {
	req := writeFile(t, "select.json", selectRequest)
	outputFile := filepath.Join(t.TempDir(), "command.json")

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, err := execute(t, cmd, req, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote command to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, out, string(data))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		request  string
		wantCode int
		wantOut  string
	}{
		{"unsupported operator", "delete", `{"$query": [{"$search": {"Title": "minutes"}}]}`, ExitFailure, "Error [UNSUPPORTED_OPERATOR]"},
		{"unknown bound", "select", `{"$query": [{"$range": {"d": {"$gt": 1, "$after": 2}}}]}`, ExitFailure, "Error [UNRECOGNIZED_BOUND_KEY]"},
		{"unknown key", "select", `{"$bogus": 1}`, ExitFailure, "Error [INVALID_REQUEST]"},
		{"unknown kind", "upsert", `{}`, ExitFailure, "Error [INVALID_REQUEST]"},
		{"not json", "select", `{`, ExitFailure, "Error [INVALID_REQUEST]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := writeFile(t, "req.json", tt.request)
			cmd := NewCompileCommand(&RootOptions{Format: "text"})
			out, err := execute(t, cmd, "--kind", tt.kind, req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestCompileMissingFile(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	out, err := execute(t, cmd, "/nonexistent/request.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CommandErrorKind, resp.Error.Kind)
}
