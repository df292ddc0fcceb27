package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")
	goldenDir    = filepath.Join("..", "harness", "testdata", "golden")
)

const failingScenario = `name: failing
description: "Expects a match the document cannot give"
kind: select
request: '{"$query": [{"$eq": {"a": 1}}]}'
document: '{"a": 2}'
expect:
  matches: true
`

func TestTestCommand_Passes(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir, "--golden", goldenDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ select_roots_term_sort")
	assert.Contains(t, out, "✓ update_apply_document")
	assert.Contains(t, out, "0 failed")
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), scenariosDir, "--filter", "delete_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.Contains(t, s.Name, "delete_")
	}
}

func TestTestCommand_Failure(t *testing.T) {
	path := writeFile(t, "failing.yaml", failingScenario)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "Expectation failed: matches")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommand_Golden(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(scenariosDir, "delete_unsupported.yaml")

	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenario, "--golden", dir)
	require.Error(t, err, "missing golden file fails")

	_, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenario, "--golden", dir, "--update")
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "delete_unsupported.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(goldenDir, "delete_unsupported.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	_, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenario, "--golden", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "delete_unsupported.golden"), []byte("{}\n"), 0o644))
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenario, "--golden", dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing path", []string{"/nonexistent/scenarios"}},
		{"update without golden", []string{scenariosDir, "--update"}},
		{"bad filter", []string{scenariosDir, "--filter", "["}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestFindScenarioFiles(t *testing.T) {
	files, err := findScenarioFiles(scenariosDir, "select_*")
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Contains(t, filepath.Base(f), "select_")
	}
}
