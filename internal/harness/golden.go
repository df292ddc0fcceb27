package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/archdsl/internal/value"
)

// Snapshot renders the deterministic part of a result as indented JSON
// with a trailing newline. Keys keep a fixed order and the command keeps
// its wire order, so sort and projection precedence stay visible.
// Pass and the fingerprint are left out.
func Snapshot(r *Result) ([]byte, error) {
	snap := value.Object{value.M("name", value.String(r.Name))}
	if r.ErrorKind != "" {
		snap = append(snap, value.M("error", value.String(r.ErrorKind)))
	}
	if r.Command != nil {
		snap = append(snap, value.M("command", r.Command))
	}
	if r.Matches != nil {
		snap = append(snap, value.M("matches", value.Bool(*r.Matches)))
	}
	if len(r.Fields) > 0 {
		snap = append(snap, value.M("fields", stringArray(r.Fields)))
	}
	if len(r.Diff) > 0 {
		snap = append(snap, value.M("diff", stringArray(r.Diff)))
	}

	raw, err := value.Marshal(snap)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func stringArray(ss []string) value.Array {
	arr := make(value.Array, len(ss))
	for i, s := range ss {
		arr[i] = value.String(s)
	}
	return arr
}

// RunWithGolden executes a scenario, fails the test on unmet
// expectations and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, result)
}

// AssertGolden compares an existing result's snapshot against its golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, result.Name, data)
	return nil
}
