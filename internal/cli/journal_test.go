package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/archdsl/internal/journal"
	"github.com/roach88/archdsl/internal/testutil"
)

// seedJournal writes three entries: two for u1 and one for u2.
func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	clock := testutil.NewStepClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), time.Second)
	j, err := journal.Open(path,
		journal.WithIDGenerator(journal.NewFixedGenerator("e1", "e2", "e3")),
		journal.WithClock(clock.Now),
	)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	for _, e := range []journal.Entry{
		{Fingerprint: "fa", DocumentID: "u1", Fields: []string{"Title"}, Diff: []string{`-  "Title": "T1",`, `+  "Title": "T2",`}},
		{Fingerprint: "fb", DocumentID: "u2", Fields: []string{"N"}},
		{Fingerprint: "fa", DocumentID: "u1", Fields: []string{"Tags"}},
	} {
		_, err := j.Append(ctx, e)
		require.NoError(t, err)
	}
	return path
}

func journalIDs(t *testing.T, out string) []string {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   []journal.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	ids := make([]string, len(resp.Data))
	for i, e := range resp.Data {
		ids[i] = e.ID
	}
	return ids
}

func TestJournalList(t *testing.T) {
	path := seedJournal(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"newest first", nil, []string{"e3", "e2", "e1"}},
		{"limit", []string{"--limit", "2"}, []string{"e3", "e2"}},
		{"by document", []string{"--document", "u1"}, []string{"e1", "e3"}},
		{"by document with limit", []string{"--document", "u1", "-n", "1"}, []string{"e3"}},
		{"by fingerprint", []string{"--fingerprint", "fb"}, []string{"e2"}},
		{"no match", []string{"--document", "u9"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--journal", path}, tt.args...)
			out, err := execute(t, NewJournalCommand(&RootOptions{Format: "json"}), args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, journalIDs(t, out))
		})
	}
}

func TestJournalText(t *testing.T) {
	path := seedJournal(t)

	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}), "--journal", path, "--document", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 2024-05-01T12:00:01Z u1 e1\n  fields: [Title]\n")
	assert.NotContains(t, out, `"Title": "T2"`)

	out, err = execute(t, NewJournalCommand(&RootOptions{Format: "text", Verbose: true}), "--journal", path, "--document", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, `  +  "Title": "T2",`)
}

func TestJournalEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}), "--journal", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No journal entries.")
}

func TestJournalErrors(t *testing.T) {
	t.Run("no journal configured", func(t *testing.T) {
		out, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "no journal configured")
	})

	t.Run("document and fingerprint", func(t *testing.T) {
		path := seedJournal(t)
		_, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}),
			"--journal", path, "--document", "u1", "--fingerprint", "fa")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
