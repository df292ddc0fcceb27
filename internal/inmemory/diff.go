package inmemory

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/roach88/archdsl/internal/value"
)

// Diff compares the canonical indented JSON of two documents and returns
// the changed lines, each prefixed with "-" or "+". Identical documents
// yield no lines.
func Diff(before, after value.Object) ([]string, error) {
	a, err := value.MarshalIndent(before)
	if err != nil {
		return nil, fmt.Errorf("diff before: %w", err)
	}
	b, err := value.MarshalIndent(after)
	if err != nil {
		return nil, fmt.Errorf("diff after: %w", err)
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "before",
		ToFile:   "after",
		Context:  0,
	})
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "+"):
			lines = append(lines, line)
		}
	}
	return lines, nil
}
