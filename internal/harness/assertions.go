package harness

import (
	"fmt"
	"slices"
	"strings"
)

// ExpectationError describes one expectation that did not hold.
type ExpectationError struct {
	Type     string // error, matches or fields
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Expectation failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateExpectations checks result against expect and returns one
// message per failed expectation.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var errs []string
	for _, check := range []func(*Result, Expect) error{checkError, checkMatches, checkFields} {
		if err := check(result, expect); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func checkError(result *Result, expect Expect) error {
	if result.ErrorKind == expect.Error {
		return nil
	}
	actual := "success"
	if result.ErrorKind != "" {
		actual = fmt.Sprintf("%s (%s)", result.ErrorKind, result.Error)
	}
	expected := "success"
	if expect.Error != "" {
		expected = expect.Error
	}
	return &ExpectationError{Type: "error", Expected: expected, Actual: actual}
}

func checkMatches(result *Result, expect Expect) error {
	if expect.Matches == nil || result.ErrorKind != "" {
		return nil
	}
	if result.Matches == nil {
		return &ExpectationError{Type: "matches", Expected: fmt.Sprint(*expect.Matches), Actual: "not evaluated"}
	}
	if *result.Matches != *expect.Matches {
		return &ExpectationError{Type: "matches", Expected: fmt.Sprint(*expect.Matches), Actual: fmt.Sprint(*result.Matches)}
	}
	return nil
}

func checkFields(result *Result, expect Expect) error {
	if len(expect.Fields) == 0 || result.ErrorKind != "" {
		return nil
	}
	if !slices.Equal(result.Fields, expect.Fields) {
		return &ExpectationError{
			Type:     "fields",
			Expected: strings.Join(expect.Fields, ", "),
			Actual:   strings.Join(result.Fields, ", "),
		}
	}
	return nil
}
