package harness

import (
	"fmt"

	"github.com/roach88/archdsl/internal/value"
)

// Result is the outcome of running one scenario.
type Result struct {
	Name string `json:"name"`

	// Pass is true when every expectation holds.
	Pass bool `json:"pass"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Command is the compiled command description. Nil on error.
	Command value.Object `json:"-"`

	// Fingerprint identifies the parsed request. Empty on parse error.
	Fingerprint string `json:"fingerprint,omitempty"`

	// ErrorKind and Error describe the request failure, if any.
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	// Matches is set when a select or delete scenario has a document.
	Matches *bool `json:"matches,omitempty"`

	// Fields and Diff are set when an update scenario has a document.
	Fields []string `json:"fields,omitempty"`
	Diff   []string `json:"diff,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{Name: name, Pass: true, Errors: []string{}}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
