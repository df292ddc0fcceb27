package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/parser"
	"github.com/roach88/archdsl/internal/validate"
)

// Scenario defines one conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Kind is the request kind: select, insert, update or delete.
	Kind string `yaml:"kind"`

	// Config overrides the validator ceilings. Unset fields keep defaults.
	Config *validate.Config `yaml:"config,omitempty"`

	// Request is the wire JSON of the request.
	Request string `yaml:"request"`

	// Document is an optional JSON document the request is evaluated on.
	Document string `yaml:"document,omitempty"`

	// Expect holds the expected outcome.
	Expect Expect `yaml:"expect"`
}

// Expect is the expected outcome of a scenario. Zero values are not
// checked, except that a scenario without Error must not fail.
type Expect struct {
	// Error is the expected error kind, e.g. "DEPTH_EXCEEDED".
	Error string `yaml:"error,omitempty"`

	// Matches is whether the final query step should match Document.
	Matches *bool `yaml:"matches,omitempty"`

	// Fields lists the fields an update should touch, in order.
	Fields []string `yaml:"fields,omitempty"`
}

// errorKinds are the accepted values of Expect.Error.
var errorKinds = []dsl.ErrorKind{
	dsl.ErrMalformedOperator,
	dsl.ErrDepthExceeded,
	dsl.ErrSizeExceeded,
	dsl.ErrUnsupportedOperator,
	dsl.ErrUnrecognizedBoundKey,
	dsl.ErrInvalidRequest,
	dsl.ErrNodeNotReady,
	dsl.ErrInvalidAction,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := parser.ParseKind(s.Kind); err != nil {
		return fmt.Errorf("kind: %w", err)
	}
	if strings.TrimSpace(s.Request) == "" {
		return fmt.Errorf("request is required")
	}

	if s.Expect.Error != "" && !knownKind(s.Expect.Error) {
		return fmt.Errorf("expect.error: unknown error kind %q", s.Expect.Error)
	}
	if s.Expect.Matches != nil && s.Document == "" {
		return fmt.Errorf("expect.matches requires a document")
	}
	if len(s.Expect.Fields) > 0 && (s.Document == "" || s.Kind != string(dsl.KindUpdate)) {
		return fmt.Errorf("expect.fields requires an update with a document")
	}
	return nil
}

func knownKind(s string) bool {
	for _, k := range errorKinds {
		if string(k) == s {
			return true
		}
	}
	return false
}
