// Package validate enforces the structural invariants a request must meet
// before translation: operator argument unicity, scalar coercion, node
// readiness, the traversal depth ceiling and the serialized size ceiling.
//
// A Validator holds only its Config, which is read-only after
// construction, so one instance may serve concurrent requests.
package validate

import (
	"fmt"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/wire"
)

// Defaults applied to zero Config fields.
const (
	DefaultMaxDepth       = 30
	DefaultMaxRequestSize = 1_000_000
)

// Config holds the ceilings an embedding service may override at startup.
type Config struct {
	// MaxDepth is the traversal depth ceiling. A chain whose length or
	// inferred depth reaches it is rejected.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxRequestSize is the largest accepted serialized request, in bytes.
	MaxRequestSize int `json:"max_request_size" yaml:"max_request_size"`
}

// DefaultConfig returns the default ceilings.
func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth, MaxRequestSize: DefaultMaxRequestSize}
}

func (c Config) withDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxRequestSize <= 0 {
		c.MaxRequestSize = DefaultMaxRequestSize
	}
	return c
}

// Validator checks requests against a fixed Config.
type Validator struct {
	cfg Config
}

// New creates a Validator. Zero Config fields take their defaults.
func New(cfg Config) *Validator {
	return &Validator{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (v *Validator) Config() Config {
	return v.cfg
}

// CheckSize fails with SIZE_EXCEEDED when a serialized request of n bytes
// is larger than the ceiling.
func (v *Validator) CheckSize(n int) error {
	if n > v.cfg.MaxRequestSize {
		return &dsl.Error{
			Kind:    dsl.ErrSizeExceeded,
			Message: fmt.Sprintf("request of %d bytes exceeds the %d byte limit", n, v.cfg.MaxRequestSize),
		}
	}
	return nil
}

// CheckRequestSize renders r as wire JSON and checks the result against
// the size ceiling. It returns the rendered bytes.
func (v *Validator) CheckRequestSize(r dsl.Request) ([]byte, error) {
	data, err := wire.Marshal(r)
	if err != nil {
		if dsl.KindOf(err) != "" {
			return nil, err
		}
		return nil, &dsl.Error{Kind: dsl.ErrInvalidRequest, Message: fmt.Sprintf("cannot serialize request: %v", err)}
	}
	if err := v.CheckSize(len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// CheckDepth walks a query chain and returns the inferred depth of its
// last step.
//
// Depth starts at 0. A step with $exactdepth n moves to n (AnyDepth moves
// to the deepest legal level); $depth n moves by n; no argument moves one
// level down. A $path step moves one level, must open the chain and takes
// no depth argument.
//
// The chain fails with DEPTH_EXCEEDED when its length, or any step's
// inferred depth, reaches MaxDepth.
func (v *Validator) CheckDepth(steps []dsl.Step) (int, error) {
	ceiling := v.cfg.MaxDepth
	if len(steps) >= ceiling {
		return 0, &dsl.Error{
			Kind:    dsl.ErrDepthExceeded,
			Message: fmt.Sprintf("query chain of %d steps reaches the depth limit %d", len(steps), ceiling),
		}
	}

	depth := 0
	for i, step := range steps {
		if isPath(step.Query) {
			if i > 0 {
				return 0, dsl.Malformed(string(dsl.OpPath), "", "$path is only allowed as the first query, found at position %d", i)
			}
			if step.Mode != dsl.DepthDefault {
				return 0, dsl.Malformed(string(dsl.OpPath), "", "$path cannot be combined with %s", depthKey(step.Mode))
			}
		}

		switch step.Mode {
		case dsl.DepthExact:
			switch {
			case step.Depth == dsl.AnyDepth:
				depth = ceiling - 1
			case step.Depth < 0:
				return 0, dsl.Malformed(dsl.KeyExactDepth, "", "exact depth must be >= 0 or %d, got %d", dsl.AnyDepth, step.Depth)
			default:
				depth = step.Depth
			}
		case dsl.DepthRelative:
			depth += step.Depth
		default:
			depth++
		}

		if depth >= ceiling {
			return 0, &dsl.Error{
				Kind:    dsl.ErrDepthExceeded,
				Token:   depthKey(step.Mode),
				Message: fmt.Sprintf("query %d reaches depth %d, limit is %d", i, depth, ceiling),
			}
		}
	}
	return depth, nil
}

// Validate checks a whole request: its serialized size first, then roots,
// filter, every query node, the depth chain and, for updates and inserts,
// their payload.
func (v *Validator) Validate(r dsl.Request) error {
	if r == nil {
		return &dsl.Error{Kind: dsl.ErrInvalidRequest, Message: "nil request"}
	}
	if _, err := v.CheckRequestSize(r); err != nil {
		return err
	}
	h := r.Head()

	for i, root := range h.Roots {
		if root == "" {
			return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyRoots, "", "root %d is empty", i)
		}
	}
	if err := checkFilter(h.Filter); err != nil {
		return err
	}
	for i, step := range h.Queries {
		if err := CheckQuery(step.Query); err != nil {
			return fmt.Errorf("query %d: %w", i, err)
		}
	}
	if _, err := v.CheckDepth(h.Queries); err != nil {
		return err
	}

	switch req := r.(type) {
	case *dsl.Update:
		if len(req.Actions) == 0 {
			return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyAction, "", "update requires at least one action")
		}
		for i, a := range req.Actions {
			if err := CheckAction(a); err != nil {
				return fmt.Errorf("action %d: %w", i, err)
			}
		}
	case *dsl.Insert:
		if len(req.Data) == 0 {
			return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyData, "", "insert requires at least one document")
		}
	case *dsl.Select:
		for _, f := range req.Projection.Fields {
			if f.Field == "" {
				return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyFields, "", "empty projection field")
			}
		}
	}
	return nil
}

func checkFilter(f dsl.Filter) error {
	if f.Offset < 0 {
		return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyOffset, "", "offset must be >= 0, got %d", f.Offset)
	}
	if f.Limit < 0 {
		return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyLimit, "", "limit must be >= 0, got %d", f.Limit)
	}
	for _, o := range f.OrderBy {
		if o.Field == "" {
			return dsl.NewError(dsl.ErrInvalidRequest, dsl.KeyOrderBy, "", "empty order-by field")
		}
	}
	return nil
}

func isPath(q dsl.Query) bool {
	switch q.(type) {
	case dsl.Path, *dsl.Path:
		return true
	default:
		return false
	}
}

func depthKey(m dsl.DepthMode) string {
	switch m {
	case dsl.DepthExact:
		return dsl.KeyExactDepth
	case dsl.DepthRelative:
		return dsl.KeyDepth
	default:
		return ""
	}
}
