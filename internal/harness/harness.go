package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/inmemory"
	"github.com/roach88/archdsl/internal/parser"
	"github.com/roach88/archdsl/internal/querymongo"
	"github.com/roach88/archdsl/internal/validate"
	"github.com/roach88/archdsl/internal/value"
	"github.com/roach88/archdsl/internal/wire"
)

// Harness runs scenarios. The zero value is not usable; use New.
type Harness struct {
	logger  *slog.Logger
	idField string
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. Scenario runs log at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithIDField sets the identifier field used for roots and $path.
func WithIDField(field string) Option {
	return func(h *Harness) { h.idField = field }
}

// New creates a Harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		idField: querymongo.DefaultIDField,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with default settings.
func Run(s *Scenario) (*Result, error) {
	return New().Run(s)
}

// Run executes a scenario and evaluates its expectations.
//
// Request failures are part of the result, not an error. The returned
// error is reserved for scenarios that cannot be evaluated at all, such
// as a document that is not a JSON object.
//
// Execution flow:
// 1. Parse the request under the scenario's ceilings
// 2. Translate it into a document store command
// 3. Evaluate the request against the document, if any
// 4. Check expectations
func (h *Harness) Run(s *Scenario) (*Result, error) {
	cfg := validate.DefaultConfig()
	if s.Config != nil {
		cfg = *s.Config
	}
	result := NewResult(s.Name)

	var doc value.Object
	if s.Document != "" {
		v, err := value.Decode([]byte(s.Document))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: document: %w", s.Name, err)
		}
		obj, ok := v.(value.Object)
		if !ok {
			return nil, fmt.Errorf("scenario %s: document must be a JSON object", s.Name)
		}
		doc = obj
	}

	kind, err := parser.ParseKind(s.Kind)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	if err := h.evaluate(cfg, kind, s, doc, result); err != nil {
		result.ErrorKind = string(dsl.KindOf(err))
		result.Error = err.Error()
	}

	for _, msg := range EvaluateExpectations(result, s.Expect) {
		result.AddError("%s", msg)
	}

	h.logger.Debug("scenario finished", "name", s.Name, "pass", result.Pass, "error_kind", result.ErrorKind)
	return result, nil
}

// evaluate fills result from a successful pipeline and returns the first
// request failure.
func (h *Harness) evaluate(cfg validate.Config, kind dsl.Kind, s *Scenario, doc value.Object, result *Result) error {
	p := parser.New(validate.New(cfg))
	req, err := p.Parse(kind, []byte(s.Request))
	if err != nil {
		return err
	}
	if result.Fingerprint, err = wire.Fingerprint(req); err != nil {
		return err
	}

	tr := querymongo.New(cfg, querymongo.WithIDField(h.idField), querymongo.WithLogger(h.logger))
	cmd, err := tr.Translate(req)
	if err != nil {
		return err
	}
	if result.Command, err = querymongo.FromDocument(cmd.Describe()); err != nil {
		return fmt.Errorf("describe: %w", err)
	}

	if doc == nil {
		return nil
	}
	switch r := req.(type) {
	case *dsl.Update:
		after, fields, err := inmemory.Apply(doc, r.Actions)
		if err != nil {
			return err
		}
		result.Fields = fields
		if result.Diff, err = inmemory.Diff(doc, after); err != nil {
			return fmt.Errorf("diff: %w", err)
		}
	case *dsl.Select, *dsl.Delete:
		matched := true
		if q, ok := req.Head().Last(); ok {
			if matched, err = inmemory.NewMatcher(h.idField).Match(q, doc); err != nil {
				return err
			}
		}
		result.Matches = &matched
	}
	return nil
}

// RunFile loads and runs one scenario file.
func (h *Harness) RunFile(path string) (*Result, error) {
	s, err := LoadScenario(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h.Run(s)
}

// RunAll runs scenario files concurrently, at most limit at a time
// (limit <= 0 means no limit). Results keep the order of paths. The first
// load or run error cancels the remaining files.
func (h *Harness) RunAll(ctx context.Context, paths []string, limit int) ([]*Result, error) {
	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := h.RunFile(path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
