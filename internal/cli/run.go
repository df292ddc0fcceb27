package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/journal"
	"github.com/roach88/archdsl/internal/mongostore"
	"github.com/roach88/archdsl/internal/parser"
	"github.com/roach88/archdsl/internal/querymongo"
	"github.com/roach88/archdsl/internal/value"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Kind    string
	Apply   bool // run updates through ApplyOne
	Metrics bool // print executor metrics to stderr afterwards
}

// RunResult is the outcome of one executed request. Only the fields of the
// request's kind are set.
type RunResult struct {
	Kind      string                  `json:"kind"`
	Documents []json.RawMessage       `json:"documents,omitempty"`
	Total     *int64                  `json:"total,omitempty"`
	Affected  *int64                  `json:"affected,omitempty"`
	IDs       []json.RawMessage       `json:"ids,omitempty"`
	Applied   *mongostore.ApplyResult `json:"applied,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <request.json|->",
		Short: "Execute a request against MongoDB",
		Long: `Compile a request and execute it against the collection named in the
config (mongo.uri, mongo.database, mongo.collection).

Updates normally run as a single MongoDB update. With --apply, the first
matching document is loaded, updated in memory and replaced under an
optimistic lock, and the diff is recorded in the configured journal.

Examples:
  archdsl run --kind select request.json
  archdsl run --config archdsl.yaml --kind delete request.json
  archdsl run --kind update --apply update.json --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "select", "request kind (select|insert|update|delete)")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "apply updates in memory with an optimistic lock")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print executor metrics to stderr")

	return cmd
}

func runRequest(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	kind, err := parser.ParseKind(opts.Kind)
	if err != nil {
		return formatter.RequestError(err)
	}
	if opts.Apply && kind != dsl.KindUpdate {
		return NewExitError(ExitCommandError, "--apply only applies to update requests")
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return formatter.CommandError(fmt.Errorf("reading request: %w", err))
	}

	p, tr := opts.toolchain(cfg, cmd)
	req, err := p.Parse(kind, data)
	if err != nil {
		return formatter.RequestError(err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, cfg.Timeout())
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect to MongoDB", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from MongoDB", "error", err)
		}
	}()
	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	logger.Debug("executing request", "kind", kind, "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)

	registry := prometheus.NewRegistry()
	mongostore.MustRegisterMetrics(registry)

	execOpts := []mongostore.Option{mongostore.WithLogger(logger)}
	if opts.Apply && cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()
		execOpts = append(execOpts, mongostore.WithJournal(j))
	}
	exec := mongostore.New(coll, tr, execOpts...)

	result, err := executeRequest(ctx, exec, req, opts.Apply)
	if opts.Metrics {
		writeMetrics(cmd.ErrOrStderr(), registry)
	}
	if err != nil {
		if dsl.KindOf(err) != "" {
			return formatter.RequestError(err)
		}
		return formatter.CommandError(fmt.Errorf("request failed: %w", err))
	}
	return outputRun(formatter, result)
}

// executeRequest runs req through exec and collects the outcome for output.
func executeRequest(ctx context.Context, exec *mongostore.Executor, req dsl.Request, apply bool) (*RunResult, error) {
	res := &RunResult{Kind: string(req.Kind())}
	switch r := req.(type) {
	case *dsl.Select:
		sel, err := exec.Select(ctx, r)
		if err != nil {
			return nil, err
		}
		res.Total = &sel.Total
		res.Documents = make([]json.RawMessage, 0, len(sel.Documents))
		for _, d := range sel.Documents {
			raw, err := renderNative(d)
			if err != nil {
				return nil, err
			}
			res.Documents = append(res.Documents, raw)
		}
	case *dsl.Update:
		if apply {
			applied, err := exec.ApplyOne(ctx, r)
			if err != nil {
				return nil, err
			}
			res.Applied = applied
			return res, nil
		}
		n, err := exec.Update(ctx, r)
		if err != nil {
			return nil, err
		}
		res.Affected = &n
	case *dsl.Delete:
		n, err := exec.Delete(ctx, r)
		if err != nil {
			return nil, err
		}
		res.Affected = &n
	case *dsl.Insert:
		ids, err := exec.Insert(ctx, r)
		if err != nil {
			return nil, err
		}
		res.IDs = make([]json.RawMessage, 0, len(ids))
		for _, id := range ids {
			raw, err := renderNative(id)
			if err != nil {
				return nil, err
			}
			res.IDs = append(res.IDs, raw)
		}
	}
	return res, nil
}

// renderNative renders a driver value as compact JSON in wire order.
func renderNative(v any) (json.RawMessage, error) {
	val, err := querymongo.FromNative(v)
	if err != nil {
		return nil, err
	}
	return value.Marshal(val)
}

func outputRun(formatter *OutputFormatter, res *RunResult) error {
	if formatter.Format == "json" {
		return formatter.Success(res)
	}

	w := formatter.Writer
	switch {
	case res.Documents != nil:
		for _, d := range res.Documents {
			fmt.Fprintln(w, string(d))
		}
		fmt.Fprintf(w, "\n%d of %d document(s)\n", len(res.Documents), *res.Total)
	case res.Applied != nil:
		fmt.Fprintf(w, "✓ Updated %s to version %d: %s\n",
			res.Applied.DocumentID, res.Applied.Version, strings.Join(res.Applied.Fields, ", "))
		for _, line := range res.Applied.Diff {
			fmt.Fprintln(w, line)
		}
	case res.Affected != nil:
		fmt.Fprintf(w, "✓ %s affected %d document(s)\n", res.Kind, *res.Affected)
	default:
		fmt.Fprintf(w, "✓ Inserted %d document(s)\n", len(res.IDs))
		for _, id := range res.IDs {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
	return nil
}

// writeMetrics prints every sampled series of registry, one per line.
func writeMetrics(w io.Writer, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		fmt.Fprintf(w, "gathering metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			pairs := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			var sample string
			switch {
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				sample = fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
			case m.GetCounter() != nil:
				sample = fmt.Sprintf("%g", m.GetCounter().GetValue())
			}
			fmt.Fprintf(w, "%s{%s} %s\n", mf.GetName(), strings.Join(pairs, ","), sample)
		}
	}
}
