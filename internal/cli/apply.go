package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/archdsl/internal/inmemory"
	"github.com/roach88/archdsl/internal/journal"
	"github.com/roach88/archdsl/internal/value"
	"github.com/roach88/archdsl/internal/wire"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Document string // document file path
	Journal  string // journal database, overrides the config
	Output   string // write the updated document here
	Where    bool   // only apply when the request's query matches
}

// ApplyResult describes one update applied to a local document.
type ApplyResult struct {
	DocumentID  string          `json:"document_id,omitempty"`
	Fingerprint string          `json:"fingerprint"`
	Matched     bool            `json:"matched"`
	Fields      []string        `json:"fields"`
	Diff        []string        `json:"diff"`
	EntryID     string          `json:"entry_id,omitempty"`
	Document    json.RawMessage `json:"document,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <update.json|->",
		Short: "Apply an update request to a local document",
		Long: `Apply the actions of an update request to a JSON document and print the
updated fields and a diff of the document.

With --where, the request's last query is evaluated against the document
first and a non-matching document is left untouched (exit code 1).
When a journal is configured, every applied update is recorded in it.

Examples:
  archdsl apply --document unit.json update.json
  archdsl apply --document unit.json --journal ./journal.db update.json
  archdsl apply --document unit.json --where --output unit.new.json update.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Document, "document", "d", "", "path to the JSON document (required)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to the journal database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the updated document to this file")
	cmd.Flags().BoolVar(&opts.Where, "where", false, "skip the update unless the query matches the document")
	_ = cmd.MarkFlagRequired("document")

	return cmd
}

func runApply(opts *ApplyOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	doc, err := loadDocument(opts.Document)
	if err != nil {
		return formatter.CommandError(err)
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return formatter.CommandError(fmt.Errorf("reading request: %w", err))
	}

	p, tr := opts.toolchain(cfg, cmd)
	req, err := p.ParseUpdate(data)
	if err != nil {
		return formatter.RequestError(err)
	}
	// Compiling rejects requests the store would reject, such as
	// unsupported operators in the query.
	if _, err := tr.Update(req); err != nil {
		return formatter.RequestError(err)
	}
	fingerprint, err := wire.Fingerprint(req)
	if err != nil {
		return formatter.RequestError(err)
	}

	result := ApplyResult{
		Fingerprint: fingerprint,
		Matched:     true,
		Fields:      []string{},
		Diff:        []string{},
	}
	if id, ok := doc.Get(cfg.IDField); ok {
		result.DocumentID = documentID(id)
	}

	if opts.Where {
		if q, ok := req.Head().Last(); ok {
			matched, err := inmemory.NewMatcher(cfg.IDField).Match(q, doc)
			if err != nil {
				return formatter.RequestError(err)
			}
			result.Matched = matched
		}
	}
	if !result.Matched {
		logger.Info("document does not match", "document_id", result.DocumentID, "fingerprint", fingerprint)
		if err := outputApply(formatter, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "document does not match the request query")
	}

	after, fields, err := inmemory.Apply(doc, req.Actions)
	if err != nil {
		return formatter.RequestError(err)
	}
	result.Fields = fields
	diff, err := inmemory.Diff(doc, after)
	if err != nil {
		return formatter.CommandError(fmt.Errorf("diff: %w", err))
	}
	if diff != nil {
		result.Diff = diff
	}
	rendered, err := value.MarshalIndent(after)
	if err != nil {
		return formatter.CommandError(fmt.Errorf("rendering document: %w", err))
	}
	result.Document = rendered

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(rendered, '\n'), 0o644); err != nil {
			return formatter.CommandError(fmt.Errorf("writing output file: %w", err))
		}
	}

	journalPath := cfg.Journal.Path
	if opts.Journal != "" {
		journalPath = opts.Journal
	}
	if journalPath != "" && len(fields) > 0 {
		entry, err := recordApply(cmd.Context(), journalPath, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record update", err)
		}
		result.EntryID = entry.ID
		logger.Debug("update journaled", "entry_id", entry.ID, "seq", entry.Seq)
	}

	logger.Info("update applied", "document_id", result.DocumentID, "fields", len(fields))
	return outputApply(formatter, result)
}

func recordApply(ctx context.Context, path string, result ApplyResult) (journal.Entry, error) {
	if result.DocumentID == "" {
		return journal.Entry{}, fmt.Errorf("document has no identifier to journal under")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	j, err := journal.Open(path)
	if err != nil {
		return journal.Entry{}, err
	}
	defer j.Close()

	return j.Append(ctx, journal.Entry{
		Fingerprint: result.Fingerprint,
		DocumentID:  result.DocumentID,
		Fields:      result.Fields,
		Diff:        result.Diff,
	})
}

func outputApply(formatter *OutputFormatter, result ApplyResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if !result.Matched {
		fmt.Fprintln(w, "✗ Document does not match the request query; nothing applied")
		return nil
	}
	fmt.Fprintf(w, "✓ Updated %d field(s)", len(result.Fields))
	if result.DocumentID != "" {
		fmt.Fprintf(w, " of %s", result.DocumentID)
	}
	fmt.Fprintln(w)
	for _, f := range result.Fields {
		fmt.Fprintf(w, "  %s\n", f)
	}
	if len(result.Diff) > 0 {
		fmt.Fprintln(w)
		for _, line := range result.Diff {
			fmt.Fprintln(w, line)
		}
	}
	if result.EntryID != "" {
		fmt.Fprintf(w, "\nJournal entry: %s\n", result.EntryID)
	}
	return nil
}

// loadDocument reads a JSON object from path.
func loadDocument(path string) (value.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	obj, ok := v.(value.Object)
	if !ok {
		return nil, fmt.Errorf("document must be a JSON object, got %s", value.TypeName(v))
	}
	return obj, nil
}

// documentID renders an identifier value for display and journaling.
func documentID(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	b, err := value.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
