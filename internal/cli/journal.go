package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/archdsl/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Path        string
	Document    string
	Fingerprint string
	Limit       int
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded updates",
		Long: `List the updates recorded in the journal, newest first.

With --document or --fingerprint, list the updates of one document or of
one request in the order they were applied.

Examples:
  archdsl journal --journal ./journal.db
  archdsl journal --journal ./journal.db --document unit-1
  archdsl journal --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "journal", "", "path to the journal database (defaults to the config)")
	cmd.Flags().StringVar(&opts.Document, "document", "", "only list updates of this document")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "only list updates made by this request")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of entries (0 for all)")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	path := cfg.Journal.Path
	if opts.Path != "" {
		path = opts.Path
	}
	if path == "" {
		return formatter.CommandError(errors.New("no journal configured: pass --journal or set journal.path"))
	}
	if opts.Document != "" && opts.Fingerprint != "" {
		return formatter.CommandError(errors.New("--document and --fingerprint are mutually exclusive"))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var entries []journal.Entry
	switch {
	case opts.Document != "":
		entries, err = j.ByDocument(ctx, opts.Document)
	case opts.Fingerprint != "":
		entries, err = j.ByFingerprint(ctx, opts.Fingerprint)
	default:
		entries, err = j.List(ctx, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[len(entries)-opts.Limit:]
	}
	if entries == nil {
		entries = []journal.Entry{}
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	w := formatter.Writer
	if len(entries) == 0 {
		fmt.Fprintln(w, "No journal entries.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "#%d %s %s %s\n", e.Seq, e.CreatedAt.Format(time.RFC3339), e.DocumentID, e.ID)
		fmt.Fprintf(w, "  fields: %v\n", e.Fields)
		if formatter.Verbose {
			for _, line := range e.Diff {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
	return nil
}
