package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/archdsl/internal/parser"
	"github.com/roach88/archdsl/internal/validate"
	"github.com/roach88/archdsl/internal/wire"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	Kind        string `json:"kind"`
	Queries     int    `json:"queries"`
	Depth       int    `json:"depth"`
	Fingerprint string `json:"fingerprint"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "validate <request.json|->",
		Short: "Validate a request without compiling it",
		Long: `Parse a JSON request and check it against the depth and size ceilings
and operator rules, without building the MongoDB command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, kind, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "select", "request kind (select|insert|update|delete)")

	return cmd
}

func runValidate(opts *RootOptions, kindName, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	kind, err := parser.ParseKind(kindName)
	if err != nil {
		return formatter.RequestError(err)
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return formatter.CommandError(fmt.Errorf("reading request: %w", err))
	}

	v := validate.New(cfg.Limits)
	req, err := parser.New(v).Parse(kind, data)
	if err != nil {
		return formatter.RequestError(err)
	}
	depth, err := v.CheckDepth(req.Head().Queries)
	if err != nil {
		return formatter.RequestError(err)
	}
	fingerprint, err := wire.Fingerprint(req)
	if err != nil {
		return formatter.RequestError(err)
	}

	result := ValidationResult{
		Valid:       true,
		Kind:        string(kind),
		Queries:     len(req.Head().Queries),
		Depth:       depth,
		Fingerprint: fingerprint,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Valid %s request: %d query step(s), depth %d\n",
		result.Kind, result.Queries, result.Depth)
	formatter.VerboseLog("Fingerprint: %s", result.Fingerprint)
	return nil
}
