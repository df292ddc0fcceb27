package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/archdsl/internal/parser"
	"github.com/roach88/archdsl/internal/querymongo"
	"github.com/roach88/archdsl/internal/wire"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Kind   string // select, insert, update or delete
	Output string // output file path
}

// CompilationResult is the compiled form of one request.
type CompilationResult struct {
	Kind        string          `json:"kind"`
	Fingerprint string          `json:"fingerprint"`
	Command     json.RawMessage `json:"command"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <request.json|->",
		Short: "Compile a request to its MongoDB command",
		Long: `Parse and validate a JSON request, then print the MongoDB command it
compiles to along with the request fingerprint.

Examples:
  archdsl compile --kind select request.json
  cat update.json | archdsl compile --kind update -
  archdsl compile --kind delete request.json --output command.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "select", "request kind (select|insert|update|delete)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the command JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	kind, err := parser.ParseKind(opts.Kind)
	if err != nil {
		return formatter.RequestError(err)
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return formatter.CommandError(fmt.Errorf("reading request: %w", err))
	}
	formatter.VerboseLog("Read %d byte(s) from %s", len(data), path)

	p, tr := opts.toolchain(cfg, cmd)
	req, err := p.Parse(kind, data)
	if err != nil {
		return formatter.RequestError(err)
	}
	fingerprint, err := wire.Fingerprint(req)
	if err != nil {
		return formatter.RequestError(err)
	}
	compiled, err := tr.Translate(req)
	if err != nil {
		return formatter.RequestError(err)
	}
	command, err := querymongo.DescribeJSON(compiled)
	if err != nil {
		return formatter.CommandError(fmt.Errorf("describing command: %w", err))
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, command, 0o644); err != nil {
			return formatter.CommandError(fmt.Errorf("writing output file: %w", err))
		}
	}

	result := CompilationResult{
		Kind:        string(kind),
		Fingerprint: fingerprint,
		Command:     json.RawMessage(command),
	}
	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs the compiled command.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %s request\n", result.Kind)
	fmt.Fprintf(formatter.Writer, "Fingerprint: %s\n\n", result.Fingerprint)
	fmt.Fprintln(formatter.Writer, string(result.Command))
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote command to %s\n", outputFile)
	}
	return nil
}

