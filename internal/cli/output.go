package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/archdsl/internal/dsl"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Request rejected, scenario failed, document did not match
	ExitCommandError = 2 // Command error (unreadable file, bad config, unreachable store)
)

// CommandErrorKind is reported for failures that are not about the
// request itself, such as unreadable files or an unreachable store.
const CommandErrorKind = "ERROR"

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// Response is the JSON envelope every command writes in json format.
type Response struct {
	Status string       `json:"status"`          // "ok" or "error"
	Data   any          `json:"data,omitempty"`  // success payload
	Error  *ErrorReport `json:"error,omitempty"` // set when Status is "error"
}

// ErrorReport describes a failed command. For rejected requests Kind is
// the request error kind and Token and Field locate the offending node.
type ErrorReport struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Field   string `json:"field,omitempty"`
}

// reportOf builds the report of a request error. The message keeps the
// wrapping context, such as the position of the failing query.
func reportOf(err error) *ErrorReport {
	r := &ErrorReport{Kind: CommandErrorKind, Message: err.Error()}
	var dslErr *dsl.Error
	if errors.As(err, &dslErr) {
		r.Kind = string(dslErr.Kind)
		r.Token = dslErr.Token
		r.Field = dslErr.Field
	}
	return r
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Report outputs a failure in the configured format.
func (f *OutputFormatter) Report(r *ErrorReport) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "error", Error: r})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", r.Kind, r.Message)
	if f.Verbose && (r.Token != "" || r.Field != "") {
		fmt.Fprintf(f.Writer, "  at %s\n", location(r.Token, r.Field))
	}
	return nil
}

func location(token, field string) string {
	switch {
	case token == "":
		return fmt.Sprintf("field %q", field)
	case field == "":
		return token
	default:
		return fmt.Sprintf("%s on field %q", token, field)
	}
}

// RequestError reports a rejected request under its error kind and returns
// an ExitError with ExitFailure. Errors without a kind are command errors.
func (f *OutputFormatter) RequestError(err error) error {
	if dsl.KindOf(err) == "" {
		return f.CommandError(err)
	}
	r := reportOf(err)
	_ = f.Report(r)
	return WrapExitError(ExitFailure, r.Kind, err)
}

// CommandError reports a failure unrelated to the request and returns an
// ExitError with ExitCommandError.
func (f *OutputFormatter) CommandError(err error) error {
	_ = f.Report(&ErrorReport{Kind: CommandErrorKind, Message: err.Error()})
	return NewExitError(ExitCommandError, err.Error())
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
