package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // At least one query was rejected
	ExitCommandError = 2 // Command error (missing registry, unreadable catalog, etc.)
)

// Command error codes. Query rejections carry the validator's E2xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoRegistry  = "E002" // Neither --registry nor --catalog given
	ErrCodeRegistry    = "E003" // Registry file or catalog could not be loaded
	ErrCodeReadFailed  = "E004" // Query file could not be read or decoded
	ErrCodeNotFound    = "E005" // Dataset not found in catalog
	ErrCodeInvalidArgs = "E006" // Bad command arguments
	ErrCodeCatalog     = "E007" // Catalog write error

	ErrCodeInvalidQuery = "E200" // At least one query was rejected
)

// ExitError represents an error with a specific exit code.
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

// IsReported reports whether err came from a command that already wrote
// its outcome through an OutputFormatter.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for diagnostic output (defaults to Writer)
	Verbose   bool
	TraceID   string // Attached to every JSON response when set
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // trace correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E203", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			TraceID: f.TraceID,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			TraceID: f.TraceID,
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Respond writes a full response. Used when a command reports both data
// and an error, as validate does when some files are rejected.
func (f *OutputFormatter) Respond(resp CLIResponse) error {
	if resp.TraceID == "" {
		resp.TraceID = f.TraceID
	}
	return f.encode(resp)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
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

// commandError carries an error code for a failure that stops a command.
type commandError struct {
	Code    string
	Message string
	Err     error
}

func (e *commandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *commandError) Unwrap() error {
	return e.Err
}

// report writes a command failure through the formatter and returns an
// ExitError with ExitCommandError.
func report(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var cmdErr *commandError
	if errors.As(err, &cmdErr) {
		code = cmdErr.Code
	}
	if outErr := f.Error(code, err.Error(), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, fmt.Sprintf("command failed [%s]", code), err)
}
