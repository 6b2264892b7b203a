package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/wavefn/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected call, verify mismatch, failing scenario
	ExitCommandError = 2 // Command error (bad flags, unreadable database, etc.)
)

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
// Returns ExitFailure (1) if the error is not an ExitError.
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

// Text output styling. fatih/color disables itself when stdout is not a
// terminal.
var (
	okStyle    = color.New(color.FgGreen)
	errStyle   = color.New(color.FgRed, color.Bold)
	labelStyle = color.New(color.Faint)
)

func passMark() string { return okStyle.Sprint("✓") }
func failMark() string { return errStyle.Sprint("✗") }

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "UNAUTHENTICATED", "NOT_FOUND", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "%s Error [%s]: %s\n", failMark(), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Field writes one "name: value" line of text output.
func (f *OutputFormatter) Field(name string, value any) {
	fmt.Fprintf(f.Writer, "  %s %v\n", labelStyle.Sprint(name+":"), value)
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

// recordView is the printable form of a stored record.
type recordView struct {
	ID       string `json:"id"`
	Author   string `json:"author"`
	Function string `json:"function"`
	Size     int    `json:"size"`
}

func newRecordView(id ir.RecordID, rec ir.WaveFunction) recordView {
	return recordView{
		ID:       id.String(),
		Author:   rec.Author.String(),
		Function: ir.EncodeHex(rec.Function),
		Size:     len(rec.Function),
	}
}

// eventView is the printable form of a journaled event.
type eventView struct {
	Seq      int64  `json:"seq"`
	CallID   string `json:"call_id"`
	Name     string `json:"name"`
	ID       string `json:"id"`
	Author   string `json:"author"`
	Function string `json:"function"`
	Size     int    `json:"size"`
}

func newEventView(ev ir.Event) eventView {
	return eventView{
		Seq:      ev.Seq,
		CallID:   ev.CallID,
		Name:     ev.Name,
		ID:       ev.ID.String(),
		Author:   ev.Author.String(),
		Function: ir.EncodeHex(ev.Function),
		Size:     len(ev.Function),
	}
}

func newEventViews(events []ir.Event) []eventView {
	views := make([]eventView, len(events))
	for i, ev := range events {
		views[i] = newEventView(ev)
	}
	return views
}

// eventLine is the one-line text form of an event.
func eventLine(ev eventView) string {
	return fmt.Sprintf("%d %s %s call=%s author=%s size=%d", ev.Seq, ev.Name, ev.ID, ev.CallID, ev.Author, ev.Size)
}
