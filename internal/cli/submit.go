package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/runtime"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Author  string
	Payload payloadFlags

	// CallIDs allows overriding the call id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	CallIDs runtime.CallIDGenerator
}

// SubmitResult is the output of a committed submission.
// Journal positions are reported per event; the engine's logical clock
// restarts with every process and is not shown.
type SubmitResult struct {
	CallID string      `json:"call_id"`
	ID     string      `json:"id"`
	Events []eventView `json:"events"`
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a wave function",
		Long: `Submit a wave function through add_wavefunction.

The payload is stored under the id derived from its content and author, and a
WaveFunctionAdded event is journaled. Without --author the call is unsigned and
is rejected with UNAUTHENTICATED.

Exit codes:
  0 - Stored
  1 - Rejected (UNAUTHENTICATED, PAYLOAD_TOO_LARGE, ...)
  2 - Command error

Examples:
  wavefn submit --author 0xaa…aa --data hello
  wavefn submit --author 0xaa…aa --file psi.bin --db ./wavefn.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Author, "author", "", "signing account id (omit for an unsigned call)")
	opts.Payload.bind(cmd)

	return cmd
}

func runSubmit(opts *SubmitOptions, cmd *cobra.Command) error {
	origin := runtime.None()
	if opts.Author != "" {
		author, err := ir.ParseAccountID(opts.Author)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --author", err)
		}
		origin = runtime.Signed(author)
	}

	function, err := opts.Payload.read(cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid payload", err)
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	var engineOpts []runtime.Option
	if opts.CallIDs != nil {
		engineOpts = append(engineOpts, runtime.WithCallIDs(opts.CallIDs))
	}
	eng := sess.newEngine(engineOpts...)

	receipt := eng.AddWaveFunction(cmd.Context(), origin, function)
	f := newFormatter(opts.RootOptions, cmd)

	if !receipt.OK() {
		code := runtime.ErrorCode(receipt.Err)
		if err := f.Error(code, receipt.Err.Error(), map[string]any{"call_id": receipt.CallID}); err != nil {
			return err
		}
		if code == runtime.CodeInternal {
			return WrapExitError(ExitCommandError, "submission failed", receipt.Err)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("submission rejected: %s", code))
	}

	result := SubmitResult{
		CallID: receipt.CallID,
		ID:     receipt.RecordID.String(),
		Events: newEventViews(receipt.Events),
	}

	if opts.Format == "json" {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "%s stored %s\n", passMark(), result.ID)
	f.Field("call_id", result.CallID)
	f.Field("size", len(function))
	for _, ev := range result.Events {
		f.Field("event", eventLine(ev))
	}
	return nil
}
