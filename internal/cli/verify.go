package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wavefn/internal/store"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute every record id",
		Long: `Recompute the id of every stored record and check the journal against
the map.

A store written with a different hashing algorithm reports every record.

Exit codes:
  0 - Every id matches
  1 - Mismatches found
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}

	return cmd
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	report, err := store.Verify(cmd.Context(), sess.backend, sess.hasher)
	if err != nil {
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	f := newFormatter(opts, cmd)
	problems := len(report.Mismatches) + len(report.EventProblems)

	if opts.Format == "json" {
		if report.OK() {
			return f.Success(report)
		}
		if err := f.Error("VERIFY_MISMATCH", fmt.Sprintf("%d problem(s) found", problems), report); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "verification found mismatches")
	}

	w := f.Writer
	for _, m := range report.Mismatches {
		fmt.Fprintf(w, "%s record %s hashes to %s\n", failMark(), m.Stored, m.Computed)
	}
	for _, p := range report.EventProblems {
		fmt.Fprintf(w, "%s event %d (%s): %s\n", failMark(), p.Seq, p.ID, p.Reason)
	}

	fmt.Fprintf(w, "Verified %d records, %d events with %s\n", report.Records, report.Events, report.Hasher)
	if !report.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) found", problems))
	}
	fmt.Fprintf(w, "%s All ids match\n", passMark())
	return nil
}
