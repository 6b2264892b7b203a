package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	After int64
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List journaled events",
		Long: `List WaveFunctionAdded events in journal order.

Examples:
  wavefn events
  wavefn events --after 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with seq greater than this")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	if opts.After < 0 {
		return NewExitError(ExitCommandError, "--after must be non-negative")
	}

	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	events, err := sess.backend.ReadEvents(cmd.Context(), opts.After)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	views := newEventViews(events)
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.Success(views)
	}

	if len(views) == 0 {
		fmt.Fprintln(f.Writer, "No events.")
		return nil
	}
	for _, ev := range views {
		fmt.Fprintln(f.Writer, eventLine(ev))
	}
	return nil
}
