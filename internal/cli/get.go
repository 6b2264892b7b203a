package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/store"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <record-id>",
		Short: "Show a stored wave function",
		Long: `Read the record stored under a record id.

Example:
  wavefn get 0x494123d17e2e545d843f583db7bcd37dc64c0b7ed333aef602f256c3502aced3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runGet(opts *RootOptions, arg string, cmd *cobra.Command) error {
	id, err := ir.ParseRecordID(arg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid record id", err)
	}

	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	f := newFormatter(opts, cmd)

	rec, err := sess.backend.Get(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		if err := f.Error("NOT_FOUND", fmt.Sprintf("no record stored at %s", id), nil); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "record not found")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read record", err)
	}

	view := newRecordView(id, rec)
	if opts.Format == "json" {
		return f.Success(view)
	}

	fmt.Fprintln(f.Writer, view.ID)
	f.Field("author", view.Author)
	f.Field("size", view.Size)
	f.Field("function", view.Function)
	return nil
}
