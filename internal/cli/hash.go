package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/registry"
)

// HashOptions holds flags for the hash command.
type HashOptions struct {
	*RootOptions
	Author  string
	Payload payloadFlags
}

// HashResult is the output of the hash command.
type HashResult struct {
	ID          string `json:"id"`
	Hasher      string `json:"hasher"`
	Size        int    `json:"size"`
	MaxBytes    uint32 `json:"max_bytes"`
	WithinLimit bool   `json:"within_limit"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Compute a record id without storing",
		Long: `Compute the id a submission would be stored under.

Nothing is written. The result also reports whether the payload fits the
configured max_bytes.

Example:
  wavefn hash --author 0xaa…aa --data hello`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Author, "author", "", "author account id (required)")
	_ = cmd.MarkFlagRequired("author")
	opts.Payload.bind(cmd)

	return cmd
}

func runHash(opts *HashOptions, cmd *cobra.Command) error {
	author, err := ir.ParseAccountID(opts.Author)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --author", err)
	}

	function, err := opts.Payload.read(cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid payload", err)
	}

	sess, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	reg := registry.New(nil,
		registry.WithMaxBytes(sess.cfg.Registry.MaxBytes),
		registry.WithHasher(sess.hasher),
		registry.WithLogger(nil),
	)

	id, err := reg.RecordID(author, function)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash", err)
	}

	result := HashResult{
		ID:          id.String(),
		Hasher:      reg.Hasher().String(),
		Size:        len(function),
		MaxBytes:    reg.MaxBytes(),
		WithinLimit: uint64(len(function)) <= uint64(reg.MaxBytes()),
	}

	f := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.Success(result)
	}

	fmt.Fprintln(f.Writer, result.ID)
	f.Field("hasher", result.Hasher)
	f.Field("size", result.Size)
	if !result.WithinLimit {
		f.Field("warning", fmt.Sprintf("exceeds max_bytes %d; submit would fail with PAYLOAD_TOO_LARGE", result.MaxBytes))
	}
	return nil
}
