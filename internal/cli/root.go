package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/wavefn/internal/config"
	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/runtime"
	"github.com/roach88/wavefn/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // config file path, empty for defaults
	Database string // overrides database.path
	Driver   string // overrides database.driver
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wavefn CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wavefn",
		Short: "wavefn - content-addressed wave-function registry",
		Long: `A registry that stores opaque wave-function payloads under the hash of
their content and author, and journals a WaveFunctionAdded event for every
accepted submission.`,
		Version: ir.EngineVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to config file (.yaml or .toml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "storage driver: sqlite3, sqlite or memory (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.Driver != "" {
		cfg.Database.Driver = opts.Driver
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is the configured state a command works against.
type session struct {
	cfg     *config.Config
	hasher  ir.Hasher
	logger  *slog.Logger
	backend store.Backend
}

// openSession loads configuration, builds the logger and opens the backend.
// Failures are command errors.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	s, err := newSession(opts, cmd)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(s.cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	s.backend = backend
	s.logger.Debug("database ready", "driver", s.cfg.Database.Driver, "path", s.cfg.Database.Path)

	return s, nil
}

// newSession is openSession without a backend, for commands that never
// touch storage.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	hasher, err := cfg.Hasher()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	return &session{
		cfg:    cfg,
		hasher: hasher,
		logger: cfg.Logging.NewLogger(cmd.ErrOrStderr()),
	}, nil
}

// openBackend opens the storage backend named by the database config.
func openBackend(db config.DatabaseConfig) (store.Backend, error) {
	if db.Driver == config.DriverMemory {
		return store.NewMemStore(), nil
	}
	return store.OpenWithDriver(db.Driver, db.Path)
}

// newEngine builds an engine over the session's backend.
func (s *session) newEngine(opts ...runtime.Option) *runtime.Engine {
	base := []runtime.Option{
		runtime.WithMaxBytes(s.cfg.Registry.MaxBytes),
		runtime.WithHasher(s.hasher),
		runtime.WithLogger(s.logger),
	}
	return runtime.New(s.backend, append(base, opts...)...)
}

// Close releases the backend.
func (s *session) Close() {
	if s.backend == nil {
		return
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// newFormatter builds the output formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
