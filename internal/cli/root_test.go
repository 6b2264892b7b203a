package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "wavefn", cmd.Use)
	assert.Contains(t, cmd.Long, "WaveFunctionAdded")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"submit", "get", "events", "hash", "verify", "run", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "driver"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Empty(t, flag.DefValue, name)
	}
}

func TestSubmitCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	submitCmd, _, err := cmd.Find([]string{"submit"})
	require.NoError(t, err)

	for _, name := range []string{"author", "file", "data", "hex"} {
		assert.NotNil(t, submitCmd.Flags().Lookup(name), name)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	for _, name := range []string{"golden", "update", "filter"} {
		assert.NotNil(t, testCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execCLI(t, "", "events", "--driver", "memory", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wavefn.yaml", `
registry:
  max_bytes: 16
  hashing: sha256
database:
  driver: sqlite
  path: from-file.db
logging:
  level: warn
`)

	cfg, err := loadConfig(&RootOptions{Config: path, Database: "from-flag.db", Verbose: true})
	require.NoError(t, err)

	assert.Equal(t, uint32(16), cfg.Registry.MaxBytes)
	assert.Equal(t, "sha256", cfg.Registry.Hashing)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "from-flag.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_InvalidDriver(t *testing.T) {
	_, err := loadConfig(&RootOptions{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config schema")
}

func TestConfigErrorIsCommandError(t *testing.T) {
	_, _, err := execCLI(t, "", "events", "--config", "/nonexistent/wavefn.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid configuration")
}
