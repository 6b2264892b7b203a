// Package config loads wavefn configuration.
//
// Files are YAML (.yaml, .yml) or TOML (.toml). ${VAR} references are
// expanded from the environment before parsing. Values missing from the
// file keep their defaults. The result is checked against the embedded CUE
// schema, then against cross-field rules.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/registry"
)

//go:embed schema.cue
var schemaCUE string

// Database drivers. DriverMemory keeps everything in process.
const (
	DriverSQLite3 = "sqlite3"
	DriverSQLite  = "sqlite"
	DriverMemory  = "memory"
)

// Config represents the complete wavefn configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry" toml:"registry" json:"registry"`
	Database DatabaseConfig `yaml:"database" toml:"database" json:"database"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging" json:"logging"`
}

// RegistryConfig holds the registry's construction-time parameters.
type RegistryConfig struct {
	MaxBytes uint32 `yaml:"max_bytes" toml:"max_bytes" json:"max_bytes"`
	Hashing  string `yaml:"hashing" toml:"hashing" json:"hashing"`
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver" json:"driver"`
	Path   string `yaml:"path" toml:"path" json:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			MaxBytes: registry.DefaultMaxBytes,
			Hashing:  string(ir.DefaultHasher),
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite3,
			Path:   "wavefn.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (".toml", or YAML for
// anything else) over the defaults, then validates the result.
func Parse(ext string, data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the environment variable's value.
// Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks c against the schema, then the cross-field rules.
func (c *Config) Validate() error {
	if err := validateSchema(c); err != nil {
		return err
	}

	if c.Database.Driver != DriverMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.driver is %q", DriverMemory)
	}

	return nil
}

// validateSchema unifies c with #Config from schema.cue.
func validateSchema(c *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	val := ctx.Encode(c)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}

// Hasher returns the configured hash algorithm.
func (c *Config) Hasher() (ir.Hasher, error) {
	return ir.ParseHasher(c.Registry.Hashing)
}
