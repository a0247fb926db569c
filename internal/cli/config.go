package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/toyz/bindplan/internal/errors"
	"github.com/toyz/bindplan/internal/registry"
	"github.com/toyz/bindplan/internal/union"
	"github.com/toyz/bindplan/internal/utils"
)

// Report formats understood by the report writer
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

// ConfigFileNames are looked up in the working directory, in order
var ConfigFileNames = []string{"bindplan.yaml", "bindplan.yml", "bindplan.toml"}

// Config holds the configuration for an analysis run
type Config struct {
	// Directories is the list of directories to scan for annotated Go files
	Directories []string `yaml:"directories" toml:"directories"`

	// ModuleName is the custom module name for import paths.
	// If empty, it is read from the nearest go.mod.
	ModuleName string `yaml:"module" toml:"module"`

	MaxArity       int    `yaml:"max_arity" toml:"max_arity"`
	Workers        int    `yaml:"workers" toml:"workers"` // 0 selects GOMAXPROCS
	OutcomePackage string `yaml:"outcome_package" toml:"outcome_package"`
	Format         string `yaml:"format" toml:"format"`
	Output         string `yaml:"output" toml:"output"` // empty writes to stdout
	RoutePrefix    string `yaml:"route_prefix" toml:"route_prefix"`

	// Middlewares maps extra middleware names to the status codes they can answer with
	Middlewares map[string][]int `yaml:"middlewares" toml:"middlewares"`

	Watch   bool `yaml:"-" toml:"-"`
	Verbose bool `yaml:"-" toml:"-"`

	source string // file the config was loaded from, if any
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		MaxArity: union.DefaultMaxArity,
		Format:   FormatText,
	}
}

// LoadConfig reads path, or the first of ConfigFileNames found in dir when path is empty.
// A missing default file is not an error.
func LoadConfig(path, dir string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigurationError(path, "read", err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(content), cfg); err != nil {
			return nil, errors.WrapConfigurationError(path, "decode", err)
		}
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.WrapConfigurationError(path, "decode", err)
		}
	default:
		return nil, errors.ConfigurationError(path, fmt.Sprintf("unsupported configuration format '%s'", filepath.Ext(path))).
			WithSuggestion("Use a .yaml, .yml or .toml file")
	}

	cfg.source = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Source returns the file the configuration was loaded from
func (c *Config) Source() string {
	return c.source
}

var (
	formatValidator = utils.NewValidatorChain(
		utils.IsOneOf("format", FormatText, FormatJSON, FormatYAML, FormatMsgpack),
	)
	arityValidator = utils.NewValidatorChain(
		utils.NonNegative[int]("max_arity"),
	)
	workersValidator = utils.NewValidatorChain(
		utils.NonNegative[int]("workers"),
	)
	prefixValidator = utils.NewValidatorChain(
		utils.Conditional(func(p string) bool { return p != "" }, utils.ValidateURLPath("route_prefix")),
	)
	directoriesValidator = utils.NewValidatorChain(
		utils.ValidateEach("directories", utils.NotEmpty("directory")),
	)
	middlewareNameValidator = utils.NewValidatorChain(
		utils.IsValidGoIdentifier("middlewares"),
	)
)

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := formatValidator.Validate(c.Format); err != nil {
		return errors.WrapConfigurationError(c.source, "validate", err)
	}
	if err := arityValidator.Validate(c.MaxArity); err != nil {
		return errors.WrapConfigurationError(c.source, "validate", err)
	}
	if err := workersValidator.Validate(c.Workers); err != nil {
		return errors.WrapConfigurationError(c.source, "validate", err)
	}
	if err := prefixValidator.Validate(c.RoutePrefix); err != nil {
		return errors.WrapConfigurationError(c.source, "validate", err)
	}
	if err := directoriesValidator.Validate(c.Directories); err != nil {
		return errors.WrapConfigurationError(c.source, "validate", err)
	}
	if _, err := c.MiddlewareRegistry(); err != nil {
		return errors.WrapConfigurationError(c.source, "validate", err)
	}
	return nil
}

// MiddlewareRegistry returns the builtin middlewares plus the configured ones
func (c *Config) MiddlewareRegistry() (registry.MiddlewareRegistry, error) {
	reg := registry.NewMiddlewareRegistry()

	names := make([]string, 0, len(c.Middlewares))
	for name := range c.Middlewares {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := middlewareNameValidator.Validate(name); err != nil {
			return nil, err
		}
		spec := registry.MiddlewareSpec{Name: name, Statuses: c.Middlewares[name], Description: "configured"}
		if err := reg.Register(spec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
