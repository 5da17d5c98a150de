// Package config holds the options a generation run is configured with.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nobl9/govy/pkg/govy"
	"github.com/nobl9/govy/pkg/rules"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/tsdgen/pkg/normalize"
)

// ConsoleDestination sends the declarations to standard output.
const ConsoleDestination = "console"

// DefaultDestination is the output directory used when none is configured.
const DefaultDestination = "out"

// ProjectConfigPath is read when no config file is given explicitly.
const ProjectConfigPath = ".tsdgen/config.yaml"

const defaultWatchDebounce = 200 * time.Millisecond

// Config holds the options of one run. Names follow the documentation
// generator's template options so existing config files carry over.
type Config struct {
	GenerationStrategy string   `yaml:"generationStrategy" json:"generationStrategy,omitempty"`
	Destination        string   `yaml:"destination" json:"destination,omitempty"`
	OutFile            string   `yaml:"outFile" json:"outFile,omitempty"`
	ModuleName         string   `yaml:"moduleName" json:"moduleName,omitempty"`
	Verbose            bool     `yaml:"verbose" json:"verbose,omitempty"`
	Debug              bool     `yaml:"debug" json:"debug,omitempty"`
	Check              bool     `yaml:"check" json:"check,omitempty"`
	Inputs             []string `yaml:"inputs" json:"inputs,omitempty"`
	Exclude            []string `yaml:"exclude" json:"exclude,omitempty"`
	WatchDebounceMs    int      `yaml:"watchDebounceMs" json:"watchDebounceMs,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		GenerationStrategy: string(normalize.DefaultStrategy),
		Destination:        DefaultDestination,
	}
}

// ApplyDefaults fills unset options.
func (c *Config) ApplyDefaults() {
	if c.GenerationStrategy == "" {
		c.GenerationStrategy = string(normalize.DefaultStrategy)
	}
	if c.Destination == "" {
		c.Destination = DefaultDestination
	}
}

// Strategy returns the configured generation strategy.
func (c Config) Strategy() normalize.Strategy {
	if c.GenerationStrategy == "" {
		return normalize.DefaultStrategy
	}
	return normalize.Strategy(c.GenerationStrategy)
}

// IsConsole reports whether output goes to standard output.
func (c Config) IsConsole() bool {
	return c.Destination == ConsoleDestination
}

// WatchDebounce returns the delay between a dump change and regeneration.
func (c Config) WatchDebounce() time.Duration {
	if c.WatchDebounceMs <= 0 {
		return defaultWatchDebounce
	}
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

var validator = govy.New(
	govy.For(func(c Config) string { return c.GenerationStrategy }).
		WithName("generationStrategy").
		Rules(rules.OneOf(normalize.Strategies()...)),
	govy.For(func(c Config) string { return c.Destination }).
		WithName("destination").
		Rules(rules.StringNotEmpty()),
	govy.For(func(c Config) string { return c.OutFile }).
		WithName("outFile").
		OmitEmpty().
		Rules(govy.NewRule(func(v string) error {
			if strings.ContainsAny(v, `/\`) {
				return errors.New("must be a file name, not a path")
			}
			return nil
		}).WithDescription("must not contain path separators")),
	govy.For(func(c Config) int { return c.WatchDebounceMs }).
		WithName("watchDebounceMs").
		Rules(rules.GTE(0)),
).WithName("Config")

// Validate checks the option values.
func (c Config) Validate() error {
	return validator.Validate(c)
}

// Load reads a YAML config file, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse decodes YAML config, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config YAML")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadProject reads ProjectConfigPath below dir.
// Returns nil (no error) if the file does not exist.
func LoadProject(dir string) (*Config, error) {
	path := filepath.Join(dir, ProjectConfigPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return Load(path)
}

// Merge overlays the non-zero fields of override onto c.
func (c Config) Merge(override Config) Config {
	out := c
	if override.GenerationStrategy != "" {
		out.GenerationStrategy = override.GenerationStrategy
	}
	if override.Destination != "" {
		out.Destination = override.Destination
	}
	if override.OutFile != "" {
		out.OutFile = override.OutFile
	}
	if override.ModuleName != "" {
		out.ModuleName = override.ModuleName
	}
	if len(override.Inputs) > 0 {
		out.Inputs = override.Inputs
	}
	if len(override.Exclude) > 0 {
		out.Exclude = override.Exclude
	}
	if override.WatchDebounceMs > 0 {
		out.WatchDebounceMs = override.WatchDebounceMs
	}
	out.Verbose = out.Verbose || override.Verbose
	out.Debug = out.Debug || override.Debug
	out.Check = out.Check || override.Check
	return out
}
