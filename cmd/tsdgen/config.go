package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gnana997/tsdgen/pkg/config"
)

// Replaceable for testing.
var statFunc = os.Stat

// addOutputFlags registers the options shared by generate, inspect and watch.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("strategy", "s", "", "generation strategy (documented|exported)")
	f.StringP("destination", "d", "", `output directory, or "console" for stdout`)
	f.StringP("out-file", "o", "", "output file name (default: derived from the package name)")
	f.String("module-name", "", "module name when the doclets carry no module or package")
	f.StringSlice("exclude", nil, "glob patterns of dumps to skip")
	f.Bool("check", false, "parse the output and fail on syntax errors")
	f.Int("workers", 0, "dumps decoded at once (default: based on CPU count)")
}

// flagConfig collects the options set on the command line. Unset flags stay
// zero so they do not override the project config.
func flagConfig(cmd *cobra.Command, args []string) config.Config {
	f := cmd.Flags()
	var c config.Config
	c.Inputs = args

	c.Verbose, _ = f.GetBool("verbose")
	c.Debug, _ = f.GetBool("debug")
	if f.Lookup("strategy") != nil {
		c.GenerationStrategy, _ = f.GetString("strategy")
		c.Destination, _ = f.GetString("destination")
		c.OutFile, _ = f.GetString("out-file")
		c.ModuleName, _ = f.GetString("module-name")
		c.Exclude, _ = f.GetStringSlice("exclude")
		c.Check, _ = f.GetBool("check")
	}
	return c
}

// loadProjectConfig reads the config named by --config, or
// .tsdgen/config.yaml from the current directory.
// Returns nil (no error) if no file applies.
func loadProjectConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s", path)
		}
		return cfg, nil
	}
	if _, err := statFunc(config.ProjectConfigPath); err != nil {
		return nil, nil
	}
	cfg, err := config.LoadProject(".")
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", config.ProjectConfigPath)
	}
	return cfg, nil
}

// resolveConfig returns the options for one run, applying the fallback chain:
//  1. Flags and positional inputs given on the command line
//  2. The config file (--config, else .tsdgen/config.yaml)
//  3. Defaults: documented strategy, destination "out"
func resolveConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.Default()

	project, err := loadProjectConfig(cmd)
	if err != nil {
		return cfg, err
	}
	if project != nil {
		cfg = cfg.Merge(*project)
	}

	cfg = cfg.Merge(flagConfig(cmd, args))
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
