package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gnana997/tsdgen/pkg/check"
	"github.com/gnana997/tsdgen/pkg/parser"
	"github.com/gnana997/tsdgen/pkg/parser/queries"
	"github.com/gnana997/tsdgen/pkg/publish"
	"github.com/gnana997/tsdgen/pkg/util"
	"github.com/gnana997/tsdgen/pkg/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <dump> [dump...]",
		Short: "Regenerate the .d.ts file whenever a doclet dump changes",
		RunE:  runWatch,
	}
	addOutputFlags(cmd)
	cmd.Flags().Int("debounce", 0, "milliseconds to wait for a burst of changes to settle")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if ms, _ := cmd.Flags().GetInt("debounce"); ms > 0 {
		cfg.WatchDebounceMs = ms
	}
	logger := newCmdLogger(cmd, cfg)

	cache := util.NewFileCache(nil)
	defer cache.Close()

	compiler, err := publish.NewCompiler(0, logger)
	if err != nil {
		return err
	}

	opts := []publish.Option{
		publish.WithStdout(cmd.OutOrStdout()),
		publish.WithLogger(logger),
		publish.WithCompiler(compiler),
	}
	if cfg.Check {
		// One parser pool serves every regeneration.
		pm := parser.NewParserManager(logger, 0)
		defer pm.Close()
		qm := queries.NewQueryManager(pm, logger)
		defer qm.Close()
		opts = append(opts, publish.WithChecker(check.NewChecker(pm, qm, logger)))
	}

	errOut := cmd.ErrOrStderr()
	regenerate := func(changed []string) error {
		if n := cache.Invalidate(changed...); n > 0 {
			logger.Debug("reloading changed dumps", "paths", changed, "cached", n)
		}
		store, err := loadDoclets(cmd.Context(), cmd, cache, cfg, logger)
		if err != nil {
			return err
		}
		result, err := publish.Publish(store, cfg, opts...)
		if err != nil {
			return err
		}
		if !cfg.IsConsole() {
			fmt.Fprintf(errOut, "%s %s\n", color.GreenString("✓"), result.Summary())
		}
		return nil
	}

	w, err := watch.New(watch.Options{
		Patterns: cfg.Inputs,
		Exclude:  cfg.Exclude,
		Debounce: cfg.WatchDebounce(),
	}, regenerate, logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	// A broken first run is reported; the next change retries.
	if err := regenerate(nil); err != nil {
		fmt.Fprintf(errOut, "%s %v\n", color.RedString("✗"), err)
	}

	if err := w.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	stats := w.GetStats()
	cs := compiler.Stats()
	fs := cache.Stats()
	logger.Info("watch finished",
		"regenerations", stats.Regenerations,
		"failures", stats.Failures,
		"compile_cache_hits", cs.Hits,
		"dump_loads", fs.Loads,
		"dump_cache_hits", fs.Hits)
	return nil
}
