package main

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gnana997/tsdgen/pkg/check"
	"github.com/gnana997/tsdgen/pkg/config"
	"github.com/gnana997/tsdgen/pkg/parser"
	"github.com/gnana997/tsdgen/pkg/parser/queries"
	"github.com/gnana997/tsdgen/pkg/util"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <file.d.ts|dir> [...]",
		Short: "Parse declaration files and report syntax errors",
		Long: `Parse declaration files and report syntax errors.

A directory argument checks every .d.ts, .d.mts and .d.cts file below it,
skipping node_modules.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().Int("workers", 0, "files checked at once (default: based on CPU count)")
	cmd.Flags().Bool("symbols", false, "list declared symbols")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	logger := newCmdLogger(cmd, config.Config{Verbose: verbose, Debug: debug})

	workers, _ := cmd.Flags().GetInt("workers")
	showSymbols, _ := cmd.Flags().GetBool("symbols")

	pm := parser.NewParserManager(logger, workers)
	defer pm.Close()
	qm := queries.NewQueryManager(pm, logger)
	defer qm.Close()
	cache := util.NewFileCache(nil)
	defer cache.Close()

	paths, err := check.DeclarationFiles(args)
	if err != nil {
		return err
	}

	checker := check.NewChecker(pm, qm, logger)
	results, err := checker.CheckFiles(cmd.Context(), cache, paths, workers)
	if err != nil {
		return err
	}
	ps := pm.GetStats()
	logger.Info("checked declaration files",
		"files", len(results),
		"parses", ps.ParsesCalled,
		"parsers", ps.ParsersCreated)

	w := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			fmt.Fprintf(w, "%s %s\n", color.RedString("✗"), r.Path)
			for _, e := range r.SyntaxErrors {
				fmt.Fprintf(w, "    %s\n", e)
			}
			continue
		}

		fmt.Fprintf(w, "%s %s  (%d symbols)\n", color.GreenString("✓"), r.Path, len(r.Symbols))
		if len(r.Undeclared) > 0 {
			fmt.Fprintf(w, "    %s %s\n", color.YellowString("undeclared:"), strings.Join(r.Undeclared, ", "))
		}
		if showSymbols {
			for _, s := range r.Symbols {
				fmt.Fprintf(w, "    %s\n", s)
			}
		}
	}

	if failed > 0 {
		return errors.Newf("%d of %d file(s) have syntax errors", failed, len(results))
	}
	return nil
}
