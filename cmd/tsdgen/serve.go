package main

import (
	"github.com/spf13/cobra"

	"github.com/gnana997/tsdgen/pkg/check"
	"github.com/gnana997/tsdgen/pkg/config"
	mcpserver "github.com/gnana997/tsdgen/pkg/mcp"
	"github.com/gnana997/tsdgen/pkg/mcplog"
	"github.com/gnana997/tsdgen/pkg/parser"
	"github.com/gnana997/tsdgen/pkg/parser/queries"
	"github.com/gnana997/tsdgen/pkg/publish"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("log-file", "", "append one JSON line per tool call to this file")
	cmd.Flags().Int("cache-size", publish.DefaultCacheSize, "compiled outputs kept in memory")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	logger := newCmdLogger(cmd, config.Config{Verbose: verbose, Debug: debug})

	logPath, _ := cmd.Flags().GetString("log-file")
	toolLog, err := mcplog.NewLogger(logPath)
	if err != nil {
		return err
	}
	defer toolLog.Close()

	cacheSize, _ := cmd.Flags().GetInt("cache-size")
	compiler, err := publish.NewCompiler(cacheSize, logger)
	if err != nil {
		return err
	}

	pm := parser.NewParserManager(logger, 0)
	defer pm.Close()
	qm := queries.NewQueryManager(pm, logger)
	defer qm.Close()

	srv := mcpserver.NewServer(compiler, check.NewChecker(pm, qm, logger), toolLog, logger)
	err = srv.ServeStdio()

	cs := compiler.Stats()
	logger.Info("server stopped",
		"compile_cache_hits", cs.Hits,
		"compile_cache_misses", cs.Misses,
		"tool_calls_logged", toolLog.Written())
	return err
}
