package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gnana997/tsdgen/pkg/config"
	"github.com/gnana997/tsdgen/pkg/util"
)

const version = "0.1.0-dev"

// newRootCmd builds the command tree. Tests build a fresh tree per run.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tsdgen",
		Short: "Generate TypeScript declaration files from JSDoc doclets",
		Long: `tsdgen compiles the doclets emitted by a JSDoc run (jsdoc -X) into a
single ambient module declaration (.d.ts).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default "+config.ProjectConfigPath+" if present)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log progress")
	root.PersistentFlags().Bool("debug", false, "log debugging detail")
	root.PersistentFlags().String("log-format", string(util.FormatText), "log format (text|json)")

	root.AddCommand(
		newGenerateCmd(),
		newInspectCmd(),
		newCheckCmd(),
		newWatchCmd(),
		newServeCmd(),
		newSetupCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

// newCmdLogger creates the logger for one command. Logs always go to stderr.
func newCmdLogger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	lc := util.DefaultLoggerConfig()
	lc.Level = util.LevelFromFlags(cfg.Verbose, cfg.Debug)
	lc.Output = cmd.ErrOrStderr()
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		lc.Format = util.LogFormat(format)
	}
	logger := util.NewLogger(lc)
	util.SetDefault(logger)
	return logger
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tsdgen %s\n", version)
		},
	}
}
