package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gnana997/tsdgen/pkg/config"
	"github.com/gnana997/tsdgen/pkg/doclet"
	"github.com/gnana997/tsdgen/pkg/publish"
	"github.com/gnana997/tsdgen/pkg/util"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [flags] <dump> [dump...]",
		Short: "Compile doclet dumps into a .d.ts file",
		Long: `Compile one or more doclet dumps (JSON or msgpack arrays) into a single
declaration file. Inputs are glob patterns; "-" reads a JSON dump from stdin.
Inputs may also come from the config file.`,
		RunE: runGenerate,
	}
	addOutputFlags(cmd)
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newCmdLogger(cmd, cfg)

	cache := util.NewFileCache(nil)
	defer cache.Close()

	store, err := loadDoclets(cmd.Context(), cmd, cache, cfg, logger)
	if err != nil {
		return err
	}

	result, err := publish.Publish(store, cfg,
		publish.WithStdout(cmd.OutOrStdout()),
		publish.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if !cfg.IsConsole() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.GreenString("✓"), result.Summary())
	}
	return nil
}

// loadDoclets reads every configured input into one store.
func loadDoclets(ctx context.Context, cmd *cobra.Command, cache util.FileCache, cfg config.Config, logger *slog.Logger) (*doclet.Store, error) {
	if len(cfg.Inputs) == 0 {
		return nil, errors.New("no inputs: pass doclet dumps or set inputs in the config file")
	}

	workers, _ := cmd.Flags().GetInt("workers")
	loader := doclet.NewLoader(cache, logger,
		doclet.WithStdin(cmd.InOrStdin()),
		doclet.WithPoolSize(workers),
	)
	store, err := loader.LoadPatterns(ctx, cfg.Inputs, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded doclets", "inputs", len(cfg.Inputs), "doclets", store.Len())
	return store, nil
}
