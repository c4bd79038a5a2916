package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yacobolo/tsclass/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-extract tokens whenever a source file changes",
	Long: `Run one extraction, then watch the project directory and run a fresh
extraction after every burst of changes to matching files.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx)
	},
}

func init() {
	addExtractFlags(watchCmd)
	f := watchCmd.Flags()
	f.Duration("debounce", watch.DefaultDebounce, "Quiet period before re-running")
	f.StringSlice("ignore", nil, "Additional patterns to ignore")
}

func runWatch(ctx context.Context) error {
	config := buildWatchConfig()
	logger := newLogger(config.extractConfig)

	cwd, err := resolveCwd(config.Cwd)
	if err != nil {
		return err
	}
	config.Cwd = cwd

	pass := func(ctx context.Context) error {
		result, err := extractOnce(ctx, config.extractConfig, logger)
		if err != nil {
			return err
		}
		return writeResult(result, config.extractConfig)
	}
	if err := pass(ctx); err != nil {
		logger.Error("initial extraction failed", "err", err)
	}

	w, err := watch.New(watch.Config{
		Root:     cwd,
		Patterns: config.Paths,
		Ignore:   config.Ignore,
		Debounce: config.Debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("change detected", "files", changed)
			return pass(ctx)
		},
	})
	if err != nil {
		return err
	}
	logger.Info("watching for changes", "dir", cwd)
	return w.Run(ctx)
}
