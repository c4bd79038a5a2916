package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yacobolo/tsclass"
	"github.com/yacobolo/tsclass/internal/split"
)

// errFailedFiles signals a strict run with failed files. main exits 1
// without printing it again.
var errFailedFiles = errors.New("extraction failed for some files")

var extractCmd = &cobra.Command{
	Use:     "extract",
	Aliases: []string{"x"},
	Short:   "Extract class tokens from TypeScript and Vue files",
	Long: `Type-check the matched files against the nearest tsconfig.json and print
every class token their string literal types can produce.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runExtract(cmd.Context())
	},
}

func init() {
	addExtractFlags(extractCmd)
}

func addExtractFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("paths", tsclass.DefaultPatterns, "File patterns to scan, relative to --cwd")
	f.String("output-format", "", "Output format: text|files|json|issues")
	f.String("out", "", "Write output to a file instead of stdout")
	f.Bool("strict", false, "Exit 1 when any file failed")
	f.Bool("summary", false, "Print counts after the output")
	f.Bool("no-gitignore", false, "Do not filter files through .gitignore")
	f.Int("jobs", 0, "Concurrent file reads (0 = GOMAXPROCS)")
}

// runExtract is shared between the root command and `tsclass extract`.
func runExtract(ctx context.Context) error {
	config := buildExtractConfig()
	logger := newLogger(config)

	result, err := extractOnce(ctx, config, logger)
	if err != nil {
		return err
	}
	if err := writeResult(result, config); err != nil {
		return err
	}

	if config.Strict && len(result.Failed()) > 0 {
		return errFailedFiles
	}
	return nil
}

// extractOnce expands the configured patterns and runs one batch.
func extractOnce(ctx context.Context, config extractConfig, logger *log.Logger) (*tsclass.BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cwd, err := resolveCwd(config.Cwd)
	if err != nil {
		return nil, err
	}
	splitter, err := split.Parse(config.SplitMode, config.Split)
	if err != nil {
		return nil, err
	}

	files, stats, err := tsclass.ExpandFiles(config.Paths, tsclass.ScanOptions{
		Root:        cwd,
		NoGitIgnore: config.NoGitIgnore,
	})
	if err != nil {
		return nil, fmt.Errorf("expanding paths: %w", err)
	}
	logger.Debug("scanned files", "discovered", stats.FilesDiscovered, "scanned", stats.FilesScanned, "skipped", stats.FilesSkipped)

	extractor := tsclass.New(tsclass.Options{
		Split:      splitter,
		Silent:     config.Silent,
		Cwd:        cwd,
		ConfigName: config.TSConfig,
		Logger:     logger,
	})
	result, err := tsclass.Run(ctx, tsclass.BatchConfig{
		Files:     files,
		Extractor: extractor,
		Jobs:      config.Jobs,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("extracted tokens", "files", len(result.Files), "tokens", result.Tokens.Len(), "failed", len(result.Failed()))
	return result, nil
}

// writeResult writes the result in the configured format. Failures are
// echoed to stderr as issues when the main format does not show them.
func writeResult(result *tsclass.BatchResult, config extractConfig) error {
	if config.Quiet {
		return nil
	}
	format := tsclass.DetermineOutputFormat(config.OutputFormat, false)

	outputConfig := tsclass.OutputConfig{UseColors: config.Color && config.Out == "", Summary: config.Summary}
	if config.Out == "" {
		if err := tsclass.WriteOutput(os.Stdout, result, format, outputConfig); err != nil {
			return err
		}
	} else if err := writeOutFile(config.Out, result, format, outputConfig); err != nil {
		return err
	}

	if format != tsclass.OutputIssues && format != tsclass.OutputJSON && len(result.Failed()) > 0 {
		return tsclass.WriteOutput(os.Stderr, result, tsclass.OutputIssues, tsclass.OutputConfig{UseColors: config.Color})
	}
	return nil
}

// writeOutFile writes the report to path. A failed close is reported like a
// failed write since the file may be truncated.
func writeOutFile(path string, result *tsclass.BatchResult, format tsclass.OutputFormat, config tsclass.OutputConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := tsclass.WriteOutput(f, result, format, config); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}

func resolveCwd(cwd string) (string, error) {
	if cwd == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("resolving --cwd: %w", err)
	}
	return abs, nil
}

func newLogger(config extractConfig) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "tsclass"})
	switch {
	case config.Quiet:
		logger.SetLevel(log.ErrorLevel)
	case config.Verbose:
		logger.SetLevel(log.DebugLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}
