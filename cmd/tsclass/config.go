package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yacobolo/tsclass"
)

const defaultConfigFile = ".tsclass.yaml"

var k = koanf.New(".")

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	k = koanf.New(".")

	// Resolve config file path from flag
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = defaultConfigFile
	}

	// Load config file and env vars
	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// 3. CLI flags (highest precedence, only flags that were explicitly set)
	flags := cmd.Flags()
	provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return f.Name, posflag.FlagVal(flags, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

// loadConfigFromPath loads configuration from a file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// 1. Config file (lowest precedence among providers)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// 2. Environment variables (TSCLASS_* prefix)
	if err := k.Load(env.Provider("TSCLASS_", ".", envKey), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// envKey maps an environment variable to a config key:
//
//	TSCLASS_SPLIT_MODE            -> split-mode
//	TSCLASS_EXTRACT_OUTPUT_FORMAT -> extract.output-format
//	TSCLASS_WATCH_DEBOUNCE        -> watch.debounce
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "TSCLASS_"))
	for _, section := range []string{"extract_", "watch_"} {
		if rest, ok := strings.CutPrefix(key, section); ok {
			return strings.TrimSuffix(section, "_") + "." + strings.ReplaceAll(rest, "_", "-")
		}
	}
	return strings.ReplaceAll(key, "_", "-")
}

// extractConfig is the resolved configuration of one extract or watch run.
type extractConfig struct {
	Cwd          string
	TSConfig     string
	SplitMode    string
	Split        string
	Silent       bool
	Verbose      bool
	Quiet        bool
	Color        bool
	Paths        []string
	OutputFormat string
	Out          string
	Strict       bool
	Summary      bool
	NoGitIgnore  bool
	Jobs         int
}

// watchConfig adds the watch settings to an extractConfig.
type watchConfig struct {
	extractConfig
	Debounce time.Duration
	Ignore   []string
}

// buildExtractConfig constructs the run configuration from koanf state.
func buildExtractConfig() extractConfig {
	config := extractConfig{
		Cwd:          getStringWithFallback("cwd", "cwd", ""),
		TSConfig:     getStringWithFallback("tsconfig", "tsconfig", "tsconfig.json"),
		SplitMode:    getStringWithFallback("split-mode", "split-mode", "default"),
		Split:        getStringWithFallback("split", "split", ""),
		Silent:       getBoolWithFallback("silent", "silent", false),
		Verbose:      getBoolWithFallback("verbose", "verbose", false),
		Quiet:        getBoolWithFallback("quiet", "quiet", false),
		Color:        getBoolWithFallback("color", "color", false),
		OutputFormat: getStringWithFallback("output-format", "extract.output-format", ""),
		Out:          getStringWithFallback("out", "extract.out", ""),
		Strict:       getBoolWithFallback("strict", "extract.strict", false),
		Summary:      getBoolWithFallback("summary", "extract.summary", false),
		NoGitIgnore:  getBoolWithFallback("no-gitignore", "extract.no-gitignore", false),
		Jobs:         getIntWithFallback("jobs", "extract.jobs", 0),
	}

	// Handle paths: check flag key first, then config key
	if paths := k.Strings("paths"); len(paths) > 0 {
		config.Paths = paths
	} else if paths := k.Strings("extract.paths"); len(paths) > 0 {
		config.Paths = paths
	} else {
		config.Paths = tsclass.DefaultPatterns
	}

	return config
}

// buildWatchConfig extends buildExtractConfig with the watch section.
func buildWatchConfig() watchConfig {
	config := watchConfig{
		extractConfig: buildExtractConfig(),
		Debounce:      getDurationWithFallback("debounce", "watch.debounce", 300*time.Millisecond),
	}
	if ignore := k.Strings("ignore"); len(ignore) > 0 {
		config.Ignore = ignore
	} else {
		config.Ignore = k.Strings("watch.ignore")
	}
	return config
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getIntWithFallback checks the flag key first, then the config file key, then returns the default.
func getIntWithFallback(flagKey, configKey string, defaultVal int) int {
	if k.Exists(flagKey) {
		return k.Int(flagKey)
	}
	if k.Exists(configKey) {
		return k.Int(configKey)
	}
	return defaultVal
}

// getDurationWithFallback checks the flag key first, then the config file key, then returns the default.
func getDurationWithFallback(flagKey, configKey string, defaultVal time.Duration) time.Duration {
	if k.Exists(flagKey) {
		return k.Duration(flagKey)
	}
	if k.Exists(configKey) {
		return k.Duration(configKey)
	}
	return defaultVal
}
