package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/tsclass"
)

// resetKoanf creates a fresh koanf instance for each test.
func resetKoanf() {
	k = koanf.New(".")
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(origDir)
	})
}

func TestConfigFileLoading(t *testing.T) {
	resetKoanf()

	dir := t.TempDir()
	configPath := filepath.Join(dir, ".tsclass.yaml")
	configContent := `
tsconfig: tsconfig.app.json
split-mode: literal
split: " "
verbose: true

extract:
  output-format: json
  strict: true
  jobs: 4
  paths:
    - "src/**/*.vue"

watch:
  debounce: 1s
  ignore:
    - "**/*.gen.ts"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))
	require.NoError(t, loadConfigFromPath(configPath))

	config := buildWatchConfig()
	assert.Equal(t, "tsconfig.app.json", config.TSConfig)
	assert.Equal(t, "literal", config.SplitMode)
	assert.Equal(t, " ", config.Split)
	assert.True(t, config.Verbose)
	assert.Equal(t, "json", config.OutputFormat)
	assert.True(t, config.Strict)
	assert.Equal(t, 4, config.Jobs)
	assert.Equal(t, []string{"src/**/*.vue"}, config.Paths)
	assert.Equal(t, time.Second, config.Debounce)
	assert.Equal(t, []string{"**/*.gen.ts"}, config.Ignore)
}

func TestConfigFileNotFound_UsesDefaults(t *testing.T) {
	resetKoanf()

	// Point to non-existent config, should not error
	require.NoError(t, loadConfigFromPath("/nonexistent/.tsclass.yaml"))

	config := buildWatchConfig()
	assert.Equal(t, "tsconfig.json", config.TSConfig)
	assert.Equal(t, "default", config.SplitMode)
	assert.Empty(t, config.Split)
	assert.False(t, config.Silent)
	assert.False(t, config.Strict)
	assert.Empty(t, config.OutputFormat)
	assert.Equal(t, tsclass.DefaultPatterns, config.Paths)
	assert.Equal(t, 300*time.Millisecond, config.Debounce)
	assert.Empty(t, config.Ignore)
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	resetKoanf()

	dir := t.TempDir()
	configPath := filepath.Join(dir, ".tsclass.yaml")
	configContent := `
split-mode: literal
extract:
  output-format: text
  strict: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	t.Setenv("TSCLASS_SPLIT_MODE", "none")
	t.Setenv("TSCLASS_EXTRACT_OUTPUT_FORMAT", "files")
	t.Setenv("TSCLASS_EXTRACT_STRICT", "true")

	require.NoError(t, loadConfigFromPath(configPath))

	config := buildExtractConfig()
	assert.Equal(t, "none", config.SplitMode)
	assert.Equal(t, "files", config.OutputFormat)
	assert.True(t, config.Strict)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"TSCLASS_VERBOSE", "verbose"},
		{"TSCLASS_SPLIT_MODE", "split-mode"},
		{"TSCLASS_EXTRACT_OUTPUT_FORMAT", "extract.output-format"},
		{"TSCLASS_EXTRACT_NO_GITIGNORE", "extract.no-gitignore"},
		{"TSCLASS_WATCH_DEBOUNCE", "watch.debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.env))
		})
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile("tsconfig.json", []byte(`{ "include": ["src"] }`), 0644))
	require.NoError(t, os.MkdirAll("src", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("src", "a.ts"), []byte("export const a = 'flex gap-2'\n"), 0644))
	require.NoError(t, os.WriteFile(".tsclass.yaml", []byte("split-mode: none\nextract:\n  output-format: json\n"), 0644))

	out := filepath.Join(dir, "tokens.txt")
	rootCmd.SetArgs([]string{"extract", "--cwd", dir, "--output-format", "text", "--split-mode", "default", "--out", out})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "flex\ngap-2\n", string(data))
}

func TestExtractCommandStrict(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile("tsconfig.json", []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile("Broken.vue", []byte("<template><div>"), 0644))

	out := filepath.Join(dir, "tokens.txt")
	rootCmd.SetArgs([]string{"extract", "--cwd", dir, "--output-format", "text", "--split-mode", "default", "--out", out, "--strict", "--quiet"})
	err := rootCmd.Execute()
	require.ErrorIs(t, err, errFailedFiles)
}

func TestWriteOutFile(t *testing.T) {
	dir := t.TempDir()
	result := &tsclass.BatchResult{Tokens: tsclass.NewSet("flex", "gap-2")}

	out := filepath.Join(dir, "tokens.txt")
	require.NoError(t, writeOutFile(out, result, tsclass.OutputText, tsclass.OutputConfig{}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "flex\ngap-2\n", string(data))

	err = writeOutFile(dir, result, tsclass.OutputText, tsclass.OutputConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating output file")
}

func TestInitCommand_CreatesConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"init"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Created .tsclass.yaml")

	// The generated file loads cleanly and yields the defaults
	resetKoanf()
	require.NoError(t, loadConfigFromPath(".tsclass.yaml"))
	config := buildWatchConfig()
	assert.Equal(t, "text", config.OutputFormat)
	assert.Equal(t, tsclass.DefaultPatterns, config.Paths)
	assert.Equal(t, 300*time.Millisecond, config.Debounce)
}

func TestInitCommand_RefusesOverwrite(t *testing.T) {
	chdir(t, t.TempDir())

	// Create existing file
	require.NoError(t, os.WriteFile(".tsclass.yaml", []byte("existing"), 0644))

	rootCmd.SetArgs([]string{"init"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	chdir(t, t.TempDir())

	// Create existing file
	require.NoError(t, os.WriteFile(".tsclass.yaml", []byte("existing"), 0644))

	rootCmd.SetArgs([]string{"init", "--force"})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(".tsclass.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "extract:")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "tsclass dev\n", buf.String())
}

func TestGetStringWithFallback(t *testing.T) {
	resetKoanf()

	// No keys set - should return default
	assert.Equal(t, "default", getStringWithFallback("flag-key", "config.key", "default"))
}

func TestGetBoolWithFallback(t *testing.T) {
	resetKoanf()

	// No keys set - should return default
	assert.False(t, getBoolWithFallback("flag-key", "config.key", false))
	assert.True(t, getBoolWithFallback("flag-key", "config.key", true))
}

func TestGetDurationWithFallback(t *testing.T) {
	resetKoanf()

	// No keys set - should return default
	assert.Equal(t, time.Minute, getDurationWithFallback("flag-key", "config.key", time.Minute))
}
