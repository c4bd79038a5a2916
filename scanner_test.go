package tsclass

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDeclarationFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "declaration file",
			path:     "src/env.d.ts",
			expected: true,
		},
		{
			name:     "module declaration file",
			path:     "src/types.d.mts",
			expected: true,
		},
		{
			name:     "regular script",
			path:     "src/app.ts",
			expected: false,
		},
		{
			name:     "dotted name that is not a declaration",
			path:     "src/data.dts.ts",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isDeclarationFile(tt.path)
			require.Equal(t, tt.expected, got, "isDeclarationFile(%q)", tt.path)
		})
	}
}

func TestShouldSkipFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "skip declaration file",
			path:     "src/env.d.ts",
			expected: true,
		},
		{
			name:     "skip node_modules",
			path:     "node_modules/vue/index.ts",
			expected: true,
		},
		{
			name:     "skip unsupported kind",
			path:     "src/style.css",
			expected: true,
		},
		{
			name:     "scan component",
			path:     "src/App.vue",
			expected: false,
		},
		{
			name:     "scan script",
			path:     "src/main.ts",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldSkipFile(tt.path, nil)
			require.Equal(t, tt.expected, got, "shouldSkipFile(%q)", tt.path)
		})
	}
}

// Integration test: verify filtering works end-to-end on a real tree
func TestExpandFiles(t *testing.T) {
	root := t.TempDir()
	for name, content := range map[string]string{
		".gitignore":                "dist/\n",
		"src/a.ts":                  "",
		"src/App.vue":               "",
		"src/env.d.ts":              "",
		"src/readme.md":             "",
		"dist/out.ts":               "",
		"node_modules/pkg/index.ts": "",
	} {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	files, stats, err := ExpandFiles(nil, ScanOptions{Root: root})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "src", "App.vue"),
		filepath.Join(root, "src", "a.ts"),
	}, files)
	require.Equal(t, 2, stats.FilesScanned)
	require.Equal(t, stats.FilesDiscovered-stats.FilesScanned, stats.FilesSkipped)

	files, _, err = ExpandFiles([]string{"dist/*.ts"}, ScanOptions{Root: root, NoGitIgnore: true})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "dist", "out.ts")}, files)
}
