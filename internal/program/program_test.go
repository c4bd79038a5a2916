package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/tsclass/internal/overlay"
)

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func key(root, name string) string {
	return overlay.Key(filepath.Join(root, filepath.FromSlash(name)))
}

func TestEnsureNoConfig(t *testing.T) {
	c := New(Options{Cwd: t.TempDir(), ConfigName: "tsclass-test-missing.json"})
	_, err := c.Ensure("/nowhere/a.ts", "const a = 1")
	require.ErrorIs(t, err, ErrNoConfig)
	assert.Nil(t, c.Checker())
	assert.Nil(t, c.Program())
}

func TestEnsureProjectFile(t *testing.T) {
	root := project(t, map[string]string{
		"tsconfig.json": `{ "include": ["src"] }`,
		"src/a.ts":      "export const a = 'x' as 'x' | 'y'",
		"src/b.ts":      "import { a } from './a'\nexport const b = a",
	})
	c := New(Options{Cwd: root})

	f, err := c.Ensure(key(root, "src/b.ts"), "ignored")
	require.NoError(t, err)
	assert.Equal(t, key(root, "src/b.ts"), f.Path)
	assert.Equal(t, []string{key(root, "src/a.ts"), key(root, "src/b.ts")}, c.Roots())
	assert.False(t, c.Overlay().Has(key(root, "src/b.ts")), "project roots need no fallback")
	require.NotNil(t, c.Checker())
}

func TestEnsureFallback(t *testing.T) {
	root := project(t, map[string]string{
		"tsconfig.json": `{ "include": ["src"] }`,
		"src/a.ts":      "export const a = 1",
	})
	c := New(Options{Cwd: root})

	before, err := c.Ensure(key(root, "src/a.ts"), "")
	require.NoError(t, err)

	inline := key(root, "inline/x.ts")
	f, err := c.Ensure(inline, "const x = 'p-4' as const")
	require.NoError(t, err)
	assert.Equal(t, "const x = 'p-4' as const", string(f.Text))
	assert.True(t, c.Overlay().Has(inline))
	assert.Contains(t, c.Roots(), inline)

	after := c.Program().SourceFile(key(root, "src/a.ts"))
	assert.Same(t, before, after, "unchanged files are reused across rebuilds")

	again, err := c.Ensure(inline, "const x = 'other'")
	require.NoError(t, err)
	assert.Same(t, f, again, "roots are monotonic within a batch")
	assert.Len(t, c.Roots(), 2)
}

func TestEnsureOverlayEntry(t *testing.T) {
	root := project(t, map[string]string{
		"tsconfig.json": `{ "files": [] }`,
	})
	store := overlay.New()
	id := key(root, "App.vue.1234abcd.ts")
	store.Set(id, "export const a = 'x'")

	c := New(Options{Cwd: root, Overlay: store})
	f, err := c.Ensure(id, "fallback is not used")
	require.NoError(t, err)
	assert.Equal(t, "export const a = 'x'", string(f.Text))
}

func TestEnsureReadsDiskOncePerBatch(t *testing.T) {
	root := project(t, map[string]string{
		"tsconfig.json": `{ "include": ["src"] }`,
		"src/a.ts":      "export const a = 'x'",
	})
	c := New(Options{Cwd: root})

	a := key(root, "src/a.ts")
	before, err := c.Ensure(a, "")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("export const a = 'y'"), 0o644))
	_, err = c.Ensure(key(root, "inline.ts"), "const b = 1")
	require.NoError(t, err)
	assert.Same(t, before, c.Program().SourceFile(a), "growing the roots does not re-read unchanged files")

	c.Reset()
	after, err := c.Ensure(a, "")
	require.NoError(t, err)
	assert.Equal(t, "export const a = 'y'", string(after.Text))
}

func TestReset(t *testing.T) {
	root := project(t, map[string]string{
		"tsconfig.json": `{ "files": [] }`,
	})
	c := New(Options{Cwd: root})

	inline := key(root, "inline.ts")
	_, err := c.Ensure(inline, "const a = 1")
	require.NoError(t, err)

	c.Reset()
	assert.Nil(t, c.Program())
	assert.Empty(t, c.Roots())
	assert.Equal(t, 0, c.Overlay().Len())

	f, err := c.Ensure(inline, "const a = 2")
	require.NoError(t, err)
	assert.Equal(t, "const a = 2", string(f.Text), "no overlay survives a reset")
}
