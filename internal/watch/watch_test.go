package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIgnores(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{".git/HEAD", true},
		{"node_modules/vue/index.d.ts", true},
		{"src/node_modules/x.ts", true},
		{"src/.App.vue.swp", true},
		{"src/main.ts~", true},
		{"src/main.ts", false},
		{"src/App.vue", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, matchAny(DefaultIgnores(), tt.path))
		})
	}
}

func TestNewInvalidPattern(t *testing.T) {
	_, err := New(Config{Root: t.TempDir(), Patterns: []string{"[abc"}})
	require.Error(t, err)
}

func TestWatcherDebounce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	var (
		mu    sync.Mutex
		calls [][]string
	)
	fired := make(chan struct{}, 4)

	w, err := New(Config{
		Root:     dir,
		Patterns: []string{"**/*.{ts,vue}"},
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			calls = append(calls, changed)
			mu.Unlock()
			fired <- struct{}{}
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	for _, name := range []string{"src/a.ts", "src/App.vue", "src/notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte("x"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
	time.Sleep(250 * time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"src/App.vue", "src/a.ts"}, calls[0])
}
