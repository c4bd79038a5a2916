package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s := New()
	_, ok := s.Get("/src/a.ts")
	require.False(t, ok)

	s.Set("/src/a.ts", "const a = 1")
	text, ok := s.Get("/src/./a.ts")
	require.True(t, ok)
	assert.Equal(t, "const a = 1", text)

	s.Set("/src/a.ts", "const a = 2")
	text, _ = s.Get("/src/a.ts")
	assert.Equal(t, "const a = 2", text, "re-setting overwrites")
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.False(t, s.Has("/src/a.ts"))
	assert.Equal(t, 0, s.Len())
}
