package literal

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/tsclass/internal/checker"
	"github.com/yacobolo/tsclass/internal/overlay"
	"github.com/yacobolo/tsclass/internal/split"
)

func program(t *testing.T, source string) (*checker.SourceFile, *checker.Checker) {
	t.Helper()
	store := overlay.New()
	store.Set("/src/input.ts", source)
	p := checker.NewProgram(checker.ProgramOptions{
		Roots: []string{"/src/input.ts"},
		Host:  checker.NewOverlayHost(store),
	})
	f := p.SourceFile("/src/input.ts")
	require.NotNil(t, f)
	return f, p.TypeChecker()
}

func collect(t *testing.T, source string) []string {
	t.Helper()
	f, c := program(t, source)
	set := map[string]bool{}
	Collect(f, c, split.Default(), func(tok string) { set[tok] = true })
	out := make([]string, 0, len(set))
	for tok := range set {
		out = append(out, tok)
	}
	slices.Sort(out)
	return out
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "const template cross product",
			source: "const c = `size-${1 as 1|2|3} bg-${'red' as 'red'|'blue'}` as const",
			want:   []string{"bg-blue", "bg-red", "blue", "red", "size-1", "size-2", "size-3"},
		},
		{
			name:   "union assertion",
			source: "const x = 'p-4 m-2' as 'p-4 m-2' | 'flex'",
			want:   []string{"flex", "m-2", "p-4"},
		},
		{
			name:   "plain string contributes nothing",
			source: "declare const s: string\nconst y: string = s",
			want:   []string{},
		},
		{
			name:   "literal nested in unknown call",
			source: "declare const cx: any\ncx('text-sm')",
			want:   []string{"text-sm"},
		},
		{
			name:   "object property values",
			source: "const variants = { primary: 'bg-blue-500', danger: 'bg-red-500' } as const\nconst v = variants.primary",
			want:   []string{"bg-blue-500", "bg-red-500"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect(t, tt.source))
		})
	}
}

func TestResolveEmitsOnce(t *testing.T) {
	f, c := program(t, "const a = 'x'\nconst b = 'x'\nconst u = 'x' as 'x' | 'y'")
	var got []string
	Resolve(f, c, func(v string) { got = append(got, v) })
	slices.Sort(got)
	assert.Equal(t, []string{"x", "y"}, got)
}

func TestResolveNil(t *testing.T) {
	assert.NotPanics(t, func() {
		Resolve(nil, nil, func(string) { t.Fatal("unexpected emit") })
	})
}

func TestClassify(t *testing.T) {
	assert.Equal(t, variantOther, classify(nil))
}
