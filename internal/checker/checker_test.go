package checker

import (
	"crypto/sha256"
	"slices"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memHost map[string]string

func (h memHost) ReadFile(path string) (string, bool) {
	text, ok := h[path]
	return text, ok
}

func (h memHost) FileExists(path string) bool {
	_, ok := h[path]
	return ok
}

func newTestProgram(t *testing.T, files map[string]string, roots ...string) *Program {
	t.Helper()
	if len(roots) == 0 {
		for name := range files {
			roots = append(roots, name)
		}
		slices.Sort(roots)
	}
	p := NewProgram(ProgramOptions{Roots: roots, Host: memHost(files)})
	require.Empty(t, p.Missing())
	return p
}

// findExpr returns the first expression node in pre-order whose text is
// snippet.
func findExpr(t *testing.T, c *Checker, f *SourceFile, snippet string) *sitter.Node {
	t.Helper()
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if f.NodeText(n) == snippet && c.IsExpression(n) {
			found = n
			return
		}
		for _, child := range children(n) {
			walk(child)
		}
	}
	walk(f.Root())
	require.NotNil(t, found, "no expression %q in %s", snippet, f.Path)
	return found
}

func typeOf(t *testing.T, p *Program, path, snippet string) *Type {
	t.Helper()
	f := p.SourceFile(path)
	require.NotNil(t, f, "file %s not in program", path)
	c := p.TypeChecker()
	return c.TypeAtLocation(f, findExpr(t, c, f, snippet))
}

// literals returns the sorted literal values of t.
func literals(t *Type) []string {
	var out []string
	var walk func(*Type)
	walk = func(t *Type) {
		switch {
		case t.IsUnionOrIntersection():
			for _, m := range t.Types() {
				walk(m)
			}
		case t.Flags()&TypeFlagsLiteral != 0:
			out = append(out, t.Value())
		}
	}
	walk(t)
	slices.Sort(out)
	return out
}

func TestTypeAtLocation(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		snippet string
		want    []string
		flags   TypeFlags
	}{
		{
			name:    "string literal",
			source:  `const a = 'red'`,
			snippet: `'red'`,
			want:    []string{"red"},
		},
		{
			name:    "const keeps literal",
			source:  `const a = 'red'; a`,
			snippet: `a`,
			want:    []string{"red"},
		},
		{
			name:    "let widens",
			source:  `let a = 'red'`,
			snippet: `a`,
			flags:   TypeFlagsString,
		},
		{
			name:    "assertion to union",
			source:  `const color = 'red' as 'red' | 'blue'`,
			snippet: `color`,
			want:    []string{"blue", "red"},
		},
		{
			name:    "template outside const context",
			source:  "const s = 1 as 1 | 2; const c = `size-${s}`",
			snippet: "`size-${s}`",
			flags:   TypeFlagsString,
		},
		{
			name:    "template as const",
			source:  "const s = 1 as 1 | 2; const c = `size-${s}` as const",
			snippet: "c",
			want:    []string{"size-1", "size-2"},
		},
		{
			name:    "template cross product",
			source:  "const s = 1 as 1 | 2; const k = 'a' as 'a' | 'b'; const c = `${k}-${s}` as const",
			snippet: "c",
			want:    []string{"a-1", "a-2", "b-1", "b-2"},
		},
		{
			name:    "ternary",
			source:  `declare const on: boolean; const x = on ? 'p-2' : 'p-4'`,
			snippet: `on ? 'p-2' : 'p-4'`,
			want:    []string{"p-2", "p-4"},
		},
		{
			name:    "type alias",
			source:  `type Size = 'sm' | 'lg'; declare const s: Size; s`,
			snippet: `s`,
			want:    []string{"lg", "sm"},
		},
		{
			name:    "interface member",
			source:  `interface Props { variant: 'solid' | 'ghost' }; declare const p: Props; p.variant`,
			snippet: `p.variant`,
			want:    []string{"ghost", "solid"},
		},
		{
			name:    "object literal as const",
			source:  `const m = { a: 'x-1', b: 'x-2' } as const; m.a`,
			snippet: `m.a`,
			want:    []string{"x-1"},
		},
		{
			name:    "object literal widens properties",
			source:  `const m = { a: 'x-1' }; m.a`,
			snippet: `m.a`,
			flags:   TypeFlagsString,
		},
		{
			name:    "keyof typeof",
			source:  `const m = { primary: 1, danger: 2 }; type K = keyof typeof m; declare const k: K; k`,
			snippet: `k`,
			want:    []string{"danger", "primary"},
		},
		{
			name:    "string enum",
			source:  `enum Tone { Info = 'text-blue', Warn = 'text-amber' }; Tone.Info`,
			snippet: `Tone.Info`,
			want:    []string{"text-blue"},
		},
		{
			name:    "generic identity keeps literal",
			source:  `function id<T>(v: T): T { return v }; const x = id('flex')`,
			snippet: `x`,
			want:    []string{"flex"},
		},
		{
			name:    "const type parameter",
			source:  "declare function cls<const T>(v: T): string; const n = 1 as 1 | 2; cls(`m-${n}`)",
			snippet: "`m-${n}`",
			want:    []string{"m-1", "m-2"},
		},
		{
			name:    "destructuring",
			source:  `const { tone } = { tone: 'red' } as const; tone`,
			snippet: `tone`,
			want:    []string{"red"},
		},
		{
			name:    "for of element",
			source:  `const items = ['a', 'b'] as const; for (const it of items) { it }`,
			snippet: `it`,
			want:    []string{"a", "b"},
		},
		{
			name:    "template literal type",
			source:  "type N = 1 | 2; type Gap = `gap-${N}`; declare const g: Gap; g",
			snippet: `g`,
			want:    []string{"gap-1", "gap-2"},
		},
		{
			name:    "capitalize",
			source:  `declare const c: Capitalize<'red' | 'blue'>; c`,
			snippet: `c`,
			want:    []string{"Blue", "Red"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProgram(t, map[string]string{"/src/a.ts": tt.source})
			got := typeOf(t, p, "/src/a.ts", tt.snippet)
			if tt.flags != 0 {
				assert.Equal(t, tt.flags, got.Flags(), "type %s", got)
				return
			}
			assert.Equal(t, tt.want, literals(got), "type %s", got)
		})
	}
}

func TestRefInference(t *testing.T) {
	source := `import { ref, unref } from 'vue'
const size = ref<1 | 2 | 3>(1)
const color = ref('red')
const s = unref(size)
const c = unref(color)
const direct = unref('flex')
`
	p := newTestProgram(t, map[string]string{"/src/a.ts": source})

	assert.Equal(t, []string{"1", "2", "3"}, literals(typeOf(t, p, "/src/a.ts", "s")))
	assert.Equal(t, TypeFlagsString, typeOf(t, p, "/src/a.ts", "c").Flags())
	assert.Equal(t, []string{"flex"}, literals(typeOf(t, p, "/src/a.ts", "direct")))

	ref := typeOf(t, p, "/src/a.ts", "size")
	require.NotNil(t, ref.Object())
	assert.Equal(t, "Ref", ref.Object().Target.Name)
}

func TestAmbientAugmentation(t *testing.T) {
	files := map[string]string{
		"/src/a.ts":   "import { normalizeClass } from 'vue'\nconst n = 1 as 1 | 2\nnormalizeClass(`gap-${n}`)\n",
		"/src/aug.ts": "export {}\ndeclare module 'vue' { export function normalizeClass<const T>(value: T): string }\n",
	}
	p := newTestProgram(t, files)
	assert.Equal(t, []string{"gap-1", "gap-2"}, literals(typeOf(t, p, "/src/a.ts", "`gap-${n}`")))

	without := newTestProgram(t, map[string]string{"/src/a.ts": files["/src/a.ts"]})
	assert.Equal(t, TypeFlagsString, typeOf(t, without, "/src/a.ts", "`gap-${n}`").Flags())
}

func TestImports(t *testing.T) {
	files := map[string]string{
		"/src/tokens.ts": "export type Size = 'sm' | 'lg'\nexport const primary = 'bg-primary'\nexport default 'root'\n",
		"/src/barrel.ts": "export * from './tokens'\n",
		"/src/a.ts": `import type { Size } from './tokens'
import root from './tokens'
import * as tokens from './tokens'
import { primary as p } from './barrel'
declare const s: Size
s; root; tokens.primary; p
`,
	}
	p := newTestProgram(t, files, "/src/a.ts")
	require.NotNil(t, p.SourceFile("/src/tokens.ts"), "imports are followed")

	assert.Equal(t, []string{"lg", "sm"}, literals(typeOf(t, p, "/src/a.ts", "s")))
	assert.Equal(t, []string{"root"}, literals(typeOf(t, p, "/src/a.ts", "root")))
	assert.Equal(t, []string{"bg-primary"}, literals(typeOf(t, p, "/src/a.ts", "tokens.primary")))
	assert.Equal(t, []string{"bg-primary"}, literals(typeOf(t, p, "/src/a.ts", "p")))
}

func TestPathsAlias(t *testing.T) {
	files := map[string]string{
		"/proj/src/tokens.ts": "export const tone = 'text-red'\n",
		"/proj/src/a.ts":      "import { tone } from '@/tokens'\ntone\n",
	}
	p := NewProgram(ProgramOptions{
		Roots:   []string{"/proj/src/a.ts"},
		Host:    memHost(files),
		Options: CompilerOptions{ConfigDir: "/proj", Paths: map[string][]string{"@/*": {"src/*"}}},
	})
	assert.Equal(t, []string{"text-red"}, literals(typeOf(t, p, "/proj/src/a.ts", "tone")))
}

func TestIsTypeAssignableTo(t *testing.T) {
	p := newTestProgram(t, map[string]string{"/src/a.ts": "const a = 1"})
	c := p.TypeChecker()
	in := c.types
	str := c.StringType()

	tests := []struct {
		name string
		src  *Type
		want bool
	}{
		{"string", str, true},
		{"string literal", in.stringLiteral("a", false), true},
		{"union of literals", in.union(in.stringLiteral("a", false), in.stringLiteral("b", true)), true},
		{"number", in.num, false},
		{"mixed union", in.union(in.stringLiteral("a", false), in.num), false},
		{"nullable union", in.union(in.stringLiteral("a", false), in.undef), false},
		{"any", in.any, true},
		{"unknown", in.unknown, false},
		{"branded intersection", in.intersection(in.str, in.object(&ObjectType{resolved: true})), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTypeAssignableTo(tt.src, str))
		})
	}
}

func TestNewProgramReusesFiles(t *testing.T) {
	host := memHost{
		"/src/a.ts": "export const a = 'x'\n",
		"/src/b.ts": "export const b = 'y'\n",
	}
	first := NewProgram(ProgramOptions{Roots: []string{"/src/a.ts", "/src/b.ts"}, Host: host})
	a := first.SourceFile("/src/a.ts")
	_ = typeOf(t, first, "/src/a.ts", "a")

	host["/src/b.ts"] = "export const b = 'z'\n"
	host["/src/c.ts"] = "export const c = 'w'\n"
	second := NewProgram(ProgramOptions{
		Roots: []string{"/src/a.ts", "/src/b.ts", "/src/c.ts"},
		Host:  host,
		Old:   first,
	})

	assert.Same(t, a, second.SourceFile("/src/a.ts"))
	assert.NotSame(t, first.SourceFile("/src/b.ts"), second.SourceFile("/src/b.ts"))
	assert.Equal(t, []string{"z"}, literals(typeOf(t, second, "/src/b.ts", "b")))
	assert.Equal(t, []string{"/src/a.ts", "/src/b.ts", "/src/c.ts"}, second.RootFileNames())
}

func TestNewProgramSkipsUnchangedContent(t *testing.T) {
	host := memHost{"/src/a.ts": "export const a = 'x'\n"}
	first := NewProgram(ProgramOptions{Roots: []string{"/src/a.ts"}, Host: host})
	a := first.SourceFile("/src/a.ts")
	require.NotNil(t, a)
	assert.Equal(t, sha256.Sum256(a.Text), a.Hash)

	same := NewProgram(ProgramOptions{Roots: []string{"/src/a.ts"}, Host: host, Old: first})
	assert.Same(t, a, same.SourceFile("/src/a.ts"))

	host["/src/a.ts"] = "export const a = 'y'\n"
	edited := NewProgram(ProgramOptions{Roots: []string{"/src/a.ts"}, Host: host, Old: same})
	assert.NotSame(t, a, edited.SourceFile("/src/a.ts"))
	assert.NotEqual(t, a.Hash, edited.SourceFile("/src/a.ts").Hash)
}

type countingHost struct {
	memHost
	reads map[string]int
}

func (h *countingHost) ReadFile(path string) (string, bool) {
	h.reads[path]++
	return h.memHost.ReadFile(path)
}

func TestMemoHostReadsOncePerBatch(t *testing.T) {
	base := &countingHost{
		memHost: memHost{
			"/src/a.ts": "export const a = 'x'\n",
			"/src/b.ts": "import { a } from './a'\nexport const b = a\n",
			"/src/c.ts": "export const c = 'z'\n",
		},
		reads: map[string]int{},
	}
	host := NewMemoHost(base)

	var p *Program
	roots := []string{}
	for _, r := range []string{"/src/a.ts", "/src/b.ts", "/src/c.ts"} {
		roots = append(roots, r)
		p = NewProgram(ProgramOptions{Roots: roots, Host: host, Old: p})
		require.Empty(t, p.Missing())
	}

	assert.Equal(t, map[string]int{"/src/a.ts": 1, "/src/b.ts": 1, "/src/c.ts": 1}, base.reads)

	_, ok := host.ReadFile("/src/missing.ts")
	assert.False(t, ok)
	_, ok = host.ReadFile("/src/missing.ts")
	assert.False(t, ok)
	assert.Equal(t, 1, base.reads["/src/missing.ts"])
	assert.False(t, host.FileExists("/src/missing.ts"))
	assert.True(t, host.FileExists("/src/c.ts"))
}

func TestMissingRoot(t *testing.T) {
	p := NewProgram(ProgramOptions{Roots: []string{"/nope.ts"}, Host: memHost{}})
	assert.Equal(t, []string{"/nope.ts"}, p.Missing())
	assert.Nil(t, p.SourceFile("/nope.ts"))
}

func TestCyclicAliasesTerminate(t *testing.T) {
	source := `type A = B | 'a'; type B = A | 'b'; declare const x: A; x
const p = q; const q = p; q`
	p := newTestProgram(t, map[string]string{"/src/a.ts": source})
	_ = typeOf(t, p, "/src/a.ts", "x")
	assert.Equal(t, TypeFlagsUnknown, typeOf(t, p, "/src/a.ts", "q").Flags())
}

func TestKeywordTokensAreNotExpressions(t *testing.T) {
	source := `let x: string
function f(s: string): string { return s }
declare module 'vue' { export function normalizeClass<const T>(value: T): string }
`
	p := newTestProgram(t, map[string]string{"/src/a.ts": source})
	f := p.SourceFile("/src/a.ts")
	c := p.TypeChecker()

	keywords := 0
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if !n.IsNamed() {
			if n.Type() == "string" {
				keywords++
			}
			assert.False(t, c.IsExpression(n), "anonymous %q at %d", n.Type(), n.StartByte())
			assert.Equal(t, TypeFlagsUnknown, c.TypeAtLocation(f, n).Flags())
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(f.Root())
	assert.Equal(t, 4, keywords)
}
