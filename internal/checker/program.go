package checker

import (
	"context"
	"crypto/sha256"
	"path"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/yacobolo/tsclass/internal/overlay"
)

// CompilerOptions is the subset of tsconfig compiler options the checker
// honours.
type CompilerOptions struct {
	BaseURL string
	Paths   map[string][]string
	JSX     string
	// ConfigDir anchors paths when BaseURL is empty.
	ConfigDir string
}

// ProgramOptions configures NewProgram.
type ProgramOptions struct {
	Roots   []string
	Options CompilerOptions
	Host    Host
	// Old is reused for files whose content is unchanged.
	Old *Program
}

// Program is an immutable set of parsed files plus the checker over them.
type Program struct {
	options CompilerOptions
	host    Host
	roots   []string
	files   []*SourceFile
	byPath  map[string]*SourceFile
	missing []string
	checker *Checker

	resolved map[resolveKey]*SourceFile
}

type resolveKey struct{ from, spec string }

var scriptExtensions = []string{".ts", ".tsx", ".d.ts", ".mts", ".cts"}

// NewProgram parses opts.Roots and every file they import. Files of
// opts.Old with an unchanged content hash are reused as-is.
func NewProgram(opts ProgramOptions) *Program {
	host := opts.Host
	if host == nil {
		host = OSHost{}
	}
	p := &Program{
		options:  opts.Options,
		host:     host,
		byPath:   make(map[string]*SourceFile),
		resolved: make(map[resolveKey]*SourceFile),
	}

	var old map[string]*SourceFile
	if opts.Old != nil {
		old = opts.Old.byPath
	}

	p.addLib(old)

	queue := make([]string, 0, len(opts.Roots))
	seenRoot := make(map[string]bool)
	for _, r := range opts.Roots {
		r = overlay.Key(r)
		if seenRoot[r] {
			continue
		}
		seenRoot[r] = true
		p.roots = append(p.roots, r)
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := p.byPath[name]; ok {
			continue
		}
		f := p.load(name, old)
		if f == nil {
			if seenRoot[name] {
				p.missing = append(p.missing, name)
			}
			continue
		}
		p.add(f)
		for _, spec := range moduleSpecifiers(f) {
			if target := p.lookupModulePath(f.Path, spec); target != "" {
				if _, ok := p.byPath[target]; !ok {
					queue = append(queue, target)
				}
			}
		}
	}

	var prev *Checker
	if opts.Old != nil {
		prev = opts.Old.checker
	}
	p.checker = newChecker(p, prev)
	return p
}

func (p *Program) addLib(old map[string]*SourceFile) {
	if f, ok := old[LibPath]; ok {
		p.add(f)
		return
	}
	f, err := parseFile(context.Background(), LibPath, []byte(libVue))
	if err != nil {
		return
	}
	f.isLib = true
	p.add(f)
}

func (p *Program) add(f *SourceFile) {
	p.files = append(p.files, f)
	p.byPath[f.Path] = f
}

func (p *Program) load(name string, old map[string]*SourceFile) *SourceFile {
	text, ok := p.host.ReadFile(name)
	if !ok {
		return nil
	}
	if prev, ok := old[name]; ok && !prev.closed && prev.Hash == sha256.Sum256([]byte(text)) {
		return prev
	}
	f, err := parseFile(context.Background(), name, []byte(text))
	if err != nil {
		return nil
	}
	return f
}

// SourceFile returns the parsed file for path, or nil.
func (p *Program) SourceFile(name string) *SourceFile {
	return p.byPath[overlay.Key(name)]
}

// RootFileNames returns the root identities in insertion order.
func (p *Program) RootFileNames() []string { return slices.Clone(p.roots) }

// Files returns every file in the program, the bundled library included.
func (p *Program) Files() []*SourceFile { return slices.Clone(p.files) }

// Missing returns the roots that could not be read.
func (p *Program) Missing() []string { return slices.Clone(p.missing) }

// Options returns the compiler options the program was built with.
func (p *Program) Options() CompilerOptions { return p.options }

// TypeChecker returns the checker bound to this program.
func (p *Program) TypeChecker() *Checker { return p.checker }

// Close releases the syntax trees of every file not shared with next.
// A nil next releases everything.
func (p *Program) Close(next *Program) {
	for _, f := range p.files {
		if next != nil && next.byPath[f.Path] == f {
			continue
		}
		f.Close()
	}
}

func moduleSpecifiers(f *SourceFile) []string {
	var specs []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for _, child := range namedChildren(n) {
			switch child.Type() {
			case "import_statement", "export_statement":
				if src := child.ChildByFieldName("source"); src != nil {
					specs = append(specs, f.stringValue(src))
				}
				if child.Type() == "export_statement" {
					if decl := child.ChildByFieldName("declaration"); decl != nil {
						walk(decl)
					}
				}
			case "ambient_declaration", "module", "statement_block":
				walk(child)
			}
		}
	}
	walk(f.root)
	return specs
}

// resolveModule maps an import specifier to a program file, or nil for
// bare module names served by ambient declarations.
func (p *Program) resolveModule(from, spec string) *SourceFile {
	key := resolveKey{from: from, spec: spec}
	if f, ok := p.resolved[key]; ok {
		return f
	}
	var f *SourceFile
	if target := p.lookupModulePath(from, spec); target != "" {
		f = p.byPath[target]
	}
	p.resolved[key] = f
	return f
}

func (p *Program) lookupModulePath(from, spec string) string {
	if isRelative(spec) || strings.HasPrefix(spec, "/") {
		base := spec
		if !strings.HasPrefix(spec, "/") {
			base = path.Join(path.Dir(from), spec)
		}
		return p.probe(base)
	}
	for _, candidate := range p.pathCandidates(spec) {
		if target := p.probe(candidate); target != "" {
			return target
		}
	}
	return ""
}

func (p *Program) pathCandidates(spec string) []string {
	root := p.options.BaseURL
	if root == "" {
		root = p.options.ConfigDir
	}
	if root == "" {
		return nil
	}
	var out []string
	for pattern, subs := range p.options.Paths {
		prefix, suffix, wildcard := strings.Cut(pattern, "*")
		var captured string
		switch {
		case !wildcard && spec == pattern:
		case wildcard && strings.HasPrefix(spec, prefix) && strings.HasSuffix(spec, suffix) &&
			len(spec) >= len(prefix)+len(suffix):
			captured = spec[len(prefix) : len(spec)-len(suffix)]
		default:
			continue
		}
		for _, sub := range subs {
			out = append(out, path.Join(root, strings.Replace(sub, "*", captured, 1)))
		}
	}
	if p.options.BaseURL != "" {
		out = append(out, path.Join(p.options.BaseURL, spec))
	}
	return out
}

// probe tries the extension and index-file variants of base.
func (p *Program) probe(base string) string {
	base = overlay.Key(base)
	candidates := []string{base}
	if ext := path.Ext(base); ext == ".js" || ext == ".jsx" || ext == ".mjs" || ext == ".cjs" {
		stem := strings.TrimSuffix(base, ext)
		candidates = append(candidates, stem+".ts", stem+".tsx", stem+".d.ts", stem+".mts", stem+".cts")
	}
	for _, ext := range scriptExtensions {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range scriptExtensions {
		candidates = append(candidates, path.Join(base, "index"+ext))
	}
	for _, c := range candidates {
		if !isScriptFile(c) {
			continue
		}
		if _, ok := p.byPath[c]; ok {
			return c
		}
		if p.host.FileExists(c) {
			return c
		}
	}
	return ""
}

func isScriptFile(name string) bool {
	for _, ext := range scriptExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
