package checker

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// SymbolFlags classifies what a Symbol declares.
type SymbolFlags uint16

const (
	SymbolVariable SymbolFlags = 1 << iota
	SymbolParameter
	SymbolFunction
	SymbolClass
	SymbolInterface
	SymbolTypeAlias
	SymbolTypeParameter
	SymbolEnum
	SymbolImport
	SymbolNamespace
	SymbolExportDefault
	SymbolForOf

	SymbolValue = SymbolVariable | SymbolParameter | SymbolFunction | SymbolClass |
		SymbolEnum | SymbolImport | SymbolNamespace | SymbolExportDefault | SymbolForOf
	SymbolType = SymbolClass | SymbolInterface | SymbolTypeAlias | SymbolTypeParameter |
		SymbolEnum | SymbolImport | SymbolNamespace
)

// Decl is one declaration site of a Symbol.
type Decl struct {
	File *SourceFile
	Node *sitter.Node
}

func (d Decl) same(o Decl) bool {
	return d.File == o.File && sameNode(d.Node, o.Node)
}

// Symbol is a named declaration.
type Symbol struct {
	Name  string
	Flags SymbolFlags
	Decls []Decl

	// Const marks const bindings, which keep literal types.
	Const bool
	// Path locates a binding inside a destructuring pattern; "#n" is an index.
	Path []string

	// Module and ImportName describe import bindings. ImportName is "*" for
	// namespace imports and "default" for default imports.
	Module     string
	ImportName string
}

func (s *Symbol) decl() Decl { return s.Decls[0] }

func sameTarget(a, b *Symbol) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	for _, da := range a.Decls {
		for _, db := range b.Decls {
			if da.same(db) {
				return true
			}
		}
	}
	return false
}

type reexport struct {
	module string
	names  map[string]string // exported name -> name in module; nil means export *
}

type scope struct {
	values map[string]*Symbol
	types  map[string]*Symbol

	exportValues map[string]*Symbol
	exportTypes  map[string]*Symbol
	localExports map[string]string // export { local as exported }
	reexports    []reexport
	isModule     bool
	ambient      []Decl // declare module 'x' { ... } bodies
	globals      []Decl // declare global { ... } bodies
}

func newScope() *scope {
	return &scope{
		values:       make(map[string]*Symbol),
		types:        make(map[string]*Symbol),
		exportValues: make(map[string]*Symbol),
		exportTypes:  make(map[string]*Symbol),
		localExports: make(map[string]string),
	}
}

func (s *scope) lookup(name string, meaning SymbolFlags) *Symbol {
	if s == nil {
		return nil
	}
	if meaning&SymbolValue != 0 {
		if sym := s.values[name]; sym != nil {
			return sym
		}
	}
	if meaning&SymbolType != 0 {
		if sym := s.types[name]; sym != nil {
			return sym
		}
	}
	return nil
}

// declare adds a declaration, merging overloads and interface declarations.
func (s *scope) declare(name string, flags SymbolFlags, d Decl, exported bool) *Symbol {
	var sym *Symbol
	mergeable := SymbolFunction | SymbolInterface | SymbolNamespace
	if flags&SymbolValue != 0 {
		if prev := s.values[name]; prev != nil && prev.Flags&flags&mergeable != 0 {
			sym = prev
		}
	}
	if sym == nil && flags&SymbolType != 0 {
		if prev := s.types[name]; prev != nil && prev.Flags&flags&mergeable != 0 {
			sym = prev
		}
	}
	if sym != nil {
		sym.Decls = append(sym.Decls, d)
	} else {
		sym = &Symbol{Name: name, Flags: flags, Decls: []Decl{d}}
	}
	if flags&SymbolValue != 0 {
		s.values[name] = sym
		if exported {
			s.exportValues[name] = sym
		}
	}
	if flags&SymbolType != 0 {
		s.types[name] = sym
		if exported {
			s.exportTypes[name] = sym
		}
	}
	return sym
}

// scopeOf returns the declarations introduced by n, or nil when n does not
// open a scope.
func (c *Checker) scopeOf(f *SourceFile, n *sitter.Node) *scope {
	cache := c.fileCache(f)
	key := keyOf(n)
	if s, ok := cache.scopes[key]; ok {
		return s
	}
	s := c.bindScope(f, n)
	cache.scopes[key] = s
	return s
}

func (c *Checker) bindScope(f *SourceFile, n *sitter.Node) *scope {
	switch n.Type() {
	case "program", "statement_block":
		s := newScope()
		for _, stmt := range namedChildren(n) {
			c.bindStatement(f, s, stmt, false)
		}
		if n.Type() == "program" {
			c.resolveLocalExports(s)
		}
		return s
	case "function_declaration", "generator_function_declaration", "function_expression",
		"function", "generator_function", "arrow_function", "method_definition",
		"function_signature", "method_signature", "function_type", "call_signature",
		"construct_signature", "abstract_method_signature":
		s := newScope()
		c.bindTypeParameters(f, s, n)
		if n.Type() == "function_expression" || n.Type() == "function" {
			if name := n.ChildByFieldName("name"); name != nil {
				s.declare(f.NodeText(name), SymbolFunction, Decl{f, n}, false)
			}
		}
		if p := n.ChildByFieldName("parameter"); p != nil {
			c.bindParameterPattern(f, s, p, n, nil)
		}
		params := n.ChildByFieldName("parameters")
		if params == nil {
			params = childOfType(n, "formal_parameters")
		}
		for _, p := range namedChildren(params) {
			pattern := p.ChildByFieldName("pattern")
			if pattern == nil {
				continue
			}
			c.bindParameterPattern(f, s, pattern, p, nil)
		}
		return s
	case "type_alias_declaration", "interface_declaration", "class_declaration",
		"abstract_class_declaration", "class":
		s := newScope()
		c.bindTypeParameters(f, s, n)
		return s
	case "for_in_statement":
		if !hasToken(n, "const") && !hasToken(n, "let") && !hasToken(n, "var") {
			return nil
		}
		s := newScope()
		isConst := hasToken(n, "const")
		c.bindPattern(f, s, n.ChildByFieldName("left"), n, nil, SymbolForOf, isConst)
		return s
	case "for_statement":
		init := n.ChildByFieldName("initializer")
		if init == nil {
			return nil
		}
		s := newScope()
		c.bindStatement(f, s, init, false)
		return s
	case "catch_clause":
		if p := n.ChildByFieldName("parameter"); p != nil {
			s := newScope()
			c.bindPattern(f, s, p, n, nil, SymbolParameter, false)
			return s
		}
	}
	return nil
}

func (c *Checker) bindTypeParameters(f *SourceFile, s *scope, n *sitter.Node) {
	tps := n.ChildByFieldName("type_parameters")
	if tps == nil {
		tps = childOfType(n, "type_parameters")
	}
	for _, tp := range namedChildren(tps) {
		if tp.Type() != "type_parameter" {
			continue
		}
		if name := tp.ChildByFieldName("name"); name != nil {
			s.declare(f.NodeText(name), SymbolTypeParameter, Decl{f, tp}, false)
		}
	}
}

func (c *Checker) bindParameterPattern(f *SourceFile, s *scope, pattern, param *sitter.Node, path []string) {
	if pattern.Type() == "this" {
		return
	}
	c.bindPattern(f, s, pattern, param, path, SymbolParameter, false)
}

// bindPattern declares every identifier bound by a binding pattern.
func (c *Checker) bindPattern(f *SourceFile, s *scope, pattern, declNode *sitter.Node, path []string, flags SymbolFlags, isConst bool) {
	if pattern == nil {
		return
	}
	switch pattern.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		sym := s.declare(f.NodeText(pattern), flags, Decl{f, declNode}, false)
		sym.Const = isConst
		sym.Path = path
	case "object_pattern":
		for _, el := range namedChildren(pattern) {
			switch el.Type() {
			case "shorthand_property_identifier_pattern":
				c.bindPattern(f, s, el, declNode, appendPath(path, f.NodeText(el)), flags, isConst)
			case "pair_pattern":
				key := propertyName(f, el.ChildByFieldName("key"))
				c.bindPattern(f, s, el.ChildByFieldName("value"), declNode, appendPath(path, key), flags, isConst)
			case "object_assignment_pattern":
				left := el.ChildByFieldName("left")
				c.bindPattern(f, s, left, declNode, appendPath(path, f.NodeText(left)), flags, isConst)
			}
		}
	case "array_pattern":
		for i, el := range namedChildren(pattern) {
			c.bindPattern(f, s, el, declNode, appendPath(path, "#"+strconv.Itoa(i)), flags, isConst)
		}
	case "assignment_pattern":
		c.bindPattern(f, s, pattern.ChildByFieldName("left"), declNode, path, flags, isConst)
	}
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func propertyName(f *SourceFile, key *sitter.Node) string {
	if key == nil {
		return ""
	}
	switch key.Type() {
	case "string":
		return f.stringValue(key)
	case "number":
		return normalizeNumber(f.NodeText(key))
	}
	return f.NodeText(key)
}

func (c *Checker) bindStatement(f *SourceFile, s *scope, n *sitter.Node, exported bool) {
	switch n.Type() {
	case "lexical_declaration", "variable_declaration":
		isConst := hasToken(n, "const")
		for _, d := range namedChildren(n) {
			if d.Type() != "variable_declarator" {
				continue
			}
			c.bindPattern(f, s, d.ChildByFieldName("name"), d, nil, SymbolVariable, isConst)
			if exported {
				c.exportPattern(f, s, d.ChildByFieldName("name"))
			}
		}
	case "function_declaration", "generator_function_declaration", "function_signature":
		if name := n.ChildByFieldName("name"); name != nil {
			s.declare(f.NodeText(name), SymbolFunction, Decl{f, n}, exported)
		}
	case "class_declaration", "abstract_class_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			s.declare(f.NodeText(name), SymbolClass, Decl{f, n}, exported)
		}
	case "interface_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			s.declare(f.NodeText(name), SymbolInterface, Decl{f, n}, exported)
		}
	case "type_alias_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			s.declare(f.NodeText(name), SymbolTypeAlias, Decl{f, n}, exported)
		}
	case "enum_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			s.declare(f.NodeText(name), SymbolEnum, Decl{f, n}, exported)
		}
	case "import_statement":
		s.isModule = true
		c.bindImport(f, s, n)
	case "export_statement":
		s.isModule = true
		c.bindExport(f, s, n)
	case "ambient_declaration":
		for _, child := range namedChildren(n) {
			if child.Type() == "statement_block" {
				s.globals = append(s.globals, Decl{f, child})
				continue
			}
			c.bindStatement(f, s, child, exported)
		}
	case "module", "internal_module":
		name := n.ChildByFieldName("name")
		body := n.ChildByFieldName("body")
		if name == nil || body == nil {
			return
		}
		if name.Type() == "string" {
			s.ambient = append(s.ambient, Decl{f, n})
			return
		}
		s.declare(f.NodeText(name), SymbolNamespace, Decl{f, n}, exported)
	case "expression_statement":
		if inner := firstNamed(n); inner != nil && inner.Type() == "internal_module" {
			c.bindStatement(f, s, inner, exported)
		}
	}
}

func (c *Checker) exportPattern(f *SourceFile, s *scope, pattern *sitter.Node) {
	if pattern == nil {
		return
	}
	switch pattern.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		name := f.NodeText(pattern)
		if sym := s.values[name]; sym != nil {
			s.exportValues[name] = sym
		}
	default:
		for _, child := range namedChildren(pattern) {
			switch child.Type() {
			case "pair_pattern":
				c.exportPattern(f, s, child.ChildByFieldName("value"))
			case "object_assignment_pattern", "assignment_pattern":
				c.exportPattern(f, s, child.ChildByFieldName("left"))
			default:
				c.exportPattern(f, s, child)
			}
		}
	}
}

func (c *Checker) bindImport(f *SourceFile, s *scope, n *sitter.Node) {
	source := n.ChildByFieldName("source")
	if source == nil {
		return
	}
	module := f.stringValue(source)
	clause := childOfType(n, "import_clause")
	for _, part := range namedChildren(clause) {
		switch part.Type() {
		case "identifier":
			sym := s.declare(f.NodeText(part), SymbolImport, Decl{f, part}, false)
			sym.Module, sym.ImportName = module, "default"
		case "namespace_import":
			if id := childOfType(part, "identifier"); id != nil {
				sym := s.declare(f.NodeText(id), SymbolImport, Decl{f, part}, false)
				sym.Module, sym.ImportName = module, "*"
			}
		case "named_imports":
			for _, spec := range namedChildren(part) {
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				local := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = alias
				}
				if name == nil {
					continue
				}
				sym := s.declare(f.NodeText(local), SymbolImport, Decl{f, spec}, false)
				sym.Module, sym.ImportName = module, importedName(f, name)
			}
		}
	}
}

func importedName(f *SourceFile, n *sitter.Node) string {
	if n.Type() == "string" {
		return f.stringValue(n)
	}
	return f.NodeText(n)
}

func (c *Checker) bindExport(f *SourceFile, s *scope, n *sitter.Node) {
	isDefault := hasToken(n, "default")
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		c.bindStatement(f, s, decl, true)
		if isDefault {
			if name := decl.ChildByFieldName("name"); name != nil {
				s.localExports["default"] = f.NodeText(name)
			}
		}
		return
	}
	if value := n.ChildByFieldName("value"); value != nil && isDefault {
		sym := &Symbol{Name: "default", Flags: SymbolExportDefault, Decls: []Decl{{f, n}}}
		s.exportValues["default"] = sym
		return
	}

	var module string
	if source := n.ChildByFieldName("source"); source != nil {
		module = f.stringValue(source)
	}
	clause := childOfType(n, "export_clause")
	if clause == nil {
		if module != "" {
			s.reexports = append(s.reexports, reexport{module: module})
		}
		return
	}
	names := make(map[string]string)
	for _, spec := range namedChildren(clause) {
		if spec.Type() != "export_specifier" {
			continue
		}
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		exported := importedName(f, name)
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			exported = importedName(f, alias)
		}
		if module != "" {
			names[exported] = importedName(f, name)
		} else {
			s.localExports[exported] = importedName(f, name)
		}
	}
	if module != "" {
		s.reexports = append(s.reexports, reexport{module: module, names: names})
	}
}

func (c *Checker) resolveLocalExports(s *scope) {
	for exported, local := range s.localExports {
		if sym := s.values[local]; sym != nil {
			s.exportValues[exported] = sym
		}
		if sym := s.types[local]; sym != nil {
			s.exportTypes[exported] = sym
		}
	}
}

// resolveName finds the symbol name refers to at node n.
func (c *Checker) resolveName(f *SourceFile, n *sitter.Node, name string, meaning SymbolFlags) *Symbol {
	for cur := n; cur != nil; cur = cur.Parent() {
		if s := c.scopeOf(f, cur); s != nil {
			if sym := s.lookup(name, meaning); sym != nil {
				return sym
			}
		}
	}
	return c.globalScope().lookup(name, meaning)
}

// globalScope merges the top-level declarations of non-module files with
// every declare global block.
func (c *Checker) globalScope() *scope {
	if c.globals != nil {
		return c.globals
	}
	g := newScope()
	c.globals = g
	for _, f := range c.program.files {
		top := c.scopeOf(f, f.root)
		if !top.isModule {
			mergeScope(g, top)
		}
		for _, d := range top.globals {
			mergeScope(g, c.scopeOf(d.File, d.Node))
		}
	}
	return g
}

func mergeScope(dst, src *scope) {
	for name, sym := range src.values {
		if _, ok := dst.values[name]; !ok {
			dst.values[name] = sym
		}
	}
	for name, sym := range src.types {
		if _, ok := dst.types[name]; !ok {
			dst.types[name] = sym
		}
	}
}

// ambientBodies returns the bodies of every declare module block for spec,
// user files before the bundled library.
func (c *Checker) ambientBodies(spec string) []Decl {
	if bodies, ok := c.ambient[spec]; ok {
		return bodies
	}
	var user, lib []Decl
	for _, f := range c.program.files {
		for _, m := range c.scopeOf(f, f.root).ambient {
			name := m.Node.ChildByFieldName("name")
			if f.stringValue(name) != spec {
				continue
			}
			body := Decl{m.File, m.Node.ChildByFieldName("body")}
			if f.isLib {
				lib = append(lib, body)
			} else {
				user = append(user, body)
			}
		}
	}
	bodies := append(user, lib...)
	c.ambient[spec] = bodies
	return bodies
}

type exportKey struct {
	file    *SourceFile
	module  string
	name    string
	meaning SymbolFlags
}

// exportOf resolves name exported by the module spec imported from f.
func (c *Checker) exportOf(f *SourceFile, spec, name string, meaning SymbolFlags) *Symbol {
	return c.exportOfDepth(f, spec, name, meaning, 0)
}

func (c *Checker) exportOfDepth(f *SourceFile, spec, name string, meaning SymbolFlags, depth int) *Symbol {
	if depth > maxDepth {
		return nil
	}
	target := c.program.resolveModule(f.Path, spec)
	key := exportKey{module: spec, name: name, meaning: meaning}
	if target != nil {
		key.file = target
	}
	if sym, ok := c.exports[key]; ok {
		return sym
	}
	var sym *Symbol
	if target != nil {
		sym = c.fileExport(target, name, meaning, depth)
	} else {
		sym = c.ambientExport(spec, name, meaning)
	}
	c.exports[key] = sym
	return sym
}

func (c *Checker) fileExport(f *SourceFile, name string, meaning SymbolFlags, depth int) *Symbol {
	top := c.scopeOf(f, f.root)
	if meaning&SymbolValue != 0 {
		if sym := top.exportValues[name]; sym != nil {
			return sym
		}
	}
	if meaning&SymbolType != 0 {
		if sym := top.exportTypes[name]; sym != nil {
			return sym
		}
	}
	for _, re := range top.reexports {
		inner := name
		if re.names != nil {
			mapped, ok := re.names[name]
			if !ok {
				continue
			}
			inner = mapped
		} else if name == "default" {
			continue
		}
		if sym := c.exportOfDepth(f, re.module, inner, meaning, depth+1); sym != nil {
			return sym
		}
	}
	if !top.isModule {
		return top.lookup(name, meaning)
	}
	return nil
}

// ambientExport merges same-named declarations across every declare module
// block for spec. Overloads from user augmentations come first.
func (c *Checker) ambientExport(spec, name string, meaning SymbolFlags) *Symbol {
	var found []*Symbol
	for _, body := range c.ambientBodies(spec) {
		if sym := c.scopeOf(body.File, body.Node).lookup(name, meaning); sym != nil {
			found = append(found, sym)
		}
	}
	switch len(found) {
	case 0:
		return nil
	case 1:
		return found[0]
	}
	merged := &Symbol{Name: name, Flags: found[0].Flags, Module: found[0].Module, ImportName: found[0].ImportName}
	for _, sym := range found {
		if sym.Flags&(SymbolFunction|SymbolInterface) == 0 {
			if len(merged.Decls) == 0 {
				return sym
			}
			continue
		}
		merged.Flags |= sym.Flags
		merged.Decls = append(merged.Decls, sym.Decls...)
	}
	if len(merged.Decls) == 0 {
		return found[0]
	}
	return merged
}

// resolveImport follows an import binding to the exported symbol.
func (c *Checker) resolveImport(sym *Symbol, meaning SymbolFlags) *Symbol {
	for i := 0; i < maxDepth && sym != nil && sym.Flags&SymbolImport != 0; i++ {
		if sym.ImportName == "*" {
			return sym
		}
		sym = c.exportOf(sym.decl().File, sym.Module, sym.ImportName, meaning)
	}
	return sym
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || spec == "." || spec == ".."
}
