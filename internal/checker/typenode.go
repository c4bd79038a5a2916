package checker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// typeEnv binds type parameter names during instantiation.
type typeEnv struct {
	parent *typeEnv
	names  map[string]*Type
}

func (e *typeEnv) get(name string) (*Type, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if t, ok := cur.names[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// typeFromTypeNode resolves a type annotation. Results without bindings are
// cached per node.
func (c *Checker) typeFromTypeNode(f *SourceFile, n *sitter.Node, env *typeEnv) *Type {
	if n == nil {
		return c.types.unknown
	}
	if env != nil {
		return c.resolveTypeNode(f, n, env)
	}
	cache := c.fileCache(f)
	key := keyOf(n)
	if t, ok := cache.typeNodes[key]; ok {
		if t == nil {
			return c.types.unknown
		}
		return t
	}
	cache.typeNodes[key] = nil
	t := c.resolveTypeNode(f, n, nil)
	cache.typeNodes[key] = t
	return t
}

func (c *Checker) resolveTypeNode(f *SourceFile, n *sitter.Node, env *typeEnv) *Type {
	in := c.types
	if c.depth > maxDepth {
		return in.unknown
	}
	c.depth++
	defer func() { c.depth-- }()

	switch n.Type() {
	case "type_annotation", "parenthesized_type", "readonly_type", "asserts_annotation", "type_annotation_optional":
		return c.typeFromTypeNode(f, firstNamed(n), env)
	case "predefined_type":
		return c.predefinedType(f.NodeText(n))
	case "literal_type":
		return c.literalTypeNode(f, firstNamed(n))
	case "string", "number", "true", "false", "null", "undefined", "unary_expression":
		return c.literalTypeNode(f, n)
	case "template_literal_type":
		return c.templateLiteralType(f, n, env)
	case "union_type":
		var members []*Type
		for _, m := range namedChildren(n) {
			members = append(members, c.typeFromTypeNode(f, m, env))
		}
		return in.union(members...)
	case "intersection_type":
		var members []*Type
		for _, m := range namedChildren(n) {
			members = append(members, c.typeFromTypeNode(f, m, env))
		}
		return in.intersection(members...)
	case "type_identifier":
		name := f.NodeText(n)
		if t, ok := env.get(name); ok {
			return t
		}
		return c.namedType(f, n, name, nil)
	case "nested_type_identifier":
		sym := c.qualifiedType(f, n)
		if sym == nil {
			return in.unknown
		}
		return c.declaredType(sym, nil)
	case "generic_type":
		name := n.ChildByFieldName("name")
		if name == nil {
			name = firstNamed(n)
		}
		var args []*Type
		argNodes := n.ChildByFieldName("type_arguments")
		if argNodes == nil {
			argNodes = childOfType(n, "type_arguments")
		}
		for _, a := range namedChildren(argNodes) {
			args = append(args, c.typeFromTypeNode(f, a, env))
		}
		if name.Type() == "nested_type_identifier" {
			sym := c.qualifiedType(f, name)
			if sym == nil {
				return in.unknown
			}
			return c.declaredType(sym, args)
		}
		return c.namedType(f, name, f.NodeText(name), args)
	case "array_type":
		return c.arrayOf(c.typeFromTypeNode(f, firstNamed(n), env))
	case "tuple_type":
		var elems []*Type
		for _, el := range namedChildren(n) {
			elems = append(elems, c.tupleElement(f, el, env))
		}
		return in.object(&ObjectType{Tuple: elems, resolved: true})
	case "object_type":
		o := &ObjectType{}
		o.resolve = func(o *ObjectType) { c.addMembers(o, f, n, env) }
		return in.object(o)
	case "function_type":
		return c.functionType([]*Signature{c.signatureOf(f, n, env)})
	case "type_query":
		target := firstNamed(n)
		if target == nil {
			return in.unknown
		}
		return in.regularDeep(c.exprType(f, target))
	case "index_type_query":
		return c.keyOf(c.typeFromTypeNode(f, firstNamed(n), env))
	case "lookup_type":
		kids := namedChildren(n)
		if len(kids) < 2 {
			return in.unknown
		}
		return c.elementAccess(c.typeFromTypeNode(f, kids[0], env), c.typeFromTypeNode(f, kids[1], env))
	case "conditional_type":
		return c.conditionalType(f, n, env)
	case "optional_type":
		return in.union(c.typeFromTypeNode(f, firstNamed(n), env), in.undef)
	case "rest_type":
		return c.elementType(c.typeFromTypeNode(f, firstNamed(n), env))
	case "type_predicate", "type_predicate_annotation":
		return in.boolean
	}
	return in.unknown
}

func (c *Checker) tupleElement(f *SourceFile, el *sitter.Node, env *typeEnv) *Type {
	switch el.Type() {
	case "tuple_parameter", "optional_tuple_parameter":
		t := c.typeFromTypeNode(f, el.ChildByFieldName("type"), env)
		if el.Type() == "optional_tuple_parameter" {
			t = c.types.union(t, c.types.undef)
		}
		return t
	}
	return c.typeFromTypeNode(f, el, env)
}

func (c *Checker) predefinedType(name string) *Type {
	in := c.types
	switch name {
	case "string":
		return in.str
	case "number":
		return in.num
	case "boolean":
		return in.boolean
	case "bigint":
		return in.bigint
	case "any":
		return in.any
	case "never":
		return in.never
	case "void":
		return in.void
	case "undefined":
		return in.undef
	case "null":
		return in.null
	}
	return in.unknown
}

func (c *Checker) literalTypeNode(f *SourceFile, n *sitter.Node) *Type {
	in := c.types
	if n == nil {
		return in.unknown
	}
	switch n.Type() {
	case "string":
		return in.stringLiteral(f.stringValue(n), false)
	case "number":
		return in.numberLiteral(f.NodeText(n), false)
	case "true":
		return in.booleanLiteral(true, false)
	case "false":
		return in.booleanLiteral(false, false)
	case "null":
		return in.null
	case "undefined":
		return in.undef
	case "unary_expression":
		if arg := n.ChildByFieldName("argument"); arg != nil && arg.Type() == "number" {
			return in.numberLiteral("-"+f.NodeText(arg), false)
		}
	}
	return in.unknown
}

func (c *Checker) templateLiteralType(f *SourceFile, n *sitter.Node, env *typeEnv) *Type {
	var parts [][]string
	cursor := n.StartByte() + 1
	for _, child := range namedChildren(n) {
		if child.Type() != "template_type" {
			continue
		}
		parts = append(parts, []string{cookTemplate(string(f.Text[cursor:child.StartByte()]))})
		texts, ok := c.templateTexts(c.typeFromTypeNode(f, firstNamed(child), env))
		if !ok {
			return c.types.str
		}
		parts = append(parts, texts)
		cursor = child.EndByte()
	}
	end := n.EndByte() - 1
	if end < cursor {
		end = cursor
	}
	parts = append(parts, []string{cookTemplate(string(f.Text[cursor:end]))})
	return c.crossProduct(parts)
}

func (c *Checker) conditionalType(f *SourceFile, n *sitter.Node, env *typeEnv) *Type {
	in := c.types
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	consequence := n.ChildByFieldName("consequence")
	alternative := n.ChildByFieldName("alternative")
	if left == nil || right == nil || consequence == nil || alternative == nil {
		return in.unknown
	}
	check := c.typeFromTypeNode(f, left, env)
	extends := c.typeFromTypeNode(f, right, env)
	branch := func(checked *Type, inner *typeEnv) *Type {
		if c.assignable(checked, extends, 0) {
			return c.typeFromTypeNode(f, consequence, inner)
		}
		return c.typeFromTypeNode(f, alternative, inner)
	}
	if left.Type() == "type_identifier" && check.flags&TypeFlagsUnion != 0 {
		if _, bound := env.get(f.NodeText(left)); bound {
			name := f.NodeText(left)
			members := make([]*Type, 0, len(check.types))
			for _, m := range check.types {
				inner := &typeEnv{parent: env, names: map[string]*Type{name: m}}
				members = append(members, branch(m, inner))
			}
			return in.union(members...)
		}
	}
	return branch(check, env)
}

func (c *Checker) keyOf(t *Type) *Type {
	in := c.types
	o := t.object
	if o == nil {
		return in.never
	}
	if o.Elem != nil || o.Tuple != nil {
		return in.num
	}
	names := o.PropertyNames()
	members := make([]*Type, 0, len(names))
	for _, name := range names {
		members = append(members, in.stringLiteral(name, false))
	}
	if o.Index != nil {
		members = append(members, in.str)
	}
	return in.union(members...)
}

// namedType resolves a type reference by name, falling back to the
// built-in generic utilities when nothing in scope declares it.
func (c *Checker) namedType(f *SourceFile, at *sitter.Node, name string, args []*Type) *Type {
	if sym := c.resolveName(f, at, name, SymbolType); sym != nil {
		return c.declaredType(sym, args)
	}
	return c.builtinType(name, args)
}

func (c *Checker) qualifiedType(f *SourceFile, n *sitter.Node) *Symbol {
	kids := namedChildren(n)
	if len(kids) < 2 {
		return nil
	}
	left, right := kids[0], kids[len(kids)-1]
	if left.Type() != "identifier" {
		return nil
	}
	ns := c.resolveName(f, n, f.NodeText(left), SymbolNamespace|SymbolImport)
	if ns == nil {
		return nil
	}
	name := f.NodeText(right)
	if ns.Flags&SymbolImport != 0 && ns.ImportName == "*" {
		return c.exportOf(ns.decl().File, ns.Module, name, SymbolType)
	}
	for _, d := range ns.Decls {
		if body := d.Node.ChildByFieldName("body"); body != nil {
			if sym := c.scopeOf(d.File, body).lookup(name, SymbolType); sym != nil {
				return sym
			}
		}
	}
	return nil
}

func (c *Checker) builtinType(name string, args []*Type) *Type {
	in := c.types
	arg := func(i int) *Type {
		if i < len(args) {
			return args[i]
		}
		return in.unknown
	}
	switch name {
	case "Array", "ReadonlyArray":
		return c.arrayOf(arg(0))
	case "Promise", "PromiseLike":
		return in.object(&ObjectType{builtin: "Promise", TypeArgs: []*Type{arg(0)}, resolved: true})
	case "Awaited":
		return c.awaited(arg(0))
	case "Partial", "Required", "Readonly":
		return arg(0)
	case "NonNullable":
		return c.removeNullable(arg(0))
	case "Exclude", "Extract":
		keep := name == "Extract"
		return c.filterUnion(arg(0), func(m *Type) *Type {
			if c.assignable(m, arg(1), 0) == keep {
				return m
			}
			return nil
		})
	case "Record":
		o := &ObjectType{resolved: true}
		keys := arg(0)
		value := arg(1)
		members := []*Type{keys}
		if keys.flags&TypeFlagsUnion != 0 {
			members = keys.types
		}
		for _, k := range members {
			if k.flags&(TypeFlagsStringLiteral|TypeFlagsNumberLiteral) != 0 {
				o.setProp(k.value, value)
			} else {
				o.Index = value
			}
		}
		return in.object(o)
	case "ReturnType":
		if sigs := c.signaturesOf(arg(0)); len(sigs) > 0 {
			return c.returnTypeOf(sigs[0], nil)
		}
		return in.unknown
	case "Uppercase", "Lowercase", "Capitalize", "Uncapitalize":
		return c.filterUnion(arg(0), func(m *Type) *Type {
			if m.flags&TypeFlagsStringLiteral == 0 {
				return m
			}
			return in.stringLiteral(transformCase(name, m.value), false)
		})
	case "String":
		return in.str
	case "Number":
		return in.num
	case "Boolean":
		return in.boolean
	}
	return in.unknown
}

func transformCase(op, s string) string {
	switch op {
	case "Uppercase":
		return strings.ToUpper(s)
	case "Lowercase":
		return strings.ToLower(s)
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	if op == "Capitalize" {
		return string(unicode.ToUpper(r)) + s[size:]
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// declaredType returns the type a type symbol declares, instantiated with
// args.
func (c *Checker) declaredType(sym *Symbol, args []*Type) *Type {
	in := c.types
	switch {
	case sym.Flags&SymbolImport != 0:
		if sym.ImportName == "*" {
			return in.unknown
		}
		target := c.resolveImport(sym, SymbolType)
		if target == nil || target == sym {
			return in.unknown
		}
		return c.declaredType(target, args)
	case sym.Flags&SymbolTypeParameter != 0:
		return c.typeParamType(sym.decl())
	case sym.Flags&SymbolTypeAlias != 0:
		return c.aliasType(sym, args)
	case sym.Flags&SymbolInterface != 0:
		return c.interfaceType(sym, args)
	case sym.Flags&SymbolEnum != 0:
		members := c.enumMembers(sym)
		types := make([]*Type, len(members))
		for i, m := range members {
			types[i] = m.t
		}
		return in.union(types...)
	case sym.Flags&SymbolClass != 0:
		return in.object(&ObjectType{Target: sym, TypeArgs: args, resolved: true})
	}
	return in.unknown
}

func instantiationKey(kind string, sym *Symbol, args []*Type) string {
	return fmt.Sprintf("%s:%p:%s", kind, sym, typeListKey(args))
}

// bindTypeArgs maps the type parameters declared on decl to args, using
// defaults (or unknown) for missing arguments.
func (c *Checker) bindTypeArgs(d Decl, args []*Type) *typeEnv {
	env := &typeEnv{names: make(map[string]*Type)}
	tps := d.Node.ChildByFieldName("type_parameters")
	if tps == nil {
		tps = childOfType(d.Node, "type_parameters")
	}
	i := 0
	for _, tp := range namedChildren(tps) {
		if tp.Type() != "type_parameter" {
			continue
		}
		name := d.File.NodeText(tp.ChildByFieldName("name"))
		switch {
		case i < len(args):
			env.names[name] = args[i]
		case tp.ChildByFieldName("value") != nil:
			env.names[name] = c.typeFromTypeNode(d.File, firstNamed(tp.ChildByFieldName("value")), env)
		default:
			env.names[name] = c.types.unknown
		}
		i++
	}
	return env
}

func (c *Checker) aliasType(sym *Symbol, args []*Type) *Type {
	key := instantiationKey("alias", sym, args)
	if t, ok := c.declaredTypes[key]; ok {
		if t == nil {
			return c.types.unknown
		}
		return t
	}
	c.declaredTypes[key] = nil
	d := sym.decl()
	env := c.bindTypeArgs(d, args)
	if len(env.names) == 0 {
		env = nil
	}
	t := c.typeFromTypeNode(d.File, d.Node.ChildByFieldName("value"), env)
	c.declaredTypes[key] = t
	return t
}

func (c *Checker) interfaceType(sym *Symbol, args []*Type) *Type {
	key := instantiationKey("interface", sym, args)
	if t, ok := c.declaredTypes[key]; ok {
		return t
	}
	o := &ObjectType{Target: sym, TypeArgs: args}
	o.resolve = func(o *ObjectType) {
		for _, d := range sym.Decls {
			if d.Node.Type() != "interface_declaration" {
				continue
			}
			env := c.bindTypeArgs(d, args)
			for _, clause := range namedChildren(d.Node) {
				if clause.Type() != "extends_type_clause" {
					continue
				}
				for _, base := range namedChildren(clause) {
					bt := c.typeFromTypeNode(d.File, base, env)
					if bo := bt.object; bo != nil {
						for _, name := range bo.PropertyNames() {
							p, _ := bo.Property(name)
							o.setProp(name, p)
						}
					}
				}
			}
			c.addMembers(o, d.File, d.Node.ChildByFieldName("body"), env)
		}
	}
	t := c.types.object(o)
	c.declaredTypes[key] = t
	return t
}

// addMembers copies the members of an object type or interface body.
func (c *Checker) addMembers(o *ObjectType, f *SourceFile, body *sitter.Node, env *typeEnv) {
	in := c.types
	for _, m := range namedChildren(body) {
		switch m.Type() {
		case "property_signature":
			name, ok := c.literalKey(f, m.ChildByFieldName("name"))
			if !ok {
				continue
			}
			t := in.any
			if ann := m.ChildByFieldName("type"); ann != nil {
				t = c.typeFromTypeNode(f, ann, env)
			}
			if hasToken(m, "?") {
				t = in.union(t, in.undef)
			}
			o.setProp(name, t)
		case "method_signature":
			name, ok := c.literalKey(f, m.ChildByFieldName("name"))
			if !ok {
				continue
			}
			sig := c.signatureOf(f, m, env)
			if prev, ok := o.props[name]; ok && prev.object != nil && len(prev.object.signatures) > 0 {
				prev.object.signatures = append(prev.object.signatures, sig)
				continue
			}
			o.setProp(name, c.functionType([]*Signature{sig}))
		case "call_signature":
			o.signatures = append(o.signatures, c.signatureOf(f, m, env))
		case "index_signature":
			if ann := childOfType(m, "type_annotation"); ann != nil {
				o.Index = c.typeFromTypeNode(f, ann, env)
			}
		}
	}
}

// typeParamType returns the unbound type of a type parameter declaration.
func (c *Checker) typeParamType(d Decl) *Type {
	tp := c.typeParamInfo(d.File, d.Node)
	if t, ok := c.typeParams[tp]; ok {
		return t
	}
	t := c.types.newType(&Type{flags: TypeFlagsTypeParameter, value: tp.name, param: tp})
	c.typeParams[tp] = t
	return t
}

func (c *Checker) typeParamInfo(f *SourceFile, n *sitter.Node) *typeParam {
	cache := c.fileCache(f)
	key := keyOf(n)
	if tp, ok := cache.params[key]; ok {
		return tp
	}
	tp := &typeParam{
		name:    f.NodeText(n.ChildByFieldName("name")),
		isConst: isConstTypeParam(f, n),
		file:    f,
	}
	if constraint := n.ChildByFieldName("constraint"); constraint != nil {
		tp.constraint = firstNamed(constraint)
	}
	cache.params[key] = tp
	return tp
}

// isConstTypeParam detects the const modifier, tolerating grammars that
// parse it as a stray token before the parameter.
func isConstTypeParam(f *SourceFile, n *sitter.Node) bool {
	if hasToken(n, "const") || strings.HasPrefix(f.NodeText(n), "const ") {
		return true
	}
	prev := n.PrevSibling()
	return prev != nil && (prev.Type() == "ERROR" || prev.Type() == "const") &&
		strings.Contains(f.NodeText(prev), "const")
}

func (c *Checker) constraintOf(t *Type) *Type {
	if t.param == nil || t.param.constraint == nil {
		return nil
	}
	return c.typeFromTypeNode(t.param.file, t.param.constraint, nil)
}
