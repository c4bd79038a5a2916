package checker

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// maxDepth bounds every recursive resolution. Anything deeper is unknown.
const maxDepth = 64

// maxTemplateCombinations caps the cross product of template literal parts.
const maxTemplateCombinations = 10000

// Checker answers type queries over a Program. Computed types are cached
// per file; a checker carried over to a new program keeps the caches of
// every reused file.
type Checker struct {
	program *Program
	types   *interner
	files   map[*SourceFile]*fileCache

	globals *scope
	ambient map[string][]Decl
	exports map[exportKey]*Symbol

	symbolTypes   map[*Symbol]*Type
	declaredTypes map[string]*Type
	typeParams    map[*typeParam]*Type
	depth         int
}

type fileCache struct {
	scopes    map[nodeKey]*scope
	exprs     map[nodeKey]*Type
	typeNodes map[nodeKey]*Type
	params    map[nodeKey]*typeParam
}

func newChecker(p *Program, prev *Checker) *Checker {
	c := &Checker{
		program:       p,
		types:         newInterner(),
		files:         make(map[*SourceFile]*fileCache),
		ambient:       make(map[string][]Decl),
		exports:       make(map[exportKey]*Symbol),
		symbolTypes:   make(map[*Symbol]*Type),
		declaredTypes: make(map[string]*Type),
		typeParams:    make(map[*typeParam]*Type),
	}
	if prev == nil {
		return c
	}
	c.types = prev.types
	c.symbolTypes = prev.symbolTypes
	c.declaredTypes = prev.declaredTypes
	c.typeParams = prev.typeParams
	for _, f := range p.files {
		if cache, ok := prev.files[f]; ok {
			c.files[f] = cache
		}
	}
	return c
}

func (c *Checker) fileCache(f *SourceFile) *fileCache {
	if fc, ok := c.files[f]; ok {
		return fc
	}
	fc := &fileCache{
		scopes:    make(map[nodeKey]*scope),
		exprs:     make(map[nodeKey]*Type),
		typeNodes: make(map[nodeKey]*Type),
		params:    make(map[nodeKey]*typeParam),
	}
	c.files[f] = fc
	return fc
}

// Program returns the program the checker was created for.
func (c *Checker) Program() *Program { return c.program }

// StringType returns the string primitive.
func (c *Checker) StringType() *Type { return c.types.str }

// UnknownType returns the unknown type.
func (c *Checker) UnknownType() *Type { return c.types.unknown }

var expressionKinds = map[string]bool{
	"identifier":                      true,
	"shorthand_property_identifier":   true,
	"this":                            true,
	"super":                           true,
	"number":                          true,
	"string":                          true,
	"template_string":                 true,
	"regex":                           true,
	"true":                            true,
	"false":                           true,
	"null":                            true,
	"undefined":                       true,
	"parenthesized_expression":        true,
	"as_expression":                   true,
	"satisfies_expression":            true,
	"type_assertion":                  true,
	"non_null_expression":             true,
	"ternary_expression":              true,
	"binary_expression":               true,
	"unary_expression":                true,
	"update_expression":               true,
	"assignment_expression":           true,
	"augmented_assignment_expression": true,
	"call_expression":                 true,
	"new_expression":                  true,
	"member_expression":               true,
	"subscript_expression":            true,
	"object":                          true,
	"array":                           true,
	"arrow_function":                  true,
	"function_expression":             true,
	"function":                        true,
	"generator_function":              true,
	"class":                           true,
	"await_expression":                true,
	"yield_expression":                true,
	"sequence_expression":             true,
	"jsx_element":                     true,
	"jsx_self_closing_element":        true,
	"type_identifier":                 true,
}

// IsExpression reports whether n denotes a value (or a type name, which
// evaluates to the declared type). Anonymous nodes are keyword and
// punctuation tokens, such as the string in a predefined_type, and never
// qualify.
func (c *Checker) IsExpression(n *sitter.Node) bool {
	if n == nil || !n.IsNamed() {
		return false
	}
	switch n.Type() {
	case "string":
		p := n.Parent()
		if p == nil {
			return false
		}
		switch p.Type() {
		case "import_statement", "export_statement", "module", "import_require_clause",
			"import_specifier", "export_specifier", "enum_body", "import_attribute":
			return false
		case "pair", "pair_pattern", "method_definition", "public_field_definition":
			return !sameNode(p.ChildByFieldName("key"), n) && !sameNode(p.ChildByFieldName("name"), n)
		case "property_signature", "method_signature", "enum_assignment":
			return !sameNode(p.ChildByFieldName("name"), n)
		}
		return true
	case "property_identifier":
		p := n.Parent()
		return p != nil && p.Type() == "member_expression"
	}
	return expressionKinds[n.Type()]
}

// TypeAtLocation returns the type of the expression n in file f, or unknown
// when n is not an expression.
func (c *Checker) TypeAtLocation(f *SourceFile, n *sitter.Node) *Type {
	if f == nil || n == nil || !n.IsNamed() || !c.IsExpression(n) {
		return c.types.unknown
	}
	if n.Type() == "property_identifier" {
		return c.exprType(f, n.Parent())
	}
	if n.Type() == "type_identifier" {
		return c.typeFromTypeNode(f, n, nil)
	}
	return c.exprType(f, n)
}

func (c *Checker) exprType(f *SourceFile, n *sitter.Node) *Type {
	if n == nil {
		return c.types.unknown
	}
	cache := c.fileCache(f)
	key := keyOf(n)
	if t, ok := cache.exprs[key]; ok {
		if t == nil {
			return c.types.unknown
		}
		return t
	}
	if c.depth > maxDepth {
		return c.types.unknown
	}
	cache.exprs[key] = nil
	c.depth++
	t := c.computeExprType(f, n)
	c.depth--
	if t == nil {
		t = c.types.unknown
	}
	cache.exprs[key] = t
	return t
}

func (c *Checker) computeExprType(f *SourceFile, n *sitter.Node) *Type {
	in := c.types
	switch n.Type() {
	case "string":
		return in.stringLiteral(f.stringValue(n), true)
	case "template_string":
		return c.templateType(f, n)
	case "number":
		return in.numberLiteral(f.NodeText(n), true)
	case "true":
		return in.booleanLiteral(true, true)
	case "false":
		return in.booleanLiteral(false, true)
	case "null":
		return in.null
	case "undefined":
		return in.undef
	case "identifier", "shorthand_property_identifier":
		name := f.NodeText(n)
		if name == "undefined" {
			return in.undef
		}
		sym := c.resolveName(f, n, name, SymbolValue)
		if sym == nil {
			return in.unknown
		}
		return c.typeOfSymbol(sym)
	case "parenthesized_expression":
		return c.exprType(f, lastNamed(n))
	case "sequence_expression":
		return c.exprType(f, lastNamed(n))
	case "as_expression":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return in.unknown
		}
		if hasToken(n, "const") || len(kids) == 1 {
			return in.regularDeep(c.exprType(f, kids[0]))
		}
		return c.typeFromTypeNode(f, kids[len(kids)-1], nil)
	case "satisfies_expression":
		return c.exprType(f, firstNamed(n))
	case "type_assertion":
		var typeNode, expr *sitter.Node
		for _, k := range namedChildren(n) {
			if k.Type() == "type_arguments" {
				typeNode = firstNamed(k)
			} else {
				expr = k
			}
		}
		if typeNode == nil {
			return c.exprType(f, expr)
		}
		if f.NodeText(typeNode) == "const" {
			return in.regularDeep(c.exprType(f, expr))
		}
		return c.typeFromTypeNode(f, typeNode, nil)
	case "non_null_expression":
		return c.removeNullable(c.exprType(f, firstNamed(n)))
	case "await_expression":
		return c.awaited(c.exprType(f, firstNamed(n)))
	case "ternary_expression":
		return in.union(
			c.exprType(f, n.ChildByFieldName("consequence")),
			c.exprType(f, n.ChildByFieldName("alternative")),
		)
	case "binary_expression":
		return c.binaryType(f, n)
	case "unary_expression":
		return c.unaryType(f, n)
	case "update_expression":
		return in.num
	case "assignment_expression":
		return c.exprType(f, n.ChildByFieldName("right"))
	case "augmented_assignment_expression":
		return in.widen(c.exprType(f, n.ChildByFieldName("left")))
	case "call_expression":
		return c.callType(f, n)
	case "member_expression":
		obj := n.ChildByFieldName("object")
		prop := n.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return in.unknown
		}
		return c.propertyOf(c.exprType(f, obj), f.NodeText(prop))
	case "subscript_expression":
		return c.elementAccess(c.exprType(f, n.ChildByFieldName("object")), c.exprType(f, n.ChildByFieldName("index")))
	case "object":
		return c.objectLiteralType(f, n)
	case "array":
		return c.arrayLiteralType(f, n)
	case "arrow_function", "function_expression", "function", "generator_function":
		return c.functionType([]*Signature{c.signatureOf(f, n, nil)})
	}
	return in.unknown
}

func lastNamed(n *sitter.Node) *sitter.Node {
	kids := namedChildren(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[len(kids)-1]
}

// inConstContext reports whether the expression n is evaluated in a const
// context: under an as-const assertion, as the argument of a const type
// parameter, or assigned to a declaration annotated with a literal type.
func (c *Checker) inConstContext(f *SourceFile, n *sitter.Node) bool {
	for depth := 0; depth < maxDepth; depth++ {
		p := n.Parent()
		if p == nil {
			return false
		}
		switch p.Type() {
		case "as_expression":
			return hasToken(p, "const")
		case "type_assertion":
			args := childOfType(p, "type_arguments")
			return args != nil && strings.TrimSpace(f.NodeText(firstNamed(args))) == "const"
		case "parenthesized_expression", "satisfies_expression", "array":
		case "pair":
			if !sameNode(p.ChildByFieldName("value"), n) {
				return false
			}
			p = p.Parent()
			if p == nil {
				return false
			}
		case "ternary_expression":
			if sameNode(p.ChildByFieldName("condition"), n) {
				return false
			}
		case "arguments":
			return c.isConstArgument(f, p, n)
		case "variable_declarator":
			ann := p.ChildByFieldName("type")
			if ann == nil || !sameNode(p.ChildByFieldName("value"), n) {
				return false
			}
			return containsLiteral(c.typeFromTypeNode(f, ann, nil))
		default:
			return false
		}
		n = p
	}
	return false
}

func containsLiteral(t *Type) bool {
	if t.flags&TypeFlagsLiteral != 0 {
		return true
	}
	if t.flags&TypeFlagsUnionOrInter != 0 {
		for _, m := range t.types {
			if containsLiteral(m) {
				return true
			}
		}
	}
	return false
}

// templateType computes the type of a template expression. Outside const
// contexts it is string; inside, the cross product of the literal parts.
func (c *Checker) templateType(f *SourceFile, n *sitter.Node) *Type {
	if !c.inConstContext(f, n) {
		return c.types.str
	}
	var parts [][]string
	cursor := n.StartByte() + 1
	for _, child := range namedChildren(n) {
		if child.Type() != "template_substitution" {
			continue
		}
		parts = append(parts, []string{cookTemplate(string(f.Text[cursor:child.StartByte()]))})
		texts, ok := c.templateTexts(c.exprType(f, firstNamed(child)))
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

func (c *Checker) crossProduct(parts [][]string) *Type {
	results := []string{""}
	for _, alts := range parts {
		if len(results)*len(alts) > maxTemplateCombinations {
			return c.types.str
		}
		next := make([]string, 0, len(results)*len(alts))
		for _, prefix := range results {
			for _, alt := range alts {
				next = append(next, prefix+alt)
			}
		}
		results = next
	}
	members := make([]*Type, len(results))
	for i, r := range results {
		members[i] = c.types.stringLiteral(r, false)
	}
	return c.types.union(members...)
}

// templateTexts returns the string forms of a type usable inside a template
// literal type, or false when the type is not finite.
func (c *Checker) templateTexts(t *Type) ([]string, bool) {
	switch {
	case t.flags&TypeFlagsLiteral != 0:
		return []string{t.value}, true
	case t.flags&TypeFlagsUndefined != 0:
		return []string{"undefined"}, true
	case t.flags&TypeFlagsNull != 0:
		return []string{"null"}, true
	case t.flags&TypeFlagsUnion != 0:
		var out []string
		for _, m := range t.types {
			texts, ok := c.templateTexts(m)
			if !ok {
				return nil, false
			}
			out = append(out, texts...)
		}
		return out, true
	}
	return nil, false
}

// cookTemplate resolves escape sequences in a raw template chunk.
func cookTemplate(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			b.WriteByte(raw[i])
			continue
		}
		j := i + 2
		switch raw[i+1] {
		case 'u':
			if j < len(raw) && raw[j] == '{' {
				if end := strings.IndexByte(raw[j:], '}'); end >= 0 {
					j += end + 1
				}
			} else {
				j = min(i+6, len(raw))
			}
		case 'x':
			j = min(i+4, len(raw))
		}
		b.WriteString(unescape(raw[i:j]))
		i = j - 1
	}
	return b.String()
}

func (c *Checker) binaryType(f *SourceFile, n *sitter.Node) *Type {
	in := c.types
	op := n.ChildByFieldName("operator")
	if op == nil {
		return in.unknown
	}
	left := func() *Type { return c.exprType(f, n.ChildByFieldName("left")) }
	right := func() *Type { return c.exprType(f, n.ChildByFieldName("right")) }
	switch f.NodeText(op) {
	case "+":
		lt, rt := left(), right()
		if c.isStringLike(lt) || c.isStringLike(rt) {
			return in.str
		}
		if lt.flags&(TypeFlagsAny) != 0 || rt.flags&TypeFlagsAny != 0 {
			return in.any
		}
		return in.num
	case "-", "*", "/", "%", "**", "<<", ">>", ">>>", "&", "|", "^":
		return in.num
	case "==", "!=", "===", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return in.boolean
	case "&&":
		return in.union(c.falsyPart(left()), right())
	case "||":
		return in.union(c.truthyPart(left()), right())
	case "??":
		return in.union(c.removeNullable(left()), right())
	}
	return in.unknown
}

func (c *Checker) unaryType(f *SourceFile, n *sitter.Node) *Type {
	in := c.types
	op := n.ChildByFieldName("operator")
	arg := n.ChildByFieldName("argument")
	if op == nil {
		return in.unknown
	}
	switch f.NodeText(op) {
	case "!", "delete":
		return in.boolean
	case "void":
		return in.undef
	case "typeof":
		names := []string{"string", "number", "bigint", "boolean", "symbol", "undefined", "object", "function"}
		members := make([]*Type, len(names))
		for i, name := range names {
			members[i] = in.stringLiteral(name, false)
		}
		return in.union(members...)
	case "-":
		if arg != nil && arg.Type() == "number" {
			return in.numberLiteral("-"+f.NodeText(arg), true)
		}
		return in.num
	case "+", "~":
		return in.num
	}
	return in.unknown
}

func (c *Checker) isStringLike(t *Type) bool {
	if t.flags&TypeFlagsStringLike != 0 {
		return true
	}
	if t.flags&TypeFlagsUnion != 0 {
		for _, m := range t.types {
			if !c.isStringLike(m) {
				return false
			}
		}
		return true
	}
	return false
}

func (c *Checker) filterUnion(t *Type, keep func(*Type) *Type) *Type {
	members := []*Type{t}
	if t.flags&TypeFlagsUnion != 0 {
		members = t.types
	}
	out := make([]*Type, 0, len(members))
	for _, m := range members {
		if k := keep(m); k != nil {
			out = append(out, k)
		}
	}
	return c.types.union(out...)
}

func (c *Checker) removeNullable(t *Type) *Type {
	return c.filterUnion(t, func(m *Type) *Type {
		if m.flags&TypeFlagsNullable != 0 {
			return nil
		}
		return m
	})
}

func (c *Checker) falsyPart(t *Type) *Type {
	in := c.types
	return c.filterUnion(t, func(m *Type) *Type {
		switch {
		case m.flags&(TypeFlagsAny|TypeFlagsUnknown|TypeFlagsNullable) != 0:
			return m
		case m.flags&TypeFlagsBoolean != 0:
			return in.booleanLiteral(false, false)
		case m.flags&TypeFlagsString != 0:
			return in.stringLiteral("", false)
		case m.flags&TypeFlagsNumber != 0:
			return in.numberLiteral("0", false)
		case m.flags&TypeFlagsLiteral != 0 && (m.value == "" || m.value == "0" || m.value == "false"):
			return m
		}
		return nil
	})
}

func (c *Checker) truthyPart(t *Type) *Type {
	return c.filterUnion(t, func(m *Type) *Type {
		switch {
		case m.flags&TypeFlagsNullable != 0:
			return nil
		case m.flags&TypeFlagsLiteral != 0 && (m.value == "" || m.value == "0" || m.value == "false"):
			return nil
		}
		return m
	})
}

func (c *Checker) awaited(t *Type) *Type {
	if o := t.object; o != nil && o.builtin == "Promise" && len(o.TypeArgs) == 1 {
		return o.TypeArgs[0]
	}
	return t
}

func (c *Checker) objectLiteralType(f *SourceFile, n *sitter.Node) *Type {
	in := c.types
	isConst := c.inConstContext(f, n)
	fix := func(t *Type) *Type {
		if isConst {
			return in.regularDeep(t)
		}
		return in.widen(t)
	}
	o := &ObjectType{resolved: true}
	for _, member := range namedChildren(n) {
		switch member.Type() {
		case "pair":
			key := member.ChildByFieldName("key")
			name, ok := c.literalKey(f, key)
			if !ok {
				continue
			}
			o.setProp(name, fix(c.exprType(f, member.ChildByFieldName("value"))))
		case "shorthand_property_identifier":
			o.setProp(f.NodeText(member), fix(c.exprType(f, member)))
		case "method_definition":
			name, ok := c.literalKey(f, member.ChildByFieldName("name"))
			if !ok {
				continue
			}
			o.setProp(name, c.functionType([]*Signature{c.signatureOf(f, member, nil)}))
		case "spread_element":
			spread := c.exprType(f, firstNamed(member))
			if so := spread.object; so != nil {
				for _, name := range so.PropertyNames() {
					t, _ := so.Property(name)
					o.setProp(name, t)
				}
			}
		}
	}
	return in.object(o)
}

// literalKey returns the static name of a property key.
func (c *Checker) literalKey(f *SourceFile, key *sitter.Node) (string, bool) {
	if key == nil {
		return "", false
	}
	if key.Type() == "computed_property_name" {
		t := c.exprType(f, firstNamed(key))
		if t.flags&(TypeFlagsStringLiteral|TypeFlagsNumberLiteral) != 0 {
			return t.value, true
		}
		return "", false
	}
	return propertyName(f, key), true
}

func (c *Checker) arrayLiteralType(f *SourceFile, n *sitter.Node) *Type {
	in := c.types
	isConst := c.inConstContext(f, n)
	var elems []*Type
	for _, el := range namedChildren(n) {
		if el.Type() == "spread_element" {
			elems = append(elems, c.elementType(c.exprType(f, firstNamed(el))))
			continue
		}
		t := c.exprType(f, el)
		if isConst {
			t = in.regularDeep(t)
		} else {
			t = in.widen(t)
		}
		elems = append(elems, t)
	}
	if isConst {
		return in.object(&ObjectType{Tuple: elems, resolved: true})
	}
	return c.arrayOf(in.union(elems...))
}

func (c *Checker) arrayOf(elem *Type) *Type {
	return c.types.object(&ObjectType{Elem: elem, resolved: true, builtin: "Array"})
}

// elementType is the type produced by iterating t.
func (c *Checker) elementType(t *Type) *Type {
	switch {
	case t.flags&TypeFlagsStringLike != 0:
		return c.types.str
	case t.flags&TypeFlagsAny != 0:
		return t
	case t.flags&TypeFlagsUnion != 0:
		members := make([]*Type, len(t.types))
		for i, m := range t.types {
			members[i] = c.elementType(m)
		}
		return c.types.union(members...)
	case t.object != nil && t.object.Elem != nil:
		return t.object.Elem
	case t.object != nil && t.object.Tuple != nil:
		return c.types.union(t.object.Tuple...)
	}
	return c.types.unknown
}

// propertyOf returns the type of t.name.
func (c *Checker) propertyOf(t *Type, name string) *Type {
	in := c.types
	switch {
	case t.flags&TypeFlagsAny != 0:
		return in.any
	case t.flags&TypeFlagsStringLike != 0:
		if name == "length" {
			return in.num
		}
		return in.unknown
	case t.flags&TypeFlagsUnion != 0:
		var members []*Type
		for _, m := range t.types {
			if m.flags&TypeFlagsNullable != 0 {
				continue
			}
			members = append(members, c.propertyOf(m, name))
		}
		return in.union(members...)
	case t.flags&TypeFlagsIntersection != 0:
		for _, m := range t.types {
			if p := c.propertyOf(m, name); p.flags&TypeFlagsUnknown == 0 {
				return p
			}
		}
		return in.unknown
	case t.flags&TypeFlagsTypeParameter != 0:
		if constraint := c.constraintOf(t); constraint != nil {
			return c.propertyOf(constraint, name)
		}
		return in.unknown
	case t.object != nil:
		o := t.object
		if (o.Elem != nil || o.Tuple != nil) && name == "length" {
			if o.Tuple != nil {
				return in.numberLiteral(strconv.Itoa(len(o.Tuple)), false)
			}
			return in.num
		}
		if o.Tuple != nil {
			if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(o.Tuple) {
				return o.Tuple[i]
			}
		}
		if o.Elem != nil {
			if _, err := strconv.Atoi(name); err == nil {
				return o.Elem
			}
		}
		if p, ok := o.Property(name); ok {
			return p
		}
	}
	return in.unknown
}

func (c *Checker) elementAccess(obj, index *Type) *Type {
	switch {
	case index.flags&(TypeFlagsStringLiteral|TypeFlagsNumberLiteral) != 0:
		return c.propertyOf(obj, index.value)
	case index.flags&TypeFlagsUnion != 0:
		members := make([]*Type, len(index.types))
		for i, m := range index.types {
			members[i] = c.elementAccess(obj, m)
		}
		return c.types.union(members...)
	case index.flags&TypeFlagsNumber != 0:
		return c.elementType(obj)
	case obj.object != nil && obj.object.Index != nil:
		return obj.object.Index
	}
	return c.types.unknown
}

// typeOfSymbol returns the value type of sym.
func (c *Checker) typeOfSymbol(sym *Symbol) *Type {
	if t, ok := c.symbolTypes[sym]; ok {
		if t == nil {
			return c.types.unknown
		}
		return t
	}
	c.symbolTypes[sym] = nil
	t := c.computeSymbolType(sym)
	if t == nil {
		t = c.types.unknown
	}
	c.symbolTypes[sym] = t
	return t
}

func (c *Checker) computeSymbolType(sym *Symbol) *Type {
	in := c.types
	d := sym.decl()
	switch {
	case sym.Flags&SymbolImport != 0:
		if sym.ImportName == "*" {
			return c.namespaceType(func(name string) *Symbol {
				return c.exportOf(d.File, sym.Module, name, SymbolValue)
			})
		}
		target := c.resolveImport(sym, SymbolValue)
		if target == nil || target == sym {
			return in.unknown
		}
		return c.typeOfSymbol(target)
	case sym.Flags&SymbolExportDefault != 0:
		return c.exprType(d.File, d.Node.ChildByFieldName("value"))
	case sym.Flags&SymbolFunction != 0:
		sigs := make([]*Signature, 0, len(sym.Decls))
		for _, decl := range sym.Decls {
			sigs = append(sigs, c.signatureOf(decl.File, decl.Node, nil))
		}
		return c.functionType(sigs)
	case sym.Flags&SymbolVariable != 0:
		return c.followPath(c.declaratorType(sym, d), sym.Path)
	case sym.Flags&SymbolParameter != 0:
		return c.followPath(c.parameterType(d), sym.Path)
	case sym.Flags&SymbolForOf != 0:
		right := c.exprType(d.File, d.Node.ChildByFieldName("right"))
		var t *Type
		op := d.Node.ChildByFieldName("operator")
		if (op != nil && d.File.NodeText(op) == "in") || (op == nil && hasToken(d.Node, "in")) {
			t = in.str
		} else {
			t = c.elementType(right)
		}
		return c.followPath(t, sym.Path)
	case sym.Flags&SymbolEnum != 0:
		return c.enumObject(sym)
	case sym.Flags&SymbolNamespace != 0:
		return c.namespaceType(func(name string) *Symbol {
			for _, decl := range sym.Decls {
				body := decl.Node.ChildByFieldName("body")
				if body == nil {
					continue
				}
				if s := c.scopeOf(decl.File, body).lookup(name, SymbolValue); s != nil {
					return s
				}
			}
			return nil
		})
	}
	return in.unknown
}

func (c *Checker) declaratorType(sym *Symbol, d Decl) *Type {
	if ann := d.Node.ChildByFieldName("type"); ann != nil {
		return c.typeFromTypeNode(d.File, ann, nil)
	}
	value := d.Node.ChildByFieldName("value")
	if value == nil {
		return c.types.unknown
	}
	t := c.exprType(d.File, value)
	if !sym.Const {
		t = c.types.widen(t)
	}
	return t
}

func (c *Checker) parameterType(d Decl) *Type {
	in := c.types
	switch d.Node.Type() {
	case "required_parameter", "optional_parameter":
	default:
		return in.unknown
	}
	var t *Type
	if ann := d.Node.ChildByFieldName("type"); ann != nil {
		t = c.typeFromTypeNode(d.File, ann, nil)
	} else if value := d.Node.ChildByFieldName("value"); value != nil {
		t = in.widen(c.exprType(d.File, value))
	} else {
		return in.unknown
	}
	if d.Node.Type() == "optional_parameter" {
		t = in.union(t, in.undef)
	}
	return t
}

func (c *Checker) followPath(t *Type, path []string) *Type {
	for _, elem := range path {
		t = c.propertyOf(t, strings.TrimPrefix(elem, "#"))
	}
	return t
}

func (c *Checker) namespaceType(lookup func(name string) *Symbol) *Type {
	o := &ObjectType{resolved: true, builtin: "namespace"}
	o.lookup = func(name string) (*Type, bool) {
		sym := lookup(name)
		if sym == nil {
			return nil, false
		}
		return c.typeOfSymbol(sym), true
	}
	return c.types.object(o)
}

func (c *Checker) enumObject(sym *Symbol) *Type {
	o := &ObjectType{resolved: true, builtin: sym.Name}
	for _, m := range c.enumMembers(sym) {
		o.setProp(m.name, m.t)
	}
	return c.types.object(o)
}

type enumMember struct {
	name string
	t    *Type
}

func (c *Checker) enumMembers(sym *Symbol) []enumMember {
	in := c.types
	var out []enumMember
	next := 0
	for _, d := range sym.Decls {
		if d.Node.Type() != "enum_declaration" {
			continue
		}
		for _, m := range namedChildren(d.Node.ChildByFieldName("body")) {
			switch m.Type() {
			case "property_identifier", "string":
				out = append(out, enumMember{propertyName(d.File, m), in.numberLiteral(strconv.Itoa(next), false)})
				next++
			case "enum_assignment":
				name := propertyName(d.File, m.ChildByFieldName("name"))
				t := in.regular(c.exprType(d.File, m.ChildByFieldName("value")))
				if t.flags&TypeFlagsNumberLiteral != 0 {
					if v, err := strconv.Atoi(t.value); err == nil {
						next = v + 1
					}
				}
				out = append(out, enumMember{name, t})
			}
		}
	}
	return out
}
