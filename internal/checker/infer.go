package checker

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Signature is a call signature taken from a function-like declaration.
type Signature struct {
	file       *SourceFile
	decl       *sitter.Node
	env        *typeEnv
	typeParams []*typeParam
	params     []param
	returnNode *sitter.Node
	body       *sitter.Node
}

type param struct {
	typeNode *sitter.Node
	optional bool
	rest     bool
}

// minArgs is the number of arguments a call must supply.
func (s *Signature) minArgs() int {
	n := 0
	for i, p := range s.params {
		if !p.optional && !p.rest {
			n = i + 1
		}
	}
	return n
}

func (s *Signature) accepts(argc int) bool {
	if argc < s.minArgs() {
		return false
	}
	if len(s.params) > 0 && s.params[len(s.params)-1].rest {
		return true
	}
	return argc <= len(s.params)
}

// paramAt returns the declared parameter receiving argument i.
func (s *Signature) paramAt(i int) (param, bool) {
	if i < len(s.params) && !s.params[i].rest {
		return s.params[i], true
	}
	if len(s.params) > 0 && s.params[len(s.params)-1].rest {
		return s.params[len(s.params)-1], true
	}
	return param{}, false
}

func (s *Signature) typeParam(name string) *typeParam {
	for _, tp := range s.typeParams {
		if tp.name == name {
			return tp
		}
	}
	return nil
}

// signatureOf builds the signature declared by a function-like node.
func (c *Checker) signatureOf(f *SourceFile, n *sitter.Node, env *typeEnv) *Signature {
	sig := &Signature{file: f, decl: n, env: env, body: n.ChildByFieldName("body")}

	tps := n.ChildByFieldName("type_parameters")
	if tps == nil {
		tps = childOfType(n, "type_parameters")
	}
	for _, tp := range namedChildren(tps) {
		if tp.Type() == "type_parameter" {
			sig.typeParams = append(sig.typeParams, c.typeParamInfo(f, tp))
		}
	}

	if p := n.ChildByFieldName("parameter"); p != nil {
		sig.params = append(sig.params, param{})
	}
	params := n.ChildByFieldName("parameters")
	if params == nil {
		params = childOfType(n, "formal_parameters")
	}
	for _, p := range namedChildren(params) {
		switch p.Type() {
		case "required_parameter", "optional_parameter":
		default:
			continue
		}
		pattern := p.ChildByFieldName("pattern")
		if pattern != nil && pattern.Type() == "this" {
			continue
		}
		var typeNode *sitter.Node
		if ann := p.ChildByFieldName("type"); ann != nil {
			typeNode = firstNamed(ann)
		}
		sig.params = append(sig.params, param{
			typeNode: typeNode,
			optional: p.Type() == "optional_parameter" || p.ChildByFieldName("value") != nil,
			rest:     pattern != nil && pattern.Type() == "rest_pattern",
		})
	}

	if ret := n.ChildByFieldName("return_type"); ret != nil {
		if ret.Type() == "type_annotation" {
			sig.returnNode = firstNamed(ret)
		} else {
			sig.returnNode = ret
		}
	}
	return sig
}

func (c *Checker) functionType(sigs []*Signature) *Type {
	return c.types.object(&ObjectType{signatures: sigs, resolved: true, builtin: "Function"})
}

// signaturesOf returns the call signatures of t.
func (c *Checker) signaturesOf(t *Type) []*Signature {
	switch {
	case t.object != nil:
		return t.object.Signatures()
	case t.flags&TypeFlagsUnion != 0:
		for _, m := range t.types {
			if sigs := c.signaturesOf(m); len(sigs) > 0 {
				return sigs
			}
		}
	case t.flags&TypeFlagsIntersection != 0:
		var sigs []*Signature
		for _, m := range t.types {
			sigs = append(sigs, c.signaturesOf(m)...)
		}
		return sigs
	case t.flags&TypeFlagsTypeParameter != 0:
		if constraint := c.constraintOf(t); constraint != nil {
			return c.signaturesOf(constraint)
		}
	}
	return nil
}

// pickSignature selects the first overload accepting argc arguments.
func pickSignature(sigs []*Signature, argc int) *Signature {
	for _, sig := range sigs {
		if sig.accepts(argc) {
			return sig
		}
	}
	if len(sigs) > 0 {
		return sigs[0]
	}
	return nil
}

func callArguments(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.Type() != "arguments" {
		return nil
	}
	return namedChildren(args)
}

func (c *Checker) calleeSignature(f *SourceFile, call *sitter.Node) *Signature {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() == "import" {
		return nil
	}
	return pickSignature(c.signaturesOf(c.exprType(f, fn)), len(callArguments(call)))
}

func (c *Checker) callType(f *SourceFile, call *sitter.Node) *Type {
	sig := c.calleeSignature(f, call)
	if sig == nil {
		return c.types.unknown
	}
	typeArgs := call.ChildByFieldName("type_arguments")
	if typeArgs == nil {
		typeArgs = childOfType(call, "type_arguments")
	}
	env := c.instantiate(sig, f, callArguments(call), typeArgs)
	return c.returnTypeOf(sig, env)
}

// isConstArgument reports whether arg is passed to a parameter typed by a
// const type parameter of the callee.
func (c *Checker) isConstArgument(f *SourceFile, args, arg *sitter.Node) bool {
	call := args.Parent()
	if call == nil || call.Type() != "call_expression" {
		return false
	}
	sig := c.calleeSignature(f, call)
	if sig == nil {
		return false
	}
	index := -1
	for i, a := range namedChildren(args) {
		if sameNode(a, arg) {
			index = i
			break
		}
	}
	p, ok := sig.paramAt(index)
	if !ok || p.typeNode == nil {
		return false
	}
	return constParamReference(sig, p.typeNode)
}

func constParamReference(sig *Signature, n *sitter.Node) bool {
	switch n.Type() {
	case "type_identifier":
		tp := sig.typeParam(sig.file.NodeText(n))
		return tp != nil && tp.isConst
	case "union_type", "intersection_type", "parenthesized_type", "readonly_type", "array_type":
		for _, m := range namedChildren(n) {
			if constParamReference(sig, m) {
				return true
			}
		}
	}
	return false
}

type inference struct {
	names map[string]bool
	cands map[string][]*Type
}

func newInference(names ...string) *inference {
	inf := &inference{names: make(map[string]bool), cands: make(map[string][]*Type)}
	for _, n := range names {
		inf.names[n] = true
	}
	return inf
}

func (inf *inference) add(name string, t *Type) {
	inf.cands[name] = append(inf.cands[name], t)
}

// instantiate binds the type parameters of sig for a call with args.
func (c *Checker) instantiate(sig *Signature, f *SourceFile, args []*sitter.Node, typeArgs *sitter.Node) *typeEnv {
	env := &typeEnv{parent: sig.env, names: make(map[string]*Type)}
	if len(sig.typeParams) == 0 {
		return env
	}

	if explicit := namedChildren(typeArgs); len(explicit) > 0 {
		for i, tp := range sig.typeParams {
			if i < len(explicit) {
				env.names[tp.name] = c.typeFromTypeNode(f, explicit[i], nil)
			} else {
				env.names[tp.name] = c.defaultTypeArg(tp, env)
			}
		}
		return env
	}

	names := make([]string, len(sig.typeParams))
	for i, tp := range sig.typeParams {
		names[i] = tp.name
	}
	inf := newInference(names...)
	for i, arg := range args {
		p, ok := sig.paramAt(i)
		if !ok || p.typeNode == nil {
			continue
		}
		argType := c.exprType(f, arg)
		target := p.typeNode
		if p.rest && target.Type() == "array_type" {
			target = firstNamed(target)
		}
		c.inferFrom(sig.file, target, argType, inf, 0)
	}

	for _, tp := range sig.typeParams {
		cands := inf.cands[tp.name]
		if len(cands) == 0 {
			env.names[tp.name] = c.defaultTypeArg(tp, env)
			continue
		}
		t := c.types.union(cands...)
		if !tp.isConst && !c.keepsLiterals(sig, tp) {
			t = c.types.widen(t)
		}
		env.names[tp.name] = t
	}
	return env
}

func (c *Checker) defaultTypeArg(tp *typeParam, env *typeEnv) *Type {
	if tp.constraint != nil {
		return c.typeFromTypeNode(tp.file, tp.constraint, env)
	}
	return c.types.unknown
}

// keepsLiterals reports whether inferences for tp stay literal: the
// parameter has a primitive constraint or is returned bare.
func (c *Checker) keepsLiterals(sig *Signature, tp *typeParam) bool {
	if tp.constraint != nil {
		constraint := c.typeFromTypeNode(tp.file, tp.constraint, nil)
		if c.hasPrimitive(constraint) {
			return true
		}
	}
	return sig.returnNode != nil && sig.returnNode.Type() == "type_identifier" &&
		sig.file.NodeText(sig.returnNode) == tp.name
}

func (c *Checker) hasPrimitive(t *Type) bool {
	if t.flags&(TypeFlagsPrimitiveBases|TypeFlagsLiteral) != 0 {
		return true
	}
	if t.flags&TypeFlagsUnionOrInter != 0 {
		for _, m := range t.types {
			if c.hasPrimitive(m) {
				return true
			}
		}
	}
	return false
}

// inferFrom collects candidates for the inference type parameters by
// matching the parameter type node n against the argument type src.
func (c *Checker) inferFrom(f *SourceFile, n *sitter.Node, src *Type, inf *inference, depth int) {
	if n == nil || src == nil || depth > maxDepth {
		return
	}
	switch n.Type() {
	case "type_annotation", "parenthesized_type", "readonly_type":
		c.inferFrom(f, firstNamed(n), src, inf, depth+1)
	case "type_identifier":
		if name := f.NodeText(n); inf.names[name] {
			inf.add(name, src)
		}
	case "union_type":
		c.inferFromUnion(f, flattenUnionNodes(n), src, inf, depth)
	case "generic_type":
		c.inferFromGeneric(f, n, src, inf, depth)
	case "array_type":
		if src.object != nil && (src.object.Elem != nil || src.object.Tuple != nil) {
			c.inferFrom(f, firstNamed(n), c.elementType(src), inf, depth+1)
		}
	case "tuple_type":
		if src.object == nil || src.object.Tuple == nil {
			return
		}
		for i, el := range namedChildren(n) {
			if i < len(src.object.Tuple) {
				c.inferFrom(f, el, src.object.Tuple[i], inf, depth+1)
			}
		}
	case "function_type":
		ret := n.ChildByFieldName("return_type")
		sigs := c.signaturesOf(src)
		if ret == nil || len(sigs) == 0 {
			return
		}
		c.inferFrom(f, ret, c.returnTypeOf(sigs[0], nil), inf, depth+1)
	case "object_type":
		if src.object == nil {
			return
		}
		for _, m := range namedChildren(n) {
			if m.Type() != "property_signature" {
				continue
			}
			name, ok := c.literalKey(f, m.ChildByFieldName("name"))
			if !ok {
				continue
			}
			if pt, ok := src.object.Property(name); ok {
				c.inferFrom(f, m.ChildByFieldName("type"), pt, inf, depth+1)
			}
		}
	}
}

func flattenUnionNodes(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, m := range namedChildren(n) {
		if m.Type() == "union_type" {
			out = append(out, flattenUnionNodes(m)...)
			continue
		}
		out = append(out, m)
	}
	return out
}

// inferFromUnion matches structured members (Ref<T>, T[], ...) first; the
// remaining source constituents go to naked type parameters.
func (c *Checker) inferFromUnion(f *SourceFile, members []*sitter.Node, src *Type, inf *inference, depth int) {
	var naked []string
	var structured []*sitter.Node
	for _, m := range members {
		if m.Type() == "type_identifier" && inf.names[f.NodeText(m)] {
			naked = append(naked, f.NodeText(m))
			continue
		}
		structured = append(structured, m)
	}

	sources := []*Type{src}
	if src.flags&TypeFlagsUnion != 0 {
		sources = src.types
	}
	var unmatched []*Type
	for _, s := range sources {
		matched := false
		for _, m := range structured {
			if c.matchesShape(f, m, s) {
				c.inferFrom(f, m, s, inf, depth+1)
				matched = true
				break
			}
		}
		if !matched {
			unmatched = append(unmatched, s)
		}
	}
	if len(unmatched) == 0 {
		return
	}
	rest := c.types.union(unmatched...)
	for _, name := range naked {
		inf.add(name, rest)
	}
}

// matchesShape reports whether src has the structure the type node n
// describes, so that inference should descend into n.
func (c *Checker) matchesShape(f *SourceFile, n *sitter.Node, src *Type) bool {
	o := src.object
	if o == nil {
		return false
	}
	switch n.Type() {
	case "parenthesized_type", "readonly_type":
		return c.matchesShape(f, firstNamed(n), src)
	case "generic_type":
		name := n.ChildByFieldName("name")
		if name == nil {
			name = firstNamed(n)
		}
		switch f.NodeText(name) {
		case "Array", "ReadonlyArray":
			return o.Elem != nil || o.Tuple != nil
		case "Promise", "PromiseLike":
			return o.builtin == "Promise"
		}
		sym := c.resolveName(f, name, f.NodeText(name), SymbolType)
		if sym = c.resolveImport(sym, SymbolType); sym == nil {
			return false
		}
		if sym.Flags&SymbolTypeAlias != 0 {
			return true
		}
		return sameTarget(o.Target, sym)
	case "array_type":
		return o.Elem != nil || o.Tuple != nil
	case "tuple_type":
		return o.Tuple != nil
	case "function_type":
		return len(o.Signatures()) > 0
	case "object_type":
		return o.Elem == nil && o.Tuple == nil && len(o.Signatures()) == 0
	}
	return false
}

func (c *Checker) inferFromGeneric(f *SourceFile, n *sitter.Node, src *Type, inf *inference, depth int) {
	name := n.ChildByFieldName("name")
	if name == nil {
		name = firstNamed(n)
	}
	argsNode := n.ChildByFieldName("type_arguments")
	if argsNode == nil {
		argsNode = childOfType(n, "type_arguments")
	}
	argNodes := namedChildren(argsNode)
	o := src.object

	switch f.NodeText(name) {
	case "Array", "ReadonlyArray":
		if o != nil && len(argNodes) == 1 && (o.Elem != nil || o.Tuple != nil) {
			c.inferFrom(f, argNodes[0], c.elementType(src), inf, depth+1)
		}
		return
	case "Promise", "PromiseLike":
		if o != nil && o.builtin == "Promise" && len(argNodes) == 1 && len(o.TypeArgs) == 1 {
			c.inferFrom(f, argNodes[0], o.TypeArgs[0], inf, depth+1)
		}
		return
	}

	sym := c.resolveImport(c.resolveName(f, name, f.NodeText(name), SymbolType), SymbolType)
	if sym == nil {
		return
	}
	if sym.Flags&SymbolTypeAlias != 0 {
		// Infer through the alias body, then map the alias parameters back
		// onto the argument nodes.
		d := sym.decl()
		var aliasNames []string
		tps := d.Node.ChildByFieldName("type_parameters")
		for _, tp := range namedChildren(tps) {
			if tp.Type() == "type_parameter" {
				aliasNames = append(aliasNames, d.File.NodeText(tp.ChildByFieldName("name")))
			}
		}
		inner := newInference(aliasNames...)
		c.inferFrom(d.File, d.Node.ChildByFieldName("value"), src, inner, depth+1)
		for i, an := range aliasNames {
			if i >= len(argNodes) || len(inner.cands[an]) == 0 {
				continue
			}
			c.inferFrom(f, argNodes[i], c.types.union(inner.cands[an]...), inf, depth+1)
		}
		return
	}
	if o == nil || !sameTarget(o.Target, sym) {
		return
	}
	for i, an := range argNodes {
		if i < len(o.TypeArgs) {
			c.inferFrom(f, an, o.TypeArgs[i], inf, depth+1)
		}
	}
}

// returnTypeOf resolves the return type of sig under env. Signatures
// without an annotation return the widened type of their body.
func (c *Checker) returnTypeOf(sig *Signature, env *typeEnv) *Type {
	if sig.returnNode != nil {
		if env == nil {
			env = sig.env
		}
		return c.typeFromTypeNode(sig.file, sig.returnNode, env)
	}
	if sig.body == nil {
		if sig.decl != nil && sig.decl.Type() == "function_signature" {
			return c.types.void
		}
		return c.types.unknown
	}
	if sig.body.Type() != "statement_block" {
		return c.types.widen(c.exprType(sig.file, sig.body))
	}
	var returns []*Type
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for _, child := range namedChildren(n) {
			switch child.Type() {
			case "return_statement":
				if value := firstNamed(child); value != nil {
					returns = append(returns, c.exprType(sig.file, value))
				} else {
					returns = append(returns, c.types.undef)
				}
			case "function_declaration", "function_expression", "function", "arrow_function",
				"class_declaration", "class", "method_definition", "generator_function_declaration":
			default:
				walk(child)
			}
		}
	}
	walk(sig.body)
	if len(returns) == 0 {
		return c.types.void
	}
	return c.types.widen(c.types.union(returns...))
}
