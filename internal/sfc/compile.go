package sfc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yacobolo/tsclass/internal/overlay"
)

const (
	helperNormalizeClass  = "__sfc_normalizeClass"
	helperNormalizeStyle  = "__sfc_normalizeStyle"
	helperUnref           = "__sfc_unref"
	helperToDisplayString = "__sfc_toDisplayString"
	helperH               = "__sfc_h"

	renderFunction = "__sfc_render"
	mainBinding    = "__sfc_main"
)

// Augmentation makes normalizeClass infer its argument as a constant type,
// so class bindings keep their literal values.
const Augmentation = `declare module 'vue' {
  export function normalizeClass<const T>(value: T): string
}
`

const helperImport = "import { normalizeClass as " + helperNormalizeClass +
	", normalizeStyle as " + helperNormalizeStyle +
	", unref as " + helperUnref +
	", toDisplayString as " + helperToDisplayString +
	", h as " + helperH + " } from 'vue'\n"

// Result is the TypeScript produced for a component.
type Result struct {
	Content string
	// Bindings are the top-level names of <script setup>, auto-unwrapped in
	// the template.
	Bindings []string
}

// Compile produces a standalone TypeScript module for d.
func Compile(d *Descriptor) (*Result, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrMalformed)
	}
	bindings, err := scriptBindings(d.ScriptSetup)
	if err != nil {
		return nil, err
	}

	c := &compiler{refs: map[string]bool{}}
	for _, name := range bindings {
		c.refs[name] = true
	}

	c.b.WriteString(helperImport)
	if d.ScriptSetup != nil && usesMacros(d.ScriptSetup.Content) && !c.refs["defineProps"] {
		c.b.WriteString("import { defineProps, withDefaults } from 'vue'\n")
	}

	hasMain := false
	if d.Script != nil {
		body, ok, err := rewriteDefaultExport(d.Script)
		if err != nil {
			return nil, err
		}
		hasMain = ok
		c.b.WriteString(body)
		c.b.WriteString("\n")
	}
	if d.ScriptSetup != nil {
		c.b.WriteString(d.ScriptSetup.Content)
		c.b.WriteString("\n")
	}

	c.b.WriteString("function " + renderFunction + "() {\n")
	if d.Template != nil {
		c.children(parseTemplate(d.Template.Content), 1)
	}
	for _, style := range d.Styles {
		for _, expr := range styleBindings(style.Content) {
			c.line(1, "%s;", c.expr(expr))
		}
	}
	c.b.WriteString("}\n")

	c.b.WriteString("export default {")
	if hasMain {
		c.b.WriteString(" ..." + mainBinding + ",")
	}
	fmt.Fprintf(&c.b, " __name: %s, render: %s }\n", quote(filepath.Base(d.Filename)), renderFunction)
	c.b.WriteString(Augmentation)

	return &Result{Content: c.b.String(), Bindings: bindings}, nil
}

func usesMacros(content string) bool {
	return strings.Contains(content, "defineProps") || strings.Contains(content, "withDefaults")
}

type compiler struct {
	b    strings.Builder
	refs map[string]bool
	// locals counts template-scoped names shadowing script bindings.
	locals map[string]int
}

func (c *compiler) isRef(name string) bool {
	return c.refs[name] && c.locals[name] == 0
}

func (c *compiler) expr(src string) string {
	return rewrite(src, c.isRef)
}

func (c *compiler) declare(names []string) {
	if c.locals == nil {
		c.locals = map[string]int{}
	}
	for _, n := range names {
		c.locals[n]++
	}
}

func (c *compiler) release(names []string) {
	for _, n := range names {
		c.locals[n]--
	}
}

func (c *compiler) line(depth int, format string, args ...any) {
	c.b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&c.b, format, args...)
	c.b.WriteString("\n")
}

func (c *compiler) children(e *element, depth int) {
	for _, child := range e.children {
		if child.tag == "" {
			c.text(child.text, depth)
			continue
		}
		c.element(child, depth)
	}
}

func (c *compiler) text(text string, depth int) {
	for _, seg := range splitInterpolations(text) {
		if seg.interp {
			c.line(depth, "%s(%s);", helperToDisplayString, c.expr(strings.TrimSpace(seg.text)))
			continue
		}
		if s := strings.Join(strings.Fields(seg.text), " "); s != "" {
			c.line(depth, "%s(%s);", helperToDisplayString, quote(s))
		}
	}
}

func (c *compiler) element(e *element, depth int) {
	closers := 0
	open := func(format string, args ...any) {
		c.line(depth, format, args...)
		depth++
		closers++
	}

	if a, ok := e.attr("v-if", "v-else-if"); ok {
		open("if (%s) {", c.expr(a.value))
	} else if _, ok := e.attr("v-else"); ok {
		open("{")
	}

	var scoped []string
	if a, ok := e.attr("v-for"); ok {
		if aliases, src, ok := forExpression(a.value); ok {
			open("for (const %s of %s) {", aliases[0], c.expr(src))
			for _, extra := range aliases[1:] {
				c.line(depth, "const %s: any = undefined;", extra)
			}
			for _, alias := range aliases {
				scoped = append(scoped, identifiers(alias)...)
			}
		}
	}
	if pattern, ok := slotPattern(e); ok {
		open("{")
		if pattern != "" {
			c.line(depth, "const %s: any = {};", pattern)
			scoped = append(scoped, identifiers(pattern)...)
		}
	}
	c.declare(scoped)

	if !strings.EqualFold(e.tag, "template") {
		c.line(depth, "%s(%s, { %s });", helperH, c.tagExpr(e), strings.Join(c.props(e), ", "))
	}
	c.children(e, depth)

	c.release(scoped)
	for ; closers > 0; closers-- {
		depth--
		c.line(depth, "}")
	}
}

func (c *compiler) tagExpr(e *element) string {
	if strings.EqualFold(e.tag, "component") {
		if a, ok := e.attr(":is", "v-bind:is"); ok {
			return c.expr(a.value)
		}
	}
	if c.isRef(e.tag) {
		return e.tag
	}
	return quote(e.tag)
}

func slotPattern(e *element) (string, bool) {
	for _, a := range e.attrs {
		if a.name == "v-slot" || strings.HasPrefix(a.name, "v-slot:") || strings.HasPrefix(a.name, "#") {
			return strings.TrimSpace(a.value), true
		}
	}
	return "", false
}

func (c *compiler) props(e *element) []string {
	var props []string
	for _, a := range e.attrs {
		name := a.name
		switch {
		case structural(name):
			continue

		case name == "v-bind" || name == ":":
			if a.value != "" {
				props = append(props, "...("+c.expr(a.value)+")")
			}

		case strings.HasPrefix(name, ":") || strings.HasPrefix(name, "v-bind:") || strings.HasPrefix(name, "."):
			arg := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(name, "v-bind:"), ":"), ".")
			if i := strings.IndexByte(arg, '.'); i >= 0 {
				arg = arg[:i]
			}
			value := a.value
			if value == "" {
				value = camelize(arg)
			}
			value = c.expr(value)
			switch arg {
			case "class":
				value = helperNormalizeClass + "(" + value + ")"
			case "style":
				value = helperNormalizeStyle + "(" + value + ")"
			}
			props = append(props, quote(name)+": "+value)

		case strings.HasPrefix(name, "@") || strings.HasPrefix(name, "v-on:"):
			if a.value != "" {
				props = append(props, quote(name)+": ($event: any) => { "+c.expr(a.value)+" }")
			}

		case strings.HasPrefix(name, "v-"):
			if a.value != "" {
				props = append(props, quote(name)+": "+c.expr(a.value))
			}

		default:
			props = append(props, quote(name)+": "+quote(a.value))
		}
	}
	return props
}

func structural(name string) bool {
	switch name {
	case "v-if", "v-else-if", "v-else", "v-for", "v-slot", "v-pre", "v-once", "v-cloak":
		return true
	}
	return strings.HasPrefix(name, "v-slot:") || strings.HasPrefix(name, "#")
}

func camelize(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// quote renders s as a double-quoted TypeScript string literal.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x2028 || r == 0x2029 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// OverlayID returns the synthetic TypeScript identity of a component. The
// content hash keeps distinct revisions of the same file apart.
func OverlayID(filename, source string) string {
	sum := sha256.Sum256([]byte(source))
	return filename + "." + hex.EncodeToString(sum[:])[:8] + ".ts"
}

// Preprocess compiles the component and stores the result in store under
// its overlay identity.
func Preprocess(store *overlay.Store, filename, source string) (string, error) {
	d, err := Parse(filename, source)
	if err != nil {
		return "", err
	}
	res, err := Compile(d)
	if err != nil {
		return "", err
	}
	id := OverlayID(filename, source)
	store.Set(id, res.Content)
	return id, nil
}
