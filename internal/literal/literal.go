// Package literal walks a syntax tree and reports the string literal values
// the checker can prove for its expressions.
package literal

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/yacobolo/tsclass/internal/checker"
	"github.com/yacobolo/tsclass/internal/split"
)

const maxDepth = 32

type variant int

const (
	variantOther variant = iota
	variantLiteral
	variantComposite
)

func classify(t *checker.Type) variant {
	switch {
	case t == nil:
		return variantOther
	case t.IsStringLiteral():
		return variantLiteral
	case t.IsUnionOrIntersection():
		return variantComposite
	}
	return variantOther
}

// Resolve visits every node of f in pre-order and calls emit once for each
// distinct literal value found in the types of string-compatible
// expressions.
func Resolve(f *checker.SourceFile, c *checker.Checker, emit func(string)) {
	if f == nil || c == nil {
		return
	}
	r := &resolver{
		checker: c,
		str:     c.StringType(),
		seen:    make(map[string]bool),
		emit:    emit,
	}
	r.walk(f, f.Root())
}

type resolver struct {
	checker *checker.Checker
	str     *checker.Type
	seen    map[string]bool
	emit    func(string)
}

func (r *resolver) walk(f *checker.SourceFile, n *sitter.Node) {
	if n == nil {
		return
	}
	if r.checker.IsExpression(n) {
		if t := r.checker.TypeAtLocation(f, n); r.checker.IsTypeAssignableTo(t, r.str) {
			r.flatten(t, map[int]bool{}, 0)
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		r.walk(f, n.Child(i))
	}
}

func (r *resolver) flatten(t *checker.Type, visited map[int]bool, depth int) {
	if depth > maxDepth || visited[t.ID()] {
		return
	}
	visited[t.ID()] = true

	switch classify(t) {
	case variantLiteral:
		if v := t.Value(); !r.seen[v] {
			r.seen[v] = true
			r.emit(v)
		}
	case variantComposite:
		for _, m := range t.Types() {
			r.flatten(m, visited, depth+1)
		}
	}
}

// Collect resolves f and adds every non-empty token of every literal.
func Collect(f *checker.SourceFile, c *checker.Checker, s split.Splitter, add func(string)) {
	if s == nil {
		s = split.Default()
	}
	Resolve(f, c, func(v string) {
		for tok := range split.Tokens(s, v) {
			add(tok)
		}
	})
}
