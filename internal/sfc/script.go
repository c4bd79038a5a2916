package sfc

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func parseScript(b *Block) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	if strings.Contains(b.Lang(), "tsx") || strings.Contains(b.Lang(), "jsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(b.Content))
	if err != nil {
		return nil, fmt.Errorf("parse <script>: %w", err)
	}
	return tree, nil
}

// scriptBindings returns the names declared at the top level of b.
func scriptBindings(b *Block) ([]string, error) {
	if b == nil {
		return nil, nil
	}
	tree, err := parseScript(b)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	src := []byte(b.Content)
	var names []string
	add := func(n *sitter.Node) {
		if n != nil {
			names = append(names, n.Content(src))
		}
	}

	var pattern func(n *sitter.Node)
	pattern = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "identifier", "shorthand_property_identifier_pattern":
			add(n)
		case "pair_pattern":
			pattern(n.ChildByFieldName("value"))
		case "object_assignment_pattern", "assignment_pattern":
			pattern(n.ChildByFieldName("left"))
		case "object_pattern", "array_pattern", "rest_pattern":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				pattern(n.NamedChild(i))
			}
		}
	}

	var statement func(n *sitter.Node)
	statement = func(n *sitter.Node) {
		switch n.Type() {
		case "lexical_declaration", "variable_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if d := n.NamedChild(i); d.Type() == "variable_declarator" {
					pattern(d.ChildByFieldName("name"))
				}
			}
		case "function_declaration", "generator_function_declaration", "class_declaration",
			"abstract_class_declaration", "enum_declaration":
			add(n.ChildByFieldName("name"))
		case "export_statement":
			if d := n.ChildByFieldName("declaration"); d != nil {
				statement(d)
			}
		case "import_statement":
			importBindings(n, src, add)
		}
	}

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		statement(root.NamedChild(i))
	}
	return names, nil
}

func importBindings(n *sitter.Node, src []byte, add func(*sitter.Node)) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			c := clause.NamedChild(j)
			switch c.Type() {
			case "identifier":
				add(c)
			case "namespace_import":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					if id := c.NamedChild(k); id.Type() == "identifier" {
						add(id)
					}
				}
			case "named_imports":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					spec := c.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					if alias := spec.ChildByFieldName("alias"); alias != nil {
						add(alias)
					} else {
						add(spec.ChildByFieldName("name"))
					}
				}
			}
		}
	}
}

// rewriteDefaultExport turns `export default <expr>` in a normal script
// into a local binding so that the compiled component can spread it.
// It reports whether a binding named mainBinding was introduced.
func rewriteDefaultExport(b *Block) (string, bool, error) {
	tree, err := parseScript(b)
	if err != nil {
		return "", false, err
	}
	defer tree.Close()

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() != "export_statement" {
			continue
		}
		value := n.ChildByFieldName("value")
		if value == nil {
			continue
		}
		start, end := int(n.StartByte()), int(value.StartByte())
		out := b.Content[:start] + "const " + mainBinding + " = " + b.Content[end:]
		return out, true, nil
	}
	return b.Content, false, nil
}
