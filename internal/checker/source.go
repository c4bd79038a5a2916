package checker

import (
	"context"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SourceFile is a parsed TypeScript file.
type SourceFile struct {
	Path string
	Text []byte
	Hash [sha256.Size]byte

	tree   *sitter.Tree
	root   *sitter.Node
	isLib  bool
	closed bool
}

// ParseFile parses text as TypeScript. Files ending in .tsx or .jsx use the
// TSX grammar.
func ParseFile(path, text string) (*SourceFile, error) {
	return parseFile(context.Background(), path, []byte(text))
}

func parseFile(ctx context.Context, path string, content []byte) (*SourceFile, error) {
	parser := sitter.NewParser()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx", ".jsx":
		parser.SetLanguage(tsx.GetLanguage())
	default:
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &SourceFile{
		Path: path,
		Text: content,
		Hash: sha256.Sum256(content),
		tree: tree,
		root: tree.RootNode(),
	}, nil
}

// Root returns the root node of the syntax tree.
func (f *SourceFile) Root() *sitter.Node { return f.root }

// IsDeclarationFile reports whether f is a .d.ts file.
func (f *SourceFile) IsDeclarationFile() bool {
	return f.isLib || strings.HasSuffix(f.Path, ".d.ts")
}

// NodeText returns the source text spanned by n.
func (f *SourceFile) NodeText(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.Text)
}

// Close releases the syntax tree.
func (f *SourceFile) Close() {
	if f.closed || f.tree == nil {
		return
	}
	f.closed = true
	f.tree.Close()
}

type nodeKey struct {
	start, end uint32
	kind       string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte(), kind: n.Type()}
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// children returns every child of n, anonymous tokens included.
func children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := namedChildren(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

func childOfType(n *sitter.Node, kinds ...string) *sitter.Node {
	for _, c := range namedChildren(n) {
		for _, k := range kinds {
			if c.Type() == k {
				return c
			}
		}
	}
	return nil
}

func hasToken(n *sitter.Node, token string) bool {
	for _, c := range children(n) {
		if !c.IsNamed() && c.Type() == token {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return keyOf(a) == keyOf(b)
}

// stringValue returns the unquoted contents of a string node.
func (f *SourceFile) stringValue(n *sitter.Node) string {
	var b strings.Builder
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "string_fragment":
			b.WriteString(f.NodeText(c))
		case "escape_sequence":
			b.WriteString(unescape(f.NodeText(c)))
		}
	}
	if b.Len() == 0 && len(namedChildren(n)) == 0 {
		raw := f.NodeText(n)
		if len(raw) >= 2 {
			return raw[1 : len(raw)-1]
		}
	}
	return b.String()
}

func unescape(seq string) string {
	if len(seq) < 2 {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	case '\n', '\r':
		return ""
	case 'u', 'x':
		var r rune
		if _, err := fmt.Sscanf(strings.Trim(seq[2:], "{}"), "%x", &r); err == nil {
			return string(r)
		}
		return seq
	}
	return seq[1:]
}
