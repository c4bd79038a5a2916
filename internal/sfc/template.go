package sfc

import (
	"strings"

	"github.com/tdewolff/parse/v2/html"
)

type attr struct {
	name  string
	value string
}

// element is a template node. Text nodes have an empty tag.
type element struct {
	tag      string
	attrs    []attr
	children []*element
	text     string
}

func (e *element) attr(names ...string) (attr, bool) {
	for _, a := range e.attrs {
		for _, n := range names {
			if a.name == n {
				return a, true
			}
		}
	}
	return attr{}, false
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

// parseTemplate builds the element tree of a template block. Unbalanced
// markup is tolerated: unknown end tags are ignored and open elements are
// closed at the end of input.
func parseTemplate(content string) *element {
	l, at := newLexer(content)

	root := &element{tag: "template"}
	stack := []*element{root}
	var open *element
	for {
		tt, data := l.Next()
		at.advance(data)
		parent := stack[len(stack)-1]
		switch tt {
		case html.ErrorToken:
			return root
		case html.StartTagToken:
			el := &element{tag: strings.TrimPrefix(at.token(), "<")}
			parent.children = append(parent.children, el)
			open = el
		case html.AttributeToken:
			if open != nil {
				key, val := at.attr(l.AttrKey(), l.AttrVal())
				open.attrs = append(open.attrs, attr{name: key, value: unquote(val)})
			}
		case html.StartTagCloseToken:
			if open != nil && !voidElements[strings.ToLower(open.tag)] {
				stack = append(stack, open)
			}
			open = nil
		case html.StartTagVoidToken:
			open = nil
		case html.EndTagToken:
			name := string(l.Text())
			for i := len(stack) - 1; i > 0; i-- {
				if strings.EqualFold(stack[i].tag, name) {
					stack = stack[:i]
					break
				}
			}
		case html.TextToken:
			parent.children = append(parent.children, &element{text: at.token()})
		}
	}
}

// segment is a piece of template text: static text or an interpolation.
type segment struct {
	text   string
	interp bool
}

func splitInterpolations(text string) []segment {
	var out []segment
	for text != "" {
		i := strings.Index(text, "{{")
		if i < 0 {
			break
		}
		j := strings.Index(text[i+2:], "}}")
		if j < 0 {
			break
		}
		if i > 0 {
			out = append(out, segment{text: text[:i]})
		}
		out = append(out, segment{text: text[i+2 : i+2+j], interp: true})
		text = text[i+2+j+2:]
	}
	if text != "" {
		out = append(out, segment{text: text})
	}
	return out
}

// forExpression splits a v-for value into its alias list and source.
func forExpression(v string) (aliases []string, src string, ok bool) {
	idx, sepLen := -1, 0
	for _, sep := range []string{" in ", " of "} {
		if i := strings.Index(v, sep); i >= 0 && (idx < 0 || i < idx) {
			idx, sepLen = i, len(sep)
		}
	}
	if idx < 0 {
		return nil, "", false
	}
	lhs := strings.TrimSpace(v[:idx])
	src = strings.TrimSpace(v[idx+sepLen:])
	if strings.HasPrefix(lhs, "(") && strings.HasSuffix(lhs, ")") {
		lhs = lhs[1 : len(lhs)-1]
	}
	for _, a := range splitTopLevel(lhs) {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	return aliases, src, len(aliases) > 0 && src != ""
}

// splitTopLevel splits s on commas that are not nested in brackets.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}
