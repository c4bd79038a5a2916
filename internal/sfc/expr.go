package sfc

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

type jsToken struct {
	tt   js.TokenType
	text string
}

func (t jsToken) trivia() bool {
	switch t.tt {
	case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		return true
	}
	return false
}

// lexJS tokenizes src. When the lexer stops early the unread remainder is
// returned as a final token so that no input is lost.
func lexJS(src string) []jsToken {
	l := js.NewLexer(parse.NewInputString(src))
	var toks []jsToken
	consumed := 0
	for {
		tt, data := l.Next()
		if tt == js.ErrorToken {
			break
		}
		toks = append(toks, jsToken{tt, string(data)})
		consumed += len(data)
	}
	if consumed < len(src) {
		toks = append(toks, jsToken{js.ErrorToken, src[consumed:]})
	}
	return toks
}

// identifiers returns the binding names of a pattern such as `item`,
// `{ id, name: label }` or `[a, b]`.
func identifiers(pattern string) []string {
	toks := significant(lexJS(pattern))
	var names []string
	for i, t := range toks {
		if t.tt != js.IdentifierToken {
			continue
		}
		if i+1 < len(toks) && toks[i+1].text == ":" {
			continue
		}
		if i > 0 && toks[i-1].text == "=" {
			continue
		}
		names = append(names, t.text)
	}
	return names
}

func significant(toks []jsToken) []jsToken {
	out := toks[:0:0]
	for _, t := range toks {
		if !t.trivia() {
			out = append(out, t)
		}
	}
	return out
}

// rewrite wraps every reference to a ref binding in src with the unref
// helper. Member names, object keys and arrow parameters are left alone;
// shorthand properties are expanded.
func rewrite(src string, isRef func(string) bool) string {
	toks := lexJS(src)
	next := func(i int) string {
		for j := i + 1; j < len(toks); j++ {
			if !toks[j].trivia() {
				return toks[j].text
			}
		}
		return ""
	}

	var (
		b     strings.Builder
		stack []string
		prev  string
	)
	for i, t := range toks {
		if t.trivia() {
			b.WriteString(t.text)
			continue
		}
		switch t.tt {
		case js.TemplateStartToken:
			stack = append(stack, "${")
		case js.TemplateEndToken:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case js.IdentifierToken:
			if isRef(t.text) && prev != "." && prev != "?." {
				after := next(i)
				inObject := len(stack) > 0 && stack[len(stack)-1] == "{" && (prev == "{" || prev == ",")
				switch {
				case after == "=>":
				case inObject && (after == ":" || after == "("):
				case inObject && (after == "," || after == "}"):
					b.WriteString(t.text + ": " + unrefCall(t.text))
					prev = t.text
					continue
				default:
					b.WriteString(unrefCall(t.text))
					prev = t.text
					continue
				}
			}
		default:
			switch t.text {
			case "{", "(", "[":
				stack = append(stack, t.text)
			case "}", ")", "]":
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
		}
		b.WriteString(t.text)
		prev = t.text
	}
	return b.String()
}

func unrefCall(name string) string {
	return helperUnref + "(" + name + ")"
}
