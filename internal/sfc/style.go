package sfc

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// styleBindings returns the expressions of every v-bind() call in a style
// block, in source order. Quoted arguments are unquoted.
func styleBindings(content string) []string {
	var out []string
	l := css.NewLexer(parse.NewInputString(content))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return out
		}
		if tt != css.FunctionToken || !strings.EqualFold(string(data), "v-bind(") {
			continue
		}

		var b strings.Builder
		depth := 1
	arg:
		for {
			tt, data := l.Next()
			switch tt {
			case css.ErrorToken:
				return out
			case css.LeftParenthesisToken, css.FunctionToken:
				depth++
			case css.RightParenthesisToken:
				if depth--; depth == 0 {
					break arg
				}
			}
			b.Write(data)
		}
		if expr := unquote(strings.TrimSpace(b.String())); expr != "" {
			out = append(out, expr)
		}
	}
}
