package tsconfig

import (
	"bytes"
	"errors"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// Clean turns JSON with comments and trailing commas into plain JSON.
// Whitespace is normalized to spaces and newlines so that the result is
// also valid YAML.
func Clean(data []byte) []byte {
	type token struct {
		tt   js.TokenType
		data []byte
	}
	l := js.NewLexer(parse.NewInputBytes(bytes.Clone(data)))
	var toks []token
	for {
		tt, text := l.Next()
		if tt == js.ErrorToken {
			break
		}
		toks = append(toks, token{tt, text})
	}

	trivia := func(tt js.TokenType) bool {
		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
			return true
		}
		return false
	}
	trailing := func(i int) bool {
		for _, t := range toks[i+1:] {
			if !trivia(t.tt) {
				return string(t.data) == "}" || string(t.data) == "]"
			}
		}
		return false
	}

	var out bytes.Buffer
	for i, t := range toks {
		switch {
		case t.tt == js.CommentToken:
		case t.tt == js.CommentLineTerminatorToken || t.tt == js.LineTerminatorToken:
			out.WriteByte('\n')
		case t.tt == js.WhitespaceToken:
			out.WriteString(strings.Repeat(" ", len(t.data)))
		case string(t.data) == "," && trailing(i):
		default:
			out.Write(t.data)
		}
	}
	return out.Bytes()
}

// bytesProvider is a koanf.Provider over an in-memory document.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) { return b, nil }

func (b bytesProvider) Read() (map[string]any, error) {
	return nil, errors.New("tsconfig: bytes provider does not support Read")
}
