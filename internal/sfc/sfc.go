// Package sfc turns Vue single-file components into standalone TypeScript
// that the checker can type. Only the parts that influence the types of
// class-bearing expressions are kept: both script blocks and a render
// function mirroring the template.
package sfc

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"
)

// ErrMalformed is returned when a component cannot be split into blocks.
var ErrMalformed = errors.New("malformed single-file component")

// Block is one top-level block of a component.
type Block struct {
	Type    string
	Attrs   map[string]string
	Content string
	// Start and End are byte offsets of Content in the component source.
	Start int
	End   int
}

// Lang returns the lang attribute, or an empty string.
func (b *Block) Lang() string {
	if b == nil {
		return ""
	}
	return strings.ToLower(b.Attrs["lang"])
}

// Setup reports whether b is a <script setup> block.
func (b *Block) Setup() bool {
	if b == nil {
		return false
	}
	_, ok := b.Attrs["setup"]
	return ok
}

// Descriptor is a parsed component.
type Descriptor struct {
	Filename    string
	Source      string
	Template    *Block
	Script      *Block
	ScriptSetup *Block
	Styles      []*Block
	Custom      []*Block
}

// Parse splits source into its top-level blocks.
func Parse(filename, source string) (*Descriptor, error) {
	d := &Descriptor{Filename: filename, Source: source}
	l, at := newLexer(source)

	var (
		cur   *Block
		depth int
		open  bool // inside a start tag
		same  bool // the open start tag has the name of cur
	)
	for {
		tt, data := l.Next()
		at.advance(data)
		switch tt {
		case html.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, filename, err)
			}
			if cur != nil {
				return nil, fmt.Errorf("%w: %s: <%s> is not closed", ErrMalformed, filename, cur.Type)
			}
			if err := d.validate(); err != nil {
				return nil, err
			}
			return d, nil

		case html.StartTagToken:
			name := strings.ToLower(string(l.Text()))
			if cur == nil {
				cur = &Block{Type: name, Attrs: map[string]string{}}
				depth, open, same = 1, true, true
				continue
			}
			open, same = true, name == cur.Type
			if same {
				depth++
			}

		case html.AttributeToken:
			if cur != nil && open && depth == 1 && same {
				key, val := at.attr(l.AttrKey(), l.AttrVal())
				cur.Attrs[strings.ToLower(key)] = unquote(val)
			}

		case html.StartTagCloseToken:
			if cur != nil && open {
				if depth == 1 && same {
					cur.Start = at.pos
				}
				open = false
			}

		case html.StartTagVoidToken:
			if cur == nil || !open {
				continue
			}
			open = false
			if !same {
				continue
			}
			depth--
			if depth == 0 {
				cur.Start = at.pos
				cur.End = cur.Start
				if err := d.add(cur); err != nil {
					return nil, err
				}
				cur = nil
			}

		case html.EndTagToken:
			if cur == nil || !strings.EqualFold(string(l.Text()), cur.Type) {
				continue
			}
			depth--
			if depth == 0 {
				cur.End = at.start
				if cur.Start < 0 || cur.End > len(source) || cur.Start > cur.End {
					return nil, fmt.Errorf("%w: %s: bad bounds for <%s>", ErrMalformed, filename, cur.Type)
				}
				cur.Content = source[cur.Start:cur.End]
				if err := d.add(cur); err != nil {
					return nil, err
				}
				cur = nil
			}
		}
	}
}

func (d *Descriptor) add(b *Block) error {
	dup := func(what string) error {
		return fmt.Errorf("%w: %s: more than one %s block", ErrMalformed, d.Filename, what)
	}
	switch b.Type {
	case "template":
		if d.Template != nil {
			return dup("<template>")
		}
		d.Template = b
	case "script":
		if b.Setup() {
			if d.ScriptSetup != nil {
				return dup("<script setup>")
			}
			d.ScriptSetup = b
			return nil
		}
		if d.Script != nil {
			return dup("<script>")
		}
		d.Script = b
	case "style":
		d.Styles = append(d.Styles, b)
	default:
		d.Custom = append(d.Custom, b)
	}
	return nil
}

func (d *Descriptor) validate() error {
	if d.Template == nil && d.Script == nil && d.ScriptSetup == nil {
		return fmt.Errorf("%w: %s: no <script> or <template> block", ErrMalformed, d.Filename)
	}
	return nil
}

// BlockTypes lists the block types present, sorted.
func (d *Descriptor) BlockTypes() []string {
	seen := map[string]bool{}
	for _, b := range []*Block{d.Template, d.Script, d.ScriptSetup} {
		if b != nil {
			seen[b.Type] = true
		}
	}
	for _, b := range append(d.Styles, d.Custom...) {
		seen[b.Type] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// cursor tracks where each html token lies in the unmodified text. Lexer
// tokens are contiguous, so a token spans [start, pos). The lexer may
// lowercase names in its own buffer, so text is always read from the
// unmodified string.
type cursor struct {
	text       string
	start, pos int
}

// newLexer returns a lexer over a private copy of text and a cursor over
// text itself.
func newLexer(text string) (*html.Lexer, *cursor) {
	return html.NewLexer(parse.NewInputString(text)), &cursor{text: text}
}

// advance moves the cursor past the token data.
func (c *cursor) advance(data []byte) {
	c.start = c.pos
	c.pos = min(c.pos+len(data), len(c.text))
}

// token returns the unmodified text of the current token.
func (c *cursor) token() string {
	return c.text[c.start:c.pos]
}

// attr returns the unmodified key and raw value of the current attribute
// token, whose lexed key and value are key and val.
func (c *cursor) attr(key, val []byte) (string, string) {
	tok := c.token()
	k := string(key)
	if i := strings.Index(strings.ToLower(tok), strings.ToLower(k)); i >= 0 {
		k = tok[i : i+len(key)]
	}
	v := string(val)
	if n := len(val); n > 0 && n <= len(tok) && strings.EqualFold(tok[len(tok)-n:], v) {
		v = tok[len(tok)-n:]
	}
	return k, v
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
