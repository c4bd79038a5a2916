// Package split turns resolved literal values into candidate class tokens.
package split

import (
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"
)

// DefaultPattern matches runs of whitespace, quotes, backticks, semicolons and
// braces, optionally preceded by a backslash or a colon.
const DefaultPattern = "[\\\\:]?[\\s'\"`;{}]+"

var defaultRE = regexp.MustCompile(DefaultPattern)

// Splitter splits a literal value into tokens. Implementations may return
// empty strings; callers drop them.
type Splitter interface {
	Split(input string) []string
}

type patternSplitter struct{ re *regexp.Regexp }

func (s patternSplitter) Split(input string) []string { return s.re.Split(input, -1) }

type literalSplitter struct{ sep string }

func (s literalSplitter) Split(input string) []string { return strings.Split(input, s.sep) }

type funcSplitter struct{ fn func(string) iter.Seq[string] }

func (s funcSplitter) Split(input string) []string {
	if s.fn == nil {
		return []string{input}
	}
	return slices.Collect(s.fn(input))
}

type noSplitter struct{}

func (noSplitter) Split(input string) []string { return []string{input} }

// Default splits on DefaultPattern.
func Default() Splitter { return patternSplitter{re: defaultRE} }

// Pattern splits on every match of re. A nil re falls back to Default.
func Pattern(re *regexp.Regexp) Splitter {
	if re == nil {
		return Default()
	}
	return patternSplitter{re: re}
}

// Literal splits on the exact separator sep.
func Literal(sep string) Splitter { return literalSplitter{sep: sep} }

// Func delegates splitting to fn.
func Func(fn func(string) iter.Seq[string]) Splitter { return funcSplitter{fn: fn} }

// None returns the input unchanged as the only token.
func None() Splitter { return noSplitter{} }

// Split mode names accepted by Parse.
const (
	ModeDefault = "default"
	ModePattern = "pattern"
	ModeLiteral = "literal"
	ModeNone    = "none"
)

// Parse builds a Splitter from configuration values. The modes mirror the
// boolean shorthand as well: "true" is the default pattern, "false" disables
// splitting.
func Parse(mode, value string) (Splitter, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeDefault, "true":
		if value != "" {
			return Parse(ModePattern, value)
		}
		return Default(), nil
	case ModePattern:
		if value == "" {
			return Default(), nil
		}
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("split pattern %q: %w", value, err)
		}
		return Pattern(re), nil
	case ModeLiteral:
		if value == "" {
			return nil, fmt.Errorf("split mode %q needs a separator", mode)
		}
		return Literal(value), nil
	case ModeNone, "false":
		return None(), nil
	default:
		return nil, fmt.Errorf("unknown split mode %q (want default|pattern|literal|none)", mode)
	}
}

// Tokens splits input and yields the non-empty tokens.
func Tokens(s Splitter, input string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, tok := range s.Split(input) {
			if tok == "" {
				continue
			}
			if !yield(tok) {
				return
			}
		}
	}
}
