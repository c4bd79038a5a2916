package tsclass

import (
	"maps"
	"slices"
)

// Set is a duplicate-free collection of tokens.
type Set map[string]struct{}

// NewSet returns a set holding tokens.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s.Add(t)
	}
	return s
}

// Add inserts token. Empty tokens are ignored.
func (s Set) Add(token string) {
	if token != "" {
		s[token] = struct{}{}
	}
}

// Has reports whether token is in s.
func (s Set) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Len returns the number of tokens.
func (s Set) Len() int { return len(s) }

// Sorted returns the tokens in lexical order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Merge adds every token of other to s.
func (s Set) Merge(other Set) {
	for t := range other {
		s[t] = struct{}{}
	}
}
