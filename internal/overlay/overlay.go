// Package overlay holds synthetic source text that takes precedence over the
// filesystem when the checker loads a file.
package overlay

import "path/filepath"

// Store maps file identities to synthetic text.
// It is not safe for concurrent use.
type Store struct {
	entries map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]string)}
}

// Key normalizes an identity the same way for writers and readers.
func Key(id string) string {
	if id == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(id))
}

// Set registers text for id, replacing any previous entry.
func (s *Store) Set(id, text string) {
	s.entries[Key(id)] = text
}

// Get returns the text registered for id.
func (s *Store) Get(id string) (string, bool) {
	text, ok := s.entries[Key(id)]
	return text, ok
}

// Has reports whether id has an entry.
func (s *Store) Has(id string) bool {
	_, ok := s.entries[Key(id)]
	return ok
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Clear drops every entry.
func (s *Store) Clear() {
	clear(s.entries)
}
