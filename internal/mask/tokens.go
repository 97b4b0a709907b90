// Package mask protects numbers, units and pinned phrases while text goes
// through a translator.
package mask

import (
	"regexp"
	"strings"
)

const (
	tokenOpen  = "⟦"
	tokenClose = "⟧"
)

// tokenPattern finds tokens in translated text. Translators sometimes pad the
// brackets with spaces or lower-case the letters, both are tolerated.
var tokenPattern = regexp.MustCompile(`(?i)⟦\s*([a-z]+)\s*⟧`)

// Entry is one protected span
type Entry struct {
	Token    string `json:"token"`
	Original string `json:"original"` // text the token replaced
	Restore  string `json:"restore"`  // text the token is restored to
}

// TokenMap records which token stands for which span. Tokens are restored by
// identity, never by position.
type TokenMap struct {
	entries []Entry
	byKey   map[string]int // letters -> index into entries
	first   int            // sequence number of the first token
}

// NewTokenMap creates an empty token map
func NewTokenMap() *TokenMap {
	return NewTokenMapAt(0)
}

// NewTokenMapAt creates an empty token map whose first token is the first-th
// in sequence. Maps for text sent in one request start at disjoint offsets so
// a token can only ever be restored by the map that issued it.
func NewTokenMapAt(first int) *TokenMap {
	if first < 0 {
		first = 0
	}
	return &TokenMap{byKey: make(map[string]int), first: first}
}

// Add protects a span that is restored verbatim
func (m *TokenMap) Add(original string) string {
	return m.Protect(original, original)
}

// Protect registers a span that is restored as replacement. Glossary phrases
// use this to come back as their approved translation.
func (m *TokenMap) Protect(original, replacement string) string {
	key := letters(m.first + len(m.entries))
	token := tokenOpen + key + tokenClose

	m.byKey[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Token: token, Original: original, Restore: replacement})

	return token
}

// Entries returns the protected spans in the order they were added
func (m *TokenMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of protected spans
func (m *TokenMap) Len() int {
	return len(m.entries)
}

// Next returns the sequence number the next token would take. It is the
// offset for a map covering the text that follows.
func (m *TokenMap) Next() int {
	return m.first + len(m.entries)
}

// Missing returns the originals whose tokens do not appear in text
func (m *TokenMap) Missing(text string) []string {
	seen := make(map[string]bool)
	for _, match := range tokenPattern.FindAllStringSubmatch(text, -1) {
		seen[strings.ToUpper(match[1])] = true
	}

	var missing []string
	for _, e := range m.entries {
		if !seen[strings.Trim(e.Token, tokenOpen+tokenClose)] {
			missing = append(missing, e.Original)
		}
	}
	return missing
}

// letters maps 0, 1, ... 25, 26 to A, B, ... Z, AA. Tokens carry no digits so
// a translator has no numerals in them to localize.
func letters(n int) string {
	var b []byte
	for n >= 0 {
		b = append([]byte{byte('A' + n%26)}, b...)
		n = n/26 - 1
	}
	return string(b)
}
