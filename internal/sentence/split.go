// Package sentence splits narrative text without breaking decimals apart.
package sentence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Split breaks text into sentences on '.', '!', '?' and the danda '।'.
// A terminator with a digit on both sides is part of a number and never
// ends a sentence. Terminators stay attached to their sentence.
func Split(text string) []string {
	var sentences []string

	start := 0
	for i, r := range text {
		if !isTerminator(r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if digitBefore(text, i) && digitAfter(text, end) {
			continue
		}
		// run of terminators ("?!", "...") stays together
		if next, _ := utf8.DecodeRuneInString(text[end:]); isTerminator(next) {
			continue
		}

		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Chunk packs whole sentences into chunks of at most max runes. A sentence
// longer than max is split on word boundaries; a single word longer than
// max becomes its own chunk.
func Chunk(sentences []string, max int) []string {
	if max <= 0 {
		max = 220
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	add := func(piece string) {
		switch {
		case current.Len() == 0:
			current.WriteString(piece)
		case utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(piece) <= max:
			current.WriteByte(' ')
			current.WriteString(piece)
		default:
			flush()
			current.WriteString(piece)
		}
	}

	for _, s := range sentences {
		if utf8.RuneCountInString(s) <= max {
			add(s)
			continue
		}
		flush()
		for _, word := range strings.Fields(s) {
			add(word)
		}
		flush()
	}
	flush()

	return chunks
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '।':
		return true
	}
	return false
}

func digitBefore(s string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsDigit(r)
}

func digitAfter(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsDigit(r)
}
