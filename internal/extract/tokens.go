package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// numberToken is a numeric literal found on a line
type numberToken struct {
	Text  string
	Start int // byte offset
	End   int
}

// scanNumbers finds standalone numeric tokens in s.
//
// A digit run counts only when it is not glued to a preceding letter or digit,
// so "B12", "HbA1c" and "T3" stay part of a name. Indian and western digit
// grouping ("1,50,000", "150,000") forms a single token. Words that are units
// in their own right ("10^3/µL") are skipped. Signs are not recognised: on a
// report line a leading '-' is a range separator.
func scanNumbers(s string) []numberToken {
	var tokens []numberToken

	i := 0
	for i < len(s) {
		if !isDigit(s[i]) {
			i++
			continue
		}

		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(s[:i])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) || prev == '.' || prev == '^' {
				i = skipWord(s, i)
				continue
			}
		}

		if _, ok := LookupUnit(wordAt(s, i)); ok {
			i += len(wordAt(s, i))
			continue
		}

		end := scanNumberEnd(s, i)
		if gluedFlag(s, end) == 0 && gluedToWord(s, end) {
			i = skipWord(s, end)
			continue
		}

		tokens = append(tokens, numberToken{Text: s[i:end], Start: i, End: end})
		i = end
	}

	return tokens
}

// scanNumberEnd returns the end offset of the number starting at i
func scanNumberEnd(s string, i int) int {
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}

	// Digit grouping: every group 2 or 3 digits, the last exactly 3
	if j-i <= 3 {
		k, groups, last := j, 0, 0
		for k < len(s) && s[k] == ',' {
			g := k + 1
			for g < len(s) && isDigit(s[g]) {
				g++
			}
			n := g - (k + 1)
			if n != 2 && n != 3 {
				break
			}
			k, groups, last = g, groups+1, n
		}
		if groups > 0 && last == 3 {
			j = k
		}
	}

	if j+1 < len(s) && s[j] == '.' && isDigit(s[j+1]) {
		j++
		for j < len(s) && isDigit(s[j]) {
			j++
		}
	}

	return j
}

// gluedToWord reports whether the number ending at end continues into a word,
// as in "2nd" or "25-OH". A glued unit ("9.2g/dL") is allowed.
func gluedToWord(s string, end int) bool {
	if end >= len(s) {
		return false
	}

	r, size := utf8.DecodeRuneInString(s[end:])
	if unicode.IsLetter(r) {
		_, isUnit := LookupUnit(wordAt(s, end))
		return !isUnit
	}

	if r == '-' && end+size < len(s) {
		next, _ := utf8.DecodeRuneInString(s[end+size:])
		return unicode.IsLetter(next)
	}

	return false
}

// gluedFlag returns the length of a high/low marker printed against the
// number ending at end ("9.2H", "9.2L", "9.2*"), or 0 if there is none
func gluedFlag(s string, end int) int {
	if end >= len(s) {
		return 0
	}
	switch s[end] {
	case 'H', 'L', '*':
	default:
		return 0
	}
	if end+1 < len(s) {
		next, _ := utf8.DecodeRuneInString(s[end+1:])
		if unicode.IsLetter(next) || unicode.IsDigit(next) {
			return 0
		}
	}
	return 1
}

// wordAt returns the whitespace-delimited word starting at i
func wordAt(s string, i int) string {
	rest := s[i:]
	if j := strings.IndexFunc(rest, unicode.IsSpace); j >= 0 {
		return rest[:j]
	}
	return rest
}

// skipWord advances past letters, digits and inner decimal points
func skipWord(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			i += size
		case r == '.' && i+1 < len(s) && isDigit(s[i+1]):
			i += size
		default:
			return i
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
