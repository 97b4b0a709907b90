package mask

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/labsense/internal/extract"
	"github.com/ppiankov/labsense/internal/model"
)

const number = `(?:\d{1,3}(?:,\d{2,3})+|\d+)(?:\.\d+)?`

// spanPattern matches a number with an optional comparator and an optional
// second number forming a range: "9.2", "< 200", "13.0–17.0", "80 to 100".
var spanPattern = regexp.MustCompile(`(?:(?:<=|>=|[<>≤≥])\s*)?` + number + `(?:\s*(?:-|–|—|to)\s*` + number + `)?`)

// Masker swaps numeric and unit spans for opaque tokens
type Masker struct {
	lookupUnit func(string) (string, bool)
}

// NewMasker creates a masker using the report unit vocabulary
func NewMasker() *Masker {
	return &Masker{lookupUnit: extract.LookupUnit}
}

// Mask replaces every number, range, comparator bound and unit in text with a
// token. Identifiers that carry digits (HbA1c, B12) are protected whole.
func (m *Masker) Mask(text string) (string, *TokenMap) {
	tm := NewTokenMap()
	return m.MaskInto(text, tm), tm
}

// MaskInto is Mask with a caller-supplied map, for text that already carries
// tokens from an earlier protection pass.
func (m *Masker) MaskInto(text string, tm *TokenMap) string {
	var b strings.Builder
	last := 0

	for _, loc := range spanPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start < last {
			continue
		}
		// numbers inside a token, e.g. a previously protected phrase, are left alone
		if insideToken(text, start) {
			continue
		}

		switch {
		case letterBefore(text, start):
			start, end = wordStart(text, start), wordEnd(text, end)
		default:
			if unitEnd, ok := m.unitAfter(text, end); ok {
				end = unitEnd
			} else if letterAfter(text, end) {
				end = wordEnd(text, end)
			}
		}

		b.WriteString(m.maskUnits(text[last:start], tm))
		b.WriteString(tm.Add(text[start:end]))
		last = end
	}

	b.WriteString(m.maskUnits(text[last:], tm))
	return b.String()
}

// Unmask restores every token in translated text. If any protected span is
// missing, or the text carries a token that was never issued, a mask restore
// error is returned along with the partial text. Callers must not present
// the partial text as a faithful translation.
func (m *Masker) Unmask(translated string, tm *TokenMap) (string, error) {
	return Unmask(translated, tm)
}

// Unmask restores tokens by identity
func Unmask(translated string, tm *TokenMap) (string, error) {
	missing := tm.Missing(translated)

	var unknown []string
	restored := tokenPattern.ReplaceAllStringFunc(translated, func(tok string) string {
		key := strings.ToUpper(tokenPattern.FindStringSubmatch(tok)[1])
		i, ok := tm.byKey[key]
		if !ok {
			unknown = append(unknown, tok)
			return tok
		}
		return tm.entries[i].Restore
	})
	if lost := append(missing, unknown...); len(lost) > 0 {
		return restored, model.NewMaskRestoreError(lost)
	}

	return restored, nil
}

// unitAfter reports where a unit following position i ends. The unit may be
// glued ("9.2g/dL") or separated by one space ("9.2 g/dL").
func (m *Masker) unitAfter(text string, i int) (int, bool) {
	j := i
	if strings.HasPrefix(text[j:], " ") {
		j++
	}

	k := j
	for k < len(text) {
		r, size := utf8.DecodeRuneInString(text[k:])
		if unicode.IsSpace(r) {
			break
		}
		k += size
	}

	tok := strings.TrimRight(text[j:k], ".,;:!?।)")
	if tok == "" {
		return 0, false
	}
	if _, ok := m.lookupUnit(tok); !ok {
		return 0, false
	}
	return j + len(tok), true
}

// maskUnits protects unit words that stand alone in a gap between numbers.
// Plain words such as "ratio" are left to the translator.
func (m *Masker) maskUnits(gap string, tm *TokenMap) string {
	if gap == "" {
		return gap
	}

	var b strings.Builder
	i := 0
	for i < len(gap) {
		r, size := utf8.DecodeRuneInString(gap[i:])
		if unicode.IsSpace(r) {
			b.WriteRune(r)
			i += size
			continue
		}

		k := i
		for k < len(gap) {
			r, size := utf8.DecodeRuneInString(gap[k:])
			if unicode.IsSpace(r) {
				break
			}
			k += size
		}

		word := gap[i:k]
		core := strings.TrimRight(strings.TrimLeft(word, "("), ".,;:!?।)")
		if _, ok := m.lookupUnit(core); ok && !allLetters(core) && !strings.Contains(word, tokenOpen) {
			at := strings.Index(word, core)
			b.WriteString(word[:at])
			b.WriteString(tm.Add(core))
			b.WriteString(word[at+len(core):])
		} else {
			b.WriteString(word)
		}
		i = k
	}
	return b.String()
}

func insideToken(text string, i int) bool {
	open := strings.LastIndex(text[:i], tokenOpen)
	if open < 0 {
		return false
	}
	return !strings.Contains(text[open:i], tokenClose)
}

func letterBefore(s string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r)
}

func letterAfter(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func wordStart(s string, i int) int {
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if !isWordRune(r) {
			break
		}
		i -= size
	}
	return i
}

func wordEnd(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isWordRune(r) {
			break
		}
		i += size
	}
	return i
}

func allLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
