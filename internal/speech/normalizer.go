// Package speech prepares localized text for text-to-speech and writes the
// synthesized audio.
package speech

import (
	"regexp"
	"strings"

	"github.com/ppiankov/labsense/internal/sentence"
)

// DefaultMaxChunkChars keeps chunks short enough for the free TTS endpoint
// and for WhatsApp voice notes.
const DefaultMaxChunkChars = 220

var (
	rangePattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[–-]\s*(\d+(?:\.\d+)?)`)
	decimalPattern = regexp.MustCompile(`\b(\d+)\.(\d+)\b`)
)

// Normalizer rewrites numbers the way they should be spoken
type Normalizer struct {
	pointWord string
	rangeWord string
	maxChunk  int
}

// NewNormalizer creates a normalizer. Empty words default to English.
func NewNormalizer(pointWord, rangeWord string, maxChunkChars int) *Normalizer {
	if pointWord == "" {
		pointWord = "point"
	}
	if rangeWord == "" {
		rangeWord = "to"
	}
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	return &Normalizer{pointWord: pointWord, rangeWord: rangeWord, maxChunk: maxChunkChars}
}

// Normalize turns "13.0–17.0" into "13 to 17" and "7.25" into
// "7 point 2 5". A fraction of only zeros is dropped.
func (n *Normalizer) Normalize(text string) string {
	text = rangePattern.ReplaceAllString(text, "${1} "+n.rangeWord+" ${2}")

	return decimalPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := decimalPattern.FindStringSubmatch(m)
		whole, frac := parts[1], parts[2]

		if strings.Trim(frac, "0") == "" {
			return whole
		}
		return whole + " " + n.pointWord + " " + strings.Join(strings.Split(frac, ""), " ")
	})
}

// Chunks normalizes text and packs its sentences into speakable chunks
func (n *Normalizer) Chunks(text string) []string {
	return sentence.Chunk(sentence.Split(n.Normalize(text)), n.maxChunk)
}
