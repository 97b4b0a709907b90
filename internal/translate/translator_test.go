package translate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/labsense/internal/cache"
	"github.com/ppiankov/labsense/internal/explain"
	"github.com/ppiankov/labsense/internal/model"
)

const hemoglobinText = "Hemoglobin is 9.2 g/dL, which is below the printed reference range of 13.0–17.0 g/dL. " +
	"1 of 3 tests are outside the printed reference range. " + explain.Disclaimer

// funcBackend adapts a function to Backend and counts calls
type funcBackend struct {
	mu    sync.Mutex
	calls []string
	fn    func(text string) (string, error)
}

func (b *funcBackend) Name() string { return "func" }

func (b *funcBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	b.mu.Lock()
	b.calls = append(b.calls, text)
	b.mu.Unlock()
	return b.fn(text)
}

func (b *funcBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

var devanagariDigits = strings.NewReplacer(
	"0", "०", "1", "१", "2", "२", "3", "३", "4", "४",
	"5", "५", "6", "६", "7", "७", "8", "८", "9", "९",
)

func newTranslator(b Backend, lang string) *Translator {
	return New(b, Options{Language: lang, Logger: zerolog.Nop()})
}

func TestTranslator_EchoKeepsNumbers(t *testing.T) {
	tr := newTranslator(Echo{}, "mr")

	result, err := tr.Translate(context.Background(), hemoglobinText)
	require.NoError(t, err)

	assert.Empty(t, result.Flagged)
	assert.Equal(t, "echo", result.Backend)
	assert.Equal(t, "mr", result.Language)
	require.Len(t, result.Sentences, 3)

	for _, n := range []string{"9.2", "13.0", "17.0"} {
		assert.Contains(t, result.Text, n)
	}
	assert.Contains(t, result.Sentences[0], "अहवालावर छापलेल्या संदर्भ श्रेणीपेक्षा कमी")
	want, _ := Lookup(explain.Disclaimer, "mr")
	assert.Equal(t, want, result.Sentences[2])
}

// Tokens carry no digits, so a backend that localizes numerals cannot corrupt them
func TestTranslator_DigitLocalizingBackend(t *testing.T) {
	backend := &funcBackend{fn: func(text string) (string, error) {
		return devanagariDigits.Replace(text), nil
	}}
	tr := newTranslator(backend, "hi")

	result, err := tr.Translate(context.Background(), hemoglobinText)
	require.NoError(t, err)

	assert.Empty(t, result.Flagged)
	assert.Contains(t, result.Text, "9.2 g/dL")
	assert.Contains(t, result.Text, "13.0–17.0 g/dL")
	for _, call := range backend.calls {
		assert.NotRegexp(t, `[0-9०-९]`, call, "numbers must be masked before the backend sees them")
	}
}

func TestTranslator_DroppedTokenFlagsSentence(t *testing.T) {
	backend := &funcBackend{fn: func(text string) (string, error) {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if strings.HasPrefix(line, "Hemoglobin") {
				lines[i] = strings.Replace(line, "⟦C⟧", "", 1)
			}
		}
		return strings.Join(lines, "\n"), nil
	}}
	tr := newTranslator(backend, "mr")

	result, err := tr.Translate(context.Background(), hemoglobinText)
	require.NoError(t, err)

	require.Len(t, result.Flagged, 1)
	flagged := result.Flagged[0]
	assert.Equal(t, 0, flagged.Index)
	assert.Equal(t, []string{"13.0–17.0 g/dL"}, flagged.Missing)
	assert.True(t, strings.HasPrefix(flagged.English, "Hemoglobin is 9.2 g/dL"))

	assert.Equal(t, flagged.English, result.Sentences[0], "a flagged sentence falls back to English")
	assert.NotContains(t, result.Sentences[1], "outside", "other sentences stay translated")
}

func TestTranslator_ReorderedLinesAreFlagged(t *testing.T) {
	backend := &funcBackend{fn: func(text string) (string, error) {
		lines := strings.Split(text, "\n")
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
		return strings.Join(lines, "\n"), nil
	}}
	tr := newTranslator(backend, "mr")

	english := []string{"Glucose is 250 mg/dL.", "Creatinine is 2.1 mg/dL."}
	result, err := tr.TranslateSentences(context.Background(), english)
	require.NoError(t, err)

	require.Len(t, result.Flagged, 2, "a line carrying another sentence's tokens must not be restored")
	assert.Equal(t, english, result.Sentences)
	assert.Equal(t, 1, backend.callCount())
}

func TestTranslator_LineCountMismatchFallsBack(t *testing.T) {
	backend := &funcBackend{fn: func(text string) (string, error) {
		return strings.ReplaceAll(text, "\n", " "), nil
	}}
	tr := newTranslator(backend, "mr")

	result, err := tr.Translate(context.Background(), hemoglobinText)
	require.NoError(t, err)

	assert.Empty(t, result.Flagged)
	assert.Len(t, result.Sentences, 3)
	// one batched call, then one per sentence that reached the backend
	assert.Equal(t, 1+2, backend.callCount())
}

func TestTranslator_BatchesRespectChunkSize(t *testing.T) {
	backend := &funcBackend{fn: func(text string) (string, error) { return text, nil }}
	tr := New(backend, Options{Language: "mr", MaxChunkChars: 60, Logger: zerolog.Nop()})

	text := strings.Repeat("Sodium is fine today. ", 10)
	result, err := tr.Translate(context.Background(), text)
	require.NoError(t, err)

	assert.Len(t, result.Sentences, 10)
	assert.Greater(t, backend.callCount(), 1)
	for _, call := range backend.calls {
		assert.LessOrEqual(t, len([]rune(call)), 60)
	}
}

func TestTranslator_BackendFailure(t *testing.T) {
	backend := &funcBackend{fn: func(string) (string, error) {
		return "", errors.New("503 service unavailable")
	}}
	tr := newTranslator(backend, "mr")

	_, err := tr.Translate(context.Background(), hemoglobinText)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTranslationUnavailable)
	assert.Contains(t, err.Error(), "503")
}

func TestTranslator_EnglishPassesThrough(t *testing.T) {
	backend := &funcBackend{fn: func(string) (string, error) { return "", errors.New("unused") }}
	tr := newTranslator(backend, "en")

	result, err := tr.Translate(context.Background(), hemoglobinText)
	require.NoError(t, err)
	assert.Equal(t, hemoglobinText, result.Text)
	assert.Zero(t, backend.callCount())
}

func TestTranslator_NoBackend(t *testing.T) {
	tr := newTranslator(nil, "mr")

	_, err := tr.Translate(context.Background(), hemoglobinText)
	assert.ErrorIs(t, err, model.ErrTranslationUnavailable)
}

func TestTranslator_TokenOnlySentenceSkipsBackend(t *testing.T) {
	backend := &funcBackend{fn: func(text string) (string, error) { return text, nil }}
	tr := newTranslator(backend, "mr")

	result, err := tr.Translate(context.Background(), explain.Disclaimer)
	require.NoError(t, err)
	assert.Zero(t, backend.callCount())

	want, _ := Lookup(explain.Disclaimer, "mr")
	assert.Equal(t, want, result.Text)
}

func TestCached_ServesRepeats(t *testing.T) {
	backend := &funcBackend{fn: func(text string) (string, error) { return text, nil }}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	tr := newTranslator(Cached(backend, c, time.Minute, zerolog.Nop()), "mr")

	first, err := tr.Translate(context.Background(), hemoglobinText)
	require.NoError(t, err)
	calls := backend.callCount()

	second, err := tr.Translate(context.Background(), hemoglobinText)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, calls, backend.callCount())
	assert.Equal(t, "func", second.Backend)
}

func TestResult_Localized(t *testing.T) {
	r := Result{Language: "hi", Backend: "google", Text: "x", Flagged: []model.FlaggedSentence{{Index: 2}}}
	loc := r.Localized()

	assert.Equal(t, "hi", loc.Language)
	assert.Equal(t, "google", loc.Backend)
	assert.Len(t, loc.Flagged, 1)
}
