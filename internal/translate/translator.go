package translate

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ppiankov/labsense/internal/mask"
	"github.com/ppiankov/labsense/internal/model"
	"github.com/ppiankov/labsense/internal/sentence"
)

// DefaultMaxChunkChars bounds one backend request
const DefaultMaxChunkChars = 800

// numberPattern finds the numbers a translation must carry over
var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// Options configures a Translator
type Options struct {
	Language      string // target language code
	MaxChunkChars int
	Logger        zerolog.Logger
}

// Result is a translated narrative
type Result struct {
	Language  string
	Backend   string
	Text      string
	Sentences []string
	Flagged   []model.FlaggedSentence
}

// Localized converts the result for the report
func (r Result) Localized() *model.LocalizedExplanation {
	return &model.LocalizedExplanation{
		Language: r.Language,
		Backend:  r.Backend,
		Text:     r.Text,
		Flagged:  r.Flagged,
	}
}

// Translator translates sentence by sentence with glossary pinning and
// number masking. It holds no per-call state and is safe for concurrent use.
type Translator struct {
	backend  Backend
	masker   *mask.Masker
	language string
	maxChunk int
	logger   zerolog.Logger
}

// New creates a translator over backend
func New(backend Backend, opts Options) *Translator {
	if opts.MaxChunkChars <= 0 {
		opts.MaxChunkChars = DefaultMaxChunkChars
	}
	if opts.Language == "" {
		opts.Language = "mr"
	}
	return &Translator{
		backend:  backend,
		masker:   mask.NewMasker(),
		language: opts.Language,
		maxChunk: opts.MaxChunkChars,
		logger:   opts.Logger,
	}
}

// Language returns the target language
func (t *Translator) Language() string {
	return t.language
}

// unit is one sentence on its way through the backend
type unit struct {
	english string
	masked  string
	tokens  *mask.TokenMap
	skip    bool // nothing left for the backend to translate
	out     string
}

// Translate renders english into the target language. A sentence whose
// protected spans do not all come back is replaced by its English original
// and flagged. A failing backend yields a translation unavailable error.
func (t *Translator) Translate(ctx context.Context, english string) (Result, error) {
	return t.TranslateSentences(ctx, sentence.Split(english))
}

// TranslateSentences is Translate for text already split into sentences.
// Result.Sentences lines up with the input.
func (t *Translator) TranslateSentences(ctx context.Context, sentences []string) (Result, error) {
	result := Result{Language: t.language, Backend: "none"}
	if t.backend != nil {
		result.Backend = t.backend.Name()
	}

	if t.language == "en" || len(sentences) == 0 {
		result.Sentences = sentences
		result.Text = strings.Join(sentences, " ")
		return result, nil
	}
	if t.backend == nil {
		return result, model.NewTranslationUnavailableError("none", nil)
	}

	// token keys are unique across the call, so a line that comes back
	// attached to the wrong sentence carries tokens its map never issued
	units := make([]*unit, len(sentences))
	next := 0
	for i, s := range sentences {
		tm := mask.NewTokenMapAt(next)
		masked := t.masker.MaskInto(ApplyGlossary(s, t.language, tm), tm)
		units[i] = &unit{
			english: s,
			masked:  masked,
			tokens:  tm,
			skip:    !hasText(masked),
		}
		next = tm.Next()
	}

	if err := t.translateUnits(ctx, units); err != nil {
		return result, model.NewTranslationUnavailableError(t.backend.Name(), err)
	}

	for i, u := range units {
		out, err := verify(u)
		if err != nil {
			t.logger.Warn().
				Err(err).
				Int("sentence", i).
				Str("kind", string(model.KindOf(err))).
				Msg("translation lost protected spans, keeping English")
			result.Flagged = append(result.Flagged, model.FlaggedSentence{
				Index:   i,
				English: u.english,
				Missing: model.SpansOf(err),
			})
			out = u.english
		}
		result.Sentences = append(result.Sentences, out)
	}

	result.Text = strings.Join(result.Sentences, " ")
	return result, nil
}

// translateUnits batches sentences into newline-joined chunks. When a chunk
// comes back with a different line count, its sentences are retried singly.
func (t *Translator) translateUnits(ctx context.Context, units []*unit) error {
	var batch []*unit
	size := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		defer func() { batch, size = nil, 0 }()
		return t.translateBatch(ctx, batch)
	}

	for _, u := range units {
		if u.skip {
			u.out = u.masked
			continue
		}

		n := utf8.RuneCountInString(u.masked)
		if len(batch) > 0 && size+1+n > t.maxChunk {
			if err := flush(); err != nil {
				return err
			}
		}
		batch = append(batch, u)
		size += n + 1
	}
	return flush()
}

func (t *Translator) translateBatch(ctx context.Context, batch []*unit) error {
	lines := make([]string, len(batch))
	for i, u := range batch {
		lines[i] = u.masked
	}

	out, err := t.backend.Translate(ctx, strings.Join(lines, "\n"), "en", t.language)
	if err != nil {
		return err
	}

	got := splitLines(out)
	if len(got) == len(batch) {
		for i, u := range batch {
			u.out = got[i]
		}
		return nil
	}

	t.logger.Debug().
		Int("sent", len(batch)).
		Int("received", len(got)).
		Msg("line count changed, translating sentences one by one")

	for _, u := range batch {
		out, err := t.backend.Translate(ctx, u.masked, "en", t.language)
		if err != nil {
			return err
		}
		u.out = strings.TrimSpace(out)
	}
	return nil
}

// verify unmasks a sentence and checks every English number survived.
// Tokens issued for another sentence fail the restore.
func verify(u *unit) (string, error) {
	restored, err := mask.Unmask(u.out, u.tokens)
	if err != nil {
		return restored, err
	}

	var lost []string
	for _, n := range numberPattern.FindAllString(u.english, -1) {
		if !strings.Contains(restored, n) {
			lost = append(lost, n)
		}
	}
	if len(lost) > 0 {
		return restored, model.NewMaskRestoreError(lost)
	}
	return restored, nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// hasText reports whether masked text has letters outside its tokens
func hasText(masked string) bool {
	for _, r := range stripTokens(masked) {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

var anyToken = regexp.MustCompile(`⟦[^⟧]*⟧`)

func stripTokens(s string) string {
	return anyToken.ReplaceAllString(s, "")
}
